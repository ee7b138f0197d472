// Command salesforecast fits ARIMA and seasonal models to daily sales,
// evaluates both on a holdout and writes metrics, plots and a comparison
// report.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sartorproj/salesforecast/config"
	"github.com/sartorproj/salesforecast/internal/logging"
	"github.com/sartorproj/salesforecast/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.New(cfg, logger).Run(ctx)
	printSummary(result)
	if err != nil {
		logger.Error().Err(err).Msg("Forecasting finished with errors")
		os.Exit(1)
	}
	logger.Info().Str("dir", cfg.OutputDir).Msg("Analysis complete")
}

func printSummary(result *pipeline.Result) {
	if result == nil || len(result.Models) == 0 {
		return
	}
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("%-10s %12s %12s %12s\n", "Model", "MAE", "RMSE", "R2")
	fmt.Println(strings.Repeat("-", 60))
	for _, mr := range result.Models {
		if mr.Err != nil {
			fmt.Printf("%-10s failed: %v\n", mr.Name, mr.Err)
			continue
		}
		fmt.Printf("%-10s %12.4f %12.4f %12.4f\n", mr.Name, mr.Metrics.MAE, mr.Metrics.RMSE, mr.Metrics.R2)
	}
	fmt.Println(strings.Repeat("=", 60))
	if result.ComparisonPath != "" {
		fmt.Printf("Comparison report: %s\n", result.ComparisonPath)
	}
}
