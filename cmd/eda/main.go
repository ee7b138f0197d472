// Command eda prints shape, descriptive statistics and missing-value counts
// for each configured dataset.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sartorproj/salesforecast/config"
	"github.com/sartorproj/salesforecast/eda"
	"github.com/sartorproj/salesforecast/errdefs"
	"github.com/sartorproj/salesforecast/internal/logging"
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

	failed := 0
	for _, ds := range cfg.Datasets {
		summary, err := eda.DescribeFile(ds.Path, ds.Name)
		if err != nil {
			if errors.Is(err, errdefs.ErrIO) {
				logger.Warn().Err(err).Str("dataset", ds.Name).Msg("Skipping dataset")
				continue
			}
			logger.Error().Err(err).Str("dataset", ds.Name).Msg("Failed to describe dataset")
			failed++
			continue
		}

		fmt.Printf("\n=== %s Analysis ===\n", ds.Name)
		if _, err := summary.WriteTo(os.Stdout); err != nil {
			logger.Error().Err(err).Msg("Failed to write summary")
			os.Exit(1)
		}
		fmt.Println(strings.Repeat("-", 40))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
