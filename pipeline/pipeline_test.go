package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/salesforecast/arima"
	"github.com/sartorproj/salesforecast/config"
	"github.com/sartorproj/salesforecast/errdefs"
	"github.com/sartorproj/salesforecast/seasonal"
)

// writeConstantSales writes days of sales where each day sums to 10 across
// two transactions.
func writeConstantSales(t *testing.T, dir string, days int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("InventoryId,SalesQuantity,SalesDate\n")
	start := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format("1/2/2006")
		fmt.Fprintf(&sb, "A,4,%s\nB,6,%s\n", d, d)
	}
	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.SalesPath = writeConstantSales(t, dir, 100)
	cfg.OutputDir = filepath.Join(dir, "results")
	return cfg
}

func TestRunConstantSeries(t *testing.T) {
	cfg := testConfig(t)

	result, err := New(cfg, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 100, result.Series.Len())
	assert.Equal(t, 80, result.Train.Len())
	assert.Equal(t, 20, result.Test.Len())
	require.Len(t, result.Models, 2)

	for _, name := range []string{"ARIMA", "Seasonal"} {
		mr := result.Model(name)
		require.NotNil(t, mr, name)
		require.NoError(t, mr.Err)
		assert.Len(t, mr.Forecast, 20)
		assert.InDelta(t, 0, mr.Metrics.MAE, 1e-6, name)
		assert.True(t, math.IsNaN(mr.Metrics.R2), "%s R2 should be NaN for constant actuals", name)
	}

	for _, file := range []string{
		DailySeriesFile,
		ComparisonFile,
		"arima_metrics.txt",
		"arima_forecast.png",
		"seasonal_metrics.txt",
		"seasonal_forecast.png",
		"seasonal_components.png",
	} {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, file))
	}

	comparison, err := os.ReadFile(result.ComparisonPath)
	require.NoError(t, err)
	assert.Contains(t, string(comparison), "ARIMA Evaluation Metrics:")
	assert.Contains(t, string(comparison), "Seasonal Evaluation Metrics:")
	assert.Contains(t, string(comparison), "Seasonality Analysis:")
	assert.NotContains(t, string(comparison), "Metrics unavailable")
	// ARIMA(1,1,1) fits no constant unless drift is configured.
	assert.Contains(t, string(comparison), "Order: (1,1,1)\nConstant: false\n")
}

func TestRunModelFailureKeepsOtherModel(t *testing.T) {
	cfg := testConfig(t)
	models := WithModels(
		arima.NewForecaster(arima.Order{P: 60, D: 1, Q: 30}),
		seasonal.NewForecaster(cfg.Seasonal),
	)

	result, err := New(cfg, zerolog.Nop(), models).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrModelFit)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "ARIMA", stageErr.Model)
	assert.Equal(t, StageFitting, stageErr.Stage)
	assert.True(t, strings.HasPrefix(stageErr.Error(), "ARIMA fitting: "))

	require.NoError(t, result.Model("Seasonal").Err)
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "arima_metrics.txt"))

	comparison, err := os.ReadFile(result.ComparisonPath)
	require.NoError(t, err)
	assert.Contains(t, string(comparison), "ARIMA Model Metrics:\nMetrics unavailable: ARIMA fitting:")
	assert.Contains(t, string(comparison), "Seasonal Evaluation Metrics:")
}

func TestRunPlotFailureKeepsMetricsInComparison(t *testing.T) {
	cfg := testConfig(t)
	// A directory where the ARIMA forecast plot should go makes saving it fail.
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.OutputDir, "arima_forecast.png"), 0o755))

	result, err := New(cfg, zerolog.Nop()).Run(context.Background())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "ARIMA", stageErr.Model)
	assert.Equal(t, StageReporting, stageErr.Stage)

	arimaResult := result.Model("ARIMA")
	require.NotNil(t, arimaResult)
	assert.Error(t, arimaResult.Err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "arima_metrics.txt"), arimaResult.MetricsPath)
	assert.FileExists(t, arimaResult.MetricsPath)
	require.NoError(t, result.Model("Seasonal").Err)

	comparison, err := os.ReadFile(result.ComparisonPath)
	require.NoError(t, err)
	text := string(comparison)
	assert.Contains(t, text, "ARIMA Model Metrics:\nARIMA Evaluation Metrics:")
	assert.Contains(t, text, "Note: ARIMA reporting:")
	assert.NotContains(t, text, "Metrics unavailable")
}

func TestRunMissingInput(t *testing.T) {
	cfg := config.Default()
	cfg.SalesPath = filepath.Join(t.TempDir(), "missing.csv")
	cfg.OutputDir = t.TempDir()

	_, err := New(cfg, zerolog.Nop()).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrIO)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StagePreparation, stageErr.Stage)
	assert.Empty(t, stageErr.Model)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg, zerolog.Nop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStageErrorMessage(t *testing.T) {
	err := &StageError{Model: "Seasonal", Stage: StageEvaluation, Err: errors.New("boom")}
	assert.Equal(t, "Seasonal evaluation: boom", err.Error())

	shared := &StageError{Stage: StagePreparation, Err: errdefs.ErrDataFormat}
	assert.Equal(t, "preparation: data format error", shared.Error())
	assert.ErrorIs(t, shared, errdefs.ErrDataFormat)
}
