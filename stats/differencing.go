package stats

import (
	"github.com/sartorproj/salesforecast/timeseries"
)

// NDiffs estimates how many first differences make the series stationary.
// testType is "adf" or "kpss" (default). The result is in [0, maxD].
// It is a diagnostic; nothing in the forecasting pipeline acts on it.
func NDiffs(series *timeseries.Series, maxD int, testType string) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := series
	for d := 0; d < maxD; d++ {
		if isStationary(current, testType) {
			return d
		}
		current = current.Diff()
		if current.Len() < 10 {
			return d
		}
	}
	return maxD
}

func isStationary(series *timeseries.Series, testType string) bool {
	if testType == "adf" {
		result, err := ADF(series, 0)
		return err == nil && result.Stationary
	}
	result, err := KPSS(series, "c", 0)
	return err == nil && result.Stationary
}
