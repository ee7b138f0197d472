// Package stats provides the statistical diagnostics used around the
// forecasting models: unit-root tests, autocorrelation and residual checks.
package stats

import (
	"github.com/sartorproj/salesforecast/timeseries"
)

// ACF calculates the Autocorrelation Function for the given series.
// Returns ACF values for lags 0 to maxLag, or nil for a constant series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	maxLag = min(maxLag, n-1)
	if maxLag < 0 {
		return nil
	}

	mean := series.Mean()
	denom := 0.0
	for _, v := range series.Values {
		dev := v - mean
		denom += dev * dev
	}
	if denom == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := range acf {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (series.Values[i] - mean) * (series.Values[i-k] - mean)
		}
		acf[k] = sum / denom
	}

	return acf
}
