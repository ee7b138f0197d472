// Package forecast defines the interface shared by the forecasting models so
// the pipeline can fit, forecast and evaluate them uniformly.
package forecast

import (
	"github.com/sartorproj/salesforecast/timeseries"
)

// Fitted is a model trained on a series.
type Fitted interface {
	// Forecast returns steps predictions continuing immediately after the
	// last training observation.
	Forecast(steps int) ([]float64, error)
}

// Model fits a forecasting model to a training series.
// Implementations wrap fitting failures in errdefs.ErrModelFit.
type Model interface {
	Name() string
	Fit(train *timeseries.Series) (Fitted, error)
}
