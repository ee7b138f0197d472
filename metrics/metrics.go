// Package metrics scores forecasts against held-out actuals.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/salesforecast/errdefs"
)

// Bundle is the accuracy summary for one model.
type Bundle struct {
	MAE  float64
	RMSE float64
	// R2 is NaN when the actuals have zero variance.
	R2 float64
}

// Entry is a named metric value.
type Entry struct {
	Name  string
	Value float64
}

// Entries returns the metrics in report order.
func (b Bundle) Entries() []Entry {
	return []Entry{
		{Name: "MAE", Value: b.MAE},
		{Name: "RMSE", Value: b.RMSE},
		{Name: "R2", Value: b.R2},
	}
}

// Evaluate computes MAE, RMSE and R² of predicted against actual.
// Inputs must be non-empty and of equal length; otherwise the error wraps
// errdefs.ErrLengthMismatch.
func Evaluate(actual, predicted []float64) (Bundle, error) {
	if len(actual) != len(predicted) {
		return Bundle{}, fmt.Errorf("metrics: %w: %d actual values, %d predicted", errdefs.ErrLengthMismatch, len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return Bundle{}, fmt.Errorf("metrics: %w: no values to compare", errdefs.ErrLengthMismatch)
	}

	residuals := make([]float64, len(actual))
	floats.SubTo(residuals, actual, predicted)

	n := float64(len(actual))
	ssRes := floats.Dot(residuals, residuals)

	b := Bundle{
		MAE:  floats.Norm(residuals, 1) / n,
		RMSE: math.Sqrt(ssRes / n),
		R2:   math.NaN(),
	}

	mean := stat.Mean(actual, nil)
	ssTot := 0.0
	for _, v := range actual {
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot > 0 {
		b.R2 = 1 - ssRes/ssTot
	}
	return b, nil
}
