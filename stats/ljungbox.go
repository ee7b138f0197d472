package stats

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/salesforecast/timeseries"
)

// LjungBoxResult represents the result of a Ljung-Box test.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int // Degrees of freedom
}

// WhiteNoise reports whether the residuals show no autocorrelation at the
// 5% level.
func (r *LjungBoxResult) WhiteNoise() bool {
	return r.PValue >= 0.05
}

// LjungBox tests residuals for autocorrelation up to the given lag.
// H0: no autocorrelation. fitdf is the number of estimated ARMA parameters
// (p + q) and is subtracted from the degrees of freedom.
// Returns nil for fewer than 10 residuals or a constant residual series.
func LjungBox(residuals []float64, lags, fitdf int) *LjungBoxResult {
	n := len(residuals)
	if n < 10 || lags < 1 {
		return nil
	}
	lags = min(lags, n-1)

	acf := ACF(timeseries.New(residuals), lags)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += acf[k] * acf[k] / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := max(lags-fitdf, 1)
	chi2 := distuv.ChiSquared{K: float64(dof)}

	return &LjungBoxResult{
		Statistic: q,
		PValue:    chi2.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}
}
