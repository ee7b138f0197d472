package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/salesforecast/timeseries"
)

// ErrInsufficientData is returned when a series is too short for a test.
var ErrInsufficientData = errors.New("insufficient data for test")

// SignificanceLevel is the p-value threshold for the stationarity verdict.
const SignificanceLevel = 0.05

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	NObs           int
	CriticalValues map[string]float64 // keyed "1%", "5%", "10%"
	Stationary     bool
}

// adfCriticalValues are the asymptotic critical values for the
// constant-only regression.
var adfCriticalValues = map[string]float64{
	"1%":  -3.43,
	"5%":  -2.86,
	"10%": -2.57,
}

// ADF performs the Augmented Dickey-Fuller test with a constant term.
// H0: the series has a unit root. The series is reported stationary when
// the p-value is below SignificanceLevel. maxLag <= 0 selects
// floor((n-1)^(1/3)) lagged differences.
func ADF(series *timeseries.Series, maxLag int) (*ADFResult, error) {
	n := series.Len()
	if n < 10 {
		return nil, fmt.Errorf("adf: %d observations: %w", n, ErrInsufficientData)
	}

	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	maxLag = min(maxLag, n-2)

	nObs := n - maxLag - 1
	if nObs < 10 {
		return nil, fmt.Errorf("adf: %d regression rows for %d lags: %w", nObs, maxLag, ErrInsufficientData)
	}

	// delta_y[t] = alpha + beta*y[t-1] + sum_j gamma_j*delta_y[t-j]
	diff := series.Diff()
	y := make([]float64, nObs)
	x := mat.NewDense(nObs, 2+maxLag, nil)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y[i] = diff.Values[t]
		x.Set(i, 0, 1)
		x.Set(i, 1, series.Values[t])
		for j := 1; j <= maxLag; j++ {
			x.Set(i, 1+j, diff.Values[t-j])
		}
	}

	coeffs, stdErrs, err := olsRegression(x, y)
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}
	if stdErrs[1] == 0 || math.IsNaN(stdErrs[1]) {
		return nil, errors.New("adf: degenerate regression (zero standard error)")
	}

	tStat := coeffs[1] / stdErrs[1]
	pValue := mackinnonPValue(tStat)

	critical := make(map[string]float64, len(adfCriticalValues))
	for k, v := range adfCriticalValues {
		critical[k] = v
	}

	return &ADFResult{
		Statistic:      tStat,
		PValue:         pValue,
		Lags:           maxLag,
		NObs:           nObs,
		CriticalValues: critical,
		Stationary:     pValue < SignificanceLevel,
	}, nil
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	CriticalValues map[string]float64
	Stationary     bool
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test.
// H0: the series is stationary around a level ("c") or a trend ("ct").
// nlags <= 0 selects ceil(12*(n/100)^(1/4)) Newey-West lags.
func KPSS(series *timeseries.Series, regression string, nlags int) (*KPSSResult, error) {
	n := series.Len()
	if n < 10 {
		return nil, fmt.Errorf("kpss: %d observations: %w", n, ErrInsufficientData)
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	nlags = min(nlags, n-1)

	residuals := make([]float64, n)
	if regression == "ct" {
		a, b := linearFit(series.Values)
		for i, v := range series.Values {
			residuals[i] = v - a - b*float64(i)
		}
	} else {
		mean := series.Mean()
		for i, v := range series.Values {
			residuals[i] = v - mean
		}
	}

	// Long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		weight := 1.0 - float64(l)/float64(nlags+1)
		s2 += 2 * weight * cov / float64(n)
	}
	if s2 <= 0 {
		return nil, errors.New("kpss: non-positive long-run variance")
	}

	partial, eta := 0.0, 0.0
	for _, r := range residuals {
		partial += r
		eta += partial * partial
	}
	stat := eta / (float64(n) * float64(n) * s2)

	critical := map[string]float64{"10%": 0.347, "5%": 0.463, "1%": 0.739}
	if regression == "ct" {
		critical = map[string]float64{"10%": 0.119, "5%": 0.146, "1%": 0.216}
	}
	pValue := kpssPValue(stat, critical)

	return &KPSSResult{
		Statistic:      stat,
		PValue:         pValue,
		Lags:           nlags,
		CriticalValues: critical,
		Stationary:     pValue >= SignificanceLevel,
	}, nil
}

// StationarityReport bundles the diagnostics run on the daily series.
// Stationary is the ADF verdict; KPSS and SuggestedDiffs are supplementary.
type StationarityReport struct {
	ADF            *ADFResult
	KPSS           *KPSSResult
	SuggestedDiffs int
	Stationary     bool
}

// CheckStationarity runs the ADF test on the series and, when possible, the
// level KPSS test and the suggested differencing order. Only an ADF failure
// is returned as an error.
func CheckStationarity(series *timeseries.Series) (*StationarityReport, error) {
	adf, err := ADF(series, 0)
	if err != nil {
		return nil, err
	}

	report := &StationarityReport{
		ADF:            adf,
		Stationary:     adf.Stationary,
		SuggestedDiffs: NDiffs(series, 2, "adf"),
	}
	if kpss, err := KPSS(series, "c", 0); err == nil {
		report.KPSS = kpss
	}
	return report, nil
}

// olsRegression fits y = X*beta and returns beta with its standard errors.
func olsRegression(x *mat.Dense, y []float64) (coeffs, stdErrs []float64, err error) {
	n, k := x.Dims()
	if n <= k {
		return nil, nil, fmt.Errorf("ols: %d rows for %d regressors: %w", n, k, ErrInsufficientData)
	}

	var xtx, xtxInv mat.Dense
	xtx.Mul(x.T(), x)
	if err := xtxInv.Inverse(&xtx); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, nil, fmt.Errorf("ols: singular design matrix: %w", err)
		}
	}

	yVec := mat.NewVecDense(n, y)
	var xty, beta mat.VecDense
	xty.MulVec(x.T(), yVec)
	beta.MulVec(&xtxInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	sse := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		sse += r * r
	}

	s2 := sse / float64(n-k)
	coeffs = make([]float64, k)
	stdErrs = make([]float64, k)
	for i := 0; i < k; i++ {
		coeffs[i] = beta.AtVec(i)
		stdErrs[i] = math.Sqrt(s2 * xtxInv.At(i, i))
	}
	return coeffs, stdErrs, nil
}

// linearFit returns intercept and slope of values against their index.
func linearFit(values []float64) (a, b float64) {
	var sumT, sumY, sumTY, sumT2 float64
	for i, v := range values {
		t := float64(i)
		sumT += t
		sumY += v
		sumTY += t * v
		sumT2 += t * t
	}
	n := float64(len(values))
	b = (n*sumTY - sumT*sumY) / (n*sumT2 - sumT*sumT)
	a = (sumY - b*sumT) / n
	return a, b
}

// adfQuantiles are asymptotic quantiles of the Dickey-Fuller distribution
// for the constant-only regression, ordered by statistic.
var adfQuantiles = []struct{ stat, p float64 }{
	{-3.96, 0.001},
	{-3.43, 0.01},
	{-3.12, 0.025},
	{-2.86, 0.05},
	{-2.57, 0.10},
	{-1.57, 0.50},
	{-0.44, 0.90},
	{-0.07, 0.95},
	{0.23, 0.975},
	{0.60, 0.99},
}

// mackinnonPValue maps an ADF statistic (constant-only regression) to an
// approximate p-value by interpolating log(p) linearly between the
// quantiles in adfQuantiles. It is strictly increasing, so a statistic below
// a critical value always has a p-value below that level. Outside the table
// the end segments are extended and clamped to [1e-6, 0.999].
func mackinnonPValue(stat float64) float64 {
	q := adfQuantiles
	k := 1
	for k < len(q)-1 && stat > q[k].stat {
		k++
	}
	lo, hi := q[k-1], q[k]
	frac := (stat - lo.stat) / (hi.stat - lo.stat)
	logP := math.Log(lo.p) + frac*(math.Log(hi.p)-math.Log(lo.p))
	return math.Min(math.Max(math.Exp(logP), 1e-6), 0.999)
}

// kpssPValue maps a KPSS statistic to a p-value bucket using the table's
// critical values; values below the 10% point are capped at 0.10 or above.
func kpssPValue(stat float64, critical map[string]float64) float64 {
	switch {
	case stat > critical["1%"]:
		return 0.01
	case stat > critical["5%"]:
		return 0.05
	case stat > critical["10%"]:
		return 0.10
	default:
		return math.Min(0.10+(critical["10%"]-stat), 0.99)
	}
}
