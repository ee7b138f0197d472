// Package arima implements ARIMA (AutoRegressive Integrated Moving Average) models.
package arima

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/salesforecast/errdefs"
	"github.com/sartorproj/salesforecast/forecast"
	"github.com/sartorproj/salesforecast/stats"
	"github.com/sartorproj/salesforecast/timeseries"
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int `yaml:"p"` // AR order (number of autoregressive terms)
	D int `yaml:"d"` // Differencing order
	Q int `yaml:"q"` // MA order (number of moving average terms)
}

// DefaultOrder is ARIMA(1,1,1).
var DefaultOrder = Order{P: 1, D: 1, Q: 1}

// String formats the order as "(p,d,q)".
func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model represents an ARIMA model.
type Model struct {
	Order      Order
	ARCoeffs   []float64 // AR coefficients (phi)
	MACoeffs   []float64 // MA coefficients (theta)
	Intercept  float64
	Variance   float64 // Residual variance
	AIC        float64
	AICc       float64 // Corrected AIC for small sample sizes
	BIC        float64
	LogLik     float64
	fitted     bool
	nObs       int
	diffData   []float64
	lastLevels []float64 // last value of the series after 0..d-1 differences
	residuals  []float64
	fittedVals []float64

	// IncludeMean estimates a constant on the differenced scale. With d > 0
	// the constant is a drift term; New enables it only when d == 0.
	IncludeMean bool
}

// New creates a new ARIMA model with the specified order.
func New(p, d, q int) *Model {
	return &Model{
		Order:       Order{P: p, D: d, Q: q},
		ARCoeffs:    make([]float64, max(p, 0)),
		MACoeffs:    make([]float64, max(q, 0)),
		IncludeMean: d == 0,
	}
}

// MinObservations returns the shortest series Fit accepts for the order.
func (o Order) MinObservations() int {
	return o.P + o.D + o.Q + 10
}

// Fit fits the ARIMA model to the given time series data.
// Failures wrap errdefs.ErrModelFit.
func (m *Model) Fit(series *timeseries.Series) error {
	if m.Order.P < 0 || m.Order.D < 0 || m.Order.Q < 0 {
		return fmt.Errorf("arima%s: negative order: %w", m.Order, errdefs.ErrModelFit)
	}
	if series.Len() < m.Order.MinObservations() {
		return fmt.Errorf("arima%s: %d observations, need at least %d: %w",
			m.Order, series.Len(), m.Order.MinObservations(), errdefs.ErrModelFit)
	}
	if series.HasNonFinite() {
		return fmt.Errorf("arima%s: series contains NaN or Inf: %w", m.Order, errdefs.ErrModelFit)
	}

	m.nObs = series.Len()
	m.lastLevels = make([]float64, m.Order.D)

	current := series
	for i := 0; i < m.Order.D; i++ {
		m.lastLevels[i] = current.Values[current.Len()-1]
		current = current.Diff()
		if current.Len() == 0 {
			return fmt.Errorf("arima%s: differencing emptied the series: %w", m.Order, errdefs.ErrModelFit)
		}
	}
	m.diffData = current.Values

	if err := m.fitCSS(current); err != nil {
		return fmt.Errorf("arima%s: %w: %w", m.Order, errdefs.ErrModelFit, err)
	}

	m.calculateIC()
	m.fitted = true
	return nil
}

// fitCSS fits the model by Conditional Sum of Squares, starting AR terms from
// Yule-Walker estimates and MA terms from 0.1.
func (m *Model) fitCSS(diffSeries *timeseries.Series) error {
	y := m.diffData
	m.Intercept = 0
	if m.IncludeMean {
		m.Intercept = diffSeries.Mean()
	}

	if m.Order.P == 0 && m.Order.Q == 0 {
		m.residuals = make([]float64, len(y))
		m.fittedVals = make([]float64, len(y))
		sse := 0.0
		for i, v := range y {
			m.residuals[i] = v - m.Intercept
			m.fittedVals[i] = m.Intercept
			sse += m.residuals[i] * m.residuals[i]
		}
		if m.IncludeMean {
			m.Variance = diffSeries.Variance()
		} else {
			m.Variance = sse / float64(len(y))
		}
		return nil
	}

	if m.Order.P > 0 {
		if acf := stats.ACF(diffSeries, m.Order.P); len(acf) > m.Order.P {
			if phi := yuleWalker(acf, m.Order.P); phi != nil {
				copy(m.ARCoeffs, phi)
			}
		}
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}

	m.optimizeCSS(y)

	sse := m.computeResiduals(y)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return errors.New("conditional sum of squares diverged")
	}
	return nil
}

// computeResiduals fills m.residuals and m.fittedVals for the current
// coefficients and returns the sum of squared residuals past the start-up
// window of max(p, q) observations.
func (m *Model) computeResiduals(y []float64) float64 {
	n := len(y)
	p, q := m.Order.P, m.Order.Q
	start := max(p, q)

	if len(m.residuals) != n {
		m.residuals = make([]float64, n)
		m.fittedVals = make([]float64, n)
	}

	sse := 0.0
	for t := 0; t < n; t++ {
		pred := m.Intercept
		if t >= start {
			for i := 0; i < p; i++ {
				pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < q; i++ {
				pred += m.MACoeffs[i] * m.residuals[t-i-1]
			}
		}
		m.fittedVals[t] = pred
		m.residuals[t] = y[t] - pred
		if t >= start {
			sse += m.residuals[t] * m.residuals[t]
		}
	}

	count := n - start
	if count > p+q+1 {
		m.Variance = sse / float64(count-p-q-1)
	} else if count > 0 {
		m.Variance = sse / float64(count)
	}
	return sse
}

// optimizeCSS refines coefficients by gradient descent on the conditional
// sum of squares. AR and MA terms are clamped to (-0.99, 0.99).
func (m *Model) optimizeCSS(y []float64) {
	const (
		maxIter      = 100
		tolerance    = 1e-6
		learningRate = 0.01
	)
	n := len(y)
	p, q := m.Order.P, m.Order.Q
	start := max(p, q)

	prevSSE := m.computeResiduals(y)
	for iter := 0; iter < maxIter; iter++ {
		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		for t := start; t < n; t++ {
			for i := 0; i < p; i++ {
				arGrad[i] -= 2 * m.residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < q; i++ {
				maGrad[i] -= 2 * m.residuals[t] * m.residuals[t-i-1]
			}
		}

		for i := range arGrad {
			m.ARCoeffs[i] = clamp(m.ARCoeffs[i] - learningRate*arGrad[i]/float64(n))
		}
		for i := range maGrad {
			m.MACoeffs[i] = clamp(m.MACoeffs[i] - learningRate*maGrad[i]/float64(n))
		}

		sse := m.computeResiduals(y)
		if math.Abs(prevSSE-sse) < tolerance {
			break
		}
		prevSSE = sse
	}
}

func clamp(v float64) float64 {
	return math.Max(-0.99, math.Min(0.99, v))
}

// calculateIC calculates AIC, AICc, and BIC assuming Gaussian errors.
func (m *Model) calculateIC() {
	n := float64(len(m.residuals))
	k := float64(m.Order.P + m.Order.Q + 1)

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if m.Variance > 0 {
		m.LogLik = -n/2*math.Log(2*math.Pi) - n/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		m.LogLik = math.Inf(-1)
	}

	m.AIC = -2*m.LogLik + 2*k
	if n-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(n-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
	m.BIC = -2*m.LogLik + k*math.Log(n)
}

// Predict generates forecasts for the specified number of steps ahead on the
// original (undifferenced) scale.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, errors.New("model must be fitted before prediction")
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}

	p, q := m.Order.P, m.Order.Q
	y := m.diffData
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Intercept)
		}
		// Future shocks have expectation zero; only observed residuals count.
		for i := 0; i < q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MACoeffs[i] * m.residuals[t-i-1]
		}
		extY[t] = pred
	}

	return m.integrate(extY[n:]), nil
}

// Forecast is Predict under the forecast.Fitted contract.
func (m *Model) Forecast(steps int) ([]float64, error) {
	return m.Predict(steps)
}

// integrate undoes differencing, innermost level first.
func (m *Model) integrate(forecasts []float64) []float64 {
	result := make([]float64, len(forecasts))
	copy(result, forecasts)

	for level := len(m.lastLevels) - 1; level >= 0; level-- {
		prev := m.lastLevels[level]
		for j := range result {
			result[j] += prev
			prev = result[j]
		}
	}
	return result
}

// Residuals returns the model residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// FittedValues returns the in-sample one-step predictions on the
// differenced scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.fittedVals))
	copy(result, m.fittedVals)
	return result
}

// Summary describes a fitted model.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	NObs      int
	LjungBox  *stats.LjungBoxResult // nil when residuals are too few or constant
}

// Summary returns a summary of the fitted model, or nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	return &Summary{
		Order:     m.Order,
		ARCoeffs:  append([]float64(nil), m.ARCoeffs...),
		MACoeffs:  append([]float64(nil), m.MACoeffs...),
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      m.nObs,
		LjungBox:  stats.LjungBox(m.residuals, 10, m.Order.P+m.Order.Q),
	}
}

// yuleWalker estimates AR coefficients from autocorrelations with the
// Levinson-Durbin recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	v := 1 - phi[0]*phi[0]

	for k := 1; k < order; k++ {
		if v <= 0 {
			break
		}
		lambda := acf[k+1]
		for j := 0; j < k; j++ {
			lambda -= phi[j] * acf[k-j]
		}
		lambda /= v

		next := make([]float64, k+1)
		for j := 0; j < k; j++ {
			next[j] = phi[j] - lambda*phi[k-1-j]
		}
		next[k] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}

	return phi
}

// Forecaster adapts ARIMA to the forecast.Model interface.
type Forecaster struct {
	Order Order
	// Drift adds a constant to models with d > 0.
	Drift bool
}

// NewForecaster returns a forecaster for the given order.
func NewForecaster(order Order) *Forecaster {
	return &Forecaster{Order: order}
}

// Name implements forecast.Model.
func (f *Forecaster) Name() string {
	return "ARIMA"
}

// Fit implements forecast.Model. The returned value is a *Model.
func (f *Forecaster) Fit(train *timeseries.Series) (forecast.Fitted, error) {
	model := New(f.Order.P, f.Order.D, f.Order.Q)
	if f.Drift {
		model.IncludeMean = true
	}
	if err := model.Fit(train); err != nil {
		return nil, err
	}
	return model, nil
}
