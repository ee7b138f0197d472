package seasonal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/salesforecast/errdefs"
	"github.com/sartorproj/salesforecast/forecast"
	"github.com/sartorproj/salesforecast/timeseries"
)

const (
	// noiseVariance converts prior scales into ridge penalties on the
	// max-abs scaled target: lambda = noiseVariance / scale^2.
	noiseVariance = 0.01

	// unpenalized is the penalty applied to intercept and base slope.
	unpenalized = 1e-8

	secondsPerDay = 86400.0
)

// Frame is the two-column training input: timestamps and target values.
type Frame struct {
	DS []time.Time
	Y  []float64
}

// FrameFromSeries builds a frame from a daily series.
func FrameFromSeries(s *timeseries.Series) Frame {
	return Frame{
		DS: append([]time.Time(nil), s.Timestamps...),
		Y:  append([]float64(nil), s.Values...),
	}
}

// Len returns the number of rows.
func (f Frame) Len() int {
	return len(f.Y)
}

// Model is an unfitted decomposable model.
type Model struct {
	Config Config
}

// New creates a model with the given configuration.
func New(cfg Config) *Model {
	return &Model{Config: cfg}
}

// Fitted holds the estimated trend and seasonal coefficients.
type Fitted struct {
	Config   Config
	Warnings []string

	history      Frame
	start        float64 // first timestamp, in days since the Unix epoch
	span         float64 // history span in days, used to scale trend time
	yScale       float64
	changepoints []float64 // scaled time
	trendCoef    []float64 // intercept, slope, changepoint deltas
	blocks       []seasonality
	seasonalCoef [][]float64 // per block: sin_1, cos_1, ..., sin_K, cos_K
}

// Fit estimates the model on frame. Failures wrap errdefs.ErrModelFit.
// Conditions that only weaken the fit, such as less than two years of
// history with yearly seasonality, are recorded in Fitted.Warnings.
func (m *Model) Fit(frame Frame) (*Fitted, error) {
	cfg := m.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("seasonal: %w: %w", errdefs.ErrModelFit, err)
	}
	if err := validateFrame(frame); err != nil {
		return nil, fmt.Errorf("seasonal: %w: %w", errdefs.ErrModelFit, err)
	}

	n := frame.Len()
	f := &Fitted{
		Config:  cfg,
		history: frame,
		start:   days(frame.DS[0]),
		blocks:  cfg.seasonalities(),
	}
	f.span = days(frame.DS[n-1]) - f.start
	f.Warnings = historyWarnings(frame, f.span, f.blocks)

	f.yScale = 0
	for _, v := range frame.Y {
		f.yScale = math.Max(f.yScale, math.Abs(v))
	}
	if f.yScale == 0 {
		f.yScale = 1
	}
	y := make([]float64, n)
	for i, v := range frame.Y {
		y[i] = v / f.yScale
	}

	t := make([]float64, n)
	for i, ds := range frame.DS {
		t[i] = f.scaledTime(ds)
	}
	f.changepoints = placeChangepoints(t, cfg.Changepoints, cfg.ChangepointRange)

	trendX, trendPenalty := f.trendDesign(t)
	seasonX, seasonPenalty := f.seasonalDesign(frame.DS)

	var err error
	switch cfg.Mode {
	case Additive:
		x := hstack(trendX, seasonX)
		beta, solveErr := ridge(x, y, append(trendPenalty, seasonPenalty...))
		if solveErr != nil {
			err = solveErr
			break
		}
		nt := len(trendPenalty)
		f.trendCoef = beta[:nt]
		f.seasonalCoef = f.splitSeasonal(beta[nt:])

	case Multiplicative:
		f.trendCoef, err = ridge(trendX, y, trendPenalty)
		if err != nil {
			break
		}
		ratio := make([]float64, n)
		for i := range y {
			trend := f.trendAt(t[i])
			if math.Abs(trend) < 1e-8 {
				err = errors.New("multiplicative seasonality requires a non-zero trend")
				break
			}
			ratio[i] = y[i]/trend - 1
		}
		if err != nil {
			break
		}
		var beta []float64
		beta, err = ridge(seasonX, ratio, seasonPenalty)
		if err == nil {
			f.seasonalCoef = f.splitSeasonal(beta)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("seasonal: %w: %w", errdefs.ErrModelFit, err)
	}

	return f, nil
}

func validateFrame(frame Frame) error {
	if len(frame.DS) != len(frame.Y) {
		return fmt.Errorf("frame has %d timestamps and %d values", len(frame.DS), len(frame.Y))
	}
	if frame.Len() < 2 {
		return fmt.Errorf("need at least 2 observations, got %d", frame.Len())
	}
	for i, v := range frame.Y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value at row %d", i)
		}
		if i > 0 && !frame.DS[i].After(frame.DS[i-1]) {
			return fmt.Errorf("timestamps must be strictly increasing (row %d)", i)
		}
	}
	return nil
}

func historyWarnings(frame Frame, span float64, blocks []seasonality) []string {
	var warnings []string
	subDaily := false
	for _, ds := range frame.DS {
		if !ds.Equal(timeseries.NormalizeDate(ds)) {
			subDaily = true
			break
		}
	}
	for _, b := range blocks {
		switch {
		case b.name == ComponentDaily && !subDaily:
			warnings = append(warnings, "daily seasonality requested on data without sub-daily timestamps; component is not identifiable")
		case span < 2*b.period:
			warnings = append(warnings, fmt.Sprintf("%s seasonality: history spans %.0f days, less than two full cycles (%.0f days)",
				b.name, span, 2*b.period))
		}
	}
	return warnings
}

// days converts a timestamp to fractional days since the Unix epoch.
func days(ts time.Time) float64 {
	return float64(ts.Unix()) / secondsPerDay
}

func (f *Fitted) scaledTime(ts time.Time) float64 {
	if f.span <= 0 {
		return 0
	}
	return (days(ts) - f.start) / f.span
}

// placeChangepoints spreads up to count changepoints over the first
// rangeFrac of the scaled history times, excluding the first point.
func placeChangepoints(t []float64, count int, rangeFrac float64) []float64 {
	histRange := int(math.Floor(float64(len(t)) * rangeFrac))
	count = min(count, histRange-1)
	if count <= 0 {
		return nil
	}
	cps := make([]float64, count)
	for j := 1; j <= count; j++ {
		idx := int(math.Round(float64(j) * float64(histRange-1) / float64(count)))
		cps[j-1] = t[idx]
	}
	return cps
}

func (f *Fitted) trendDesign(t []float64) (*mat.Dense, []float64) {
	k := 2 + len(f.changepoints)
	x := mat.NewDense(len(t), k, nil)
	for i, ti := range t {
		x.Set(i, 0, 1)
		x.Set(i, 1, ti)
		for j, cp := range f.changepoints {
			x.Set(i, 2+j, math.Max(0, ti-cp))
		}
	}

	penalty := make([]float64, k)
	penalty[0], penalty[1] = unpenalized, unpenalized
	cpPenalty := noiseVariance / (f.Config.ChangepointPriorScale * f.Config.ChangepointPriorScale)
	for j := 2; j < k; j++ {
		penalty[j] = cpPenalty
	}
	return x, penalty
}

func (f *Fitted) seasonalDesign(ds []time.Time) (*mat.Dense, []float64) {
	k := 0
	for _, b := range f.blocks {
		k += 2 * b.order
	}
	if k == 0 {
		return nil, nil
	}

	x := mat.NewDense(len(ds), k, nil)
	for i, ts := range ds {
		col := 0
		for _, b := range f.blocks {
			for _, v := range fourier(days(ts), b.period, b.order) {
				x.Set(i, col, v)
				col++
			}
		}
	}

	penalty := make([]float64, k)
	sp := noiseVariance / (f.Config.SeasonalityPriorScale * f.Config.SeasonalityPriorScale)
	for j := range penalty {
		penalty[j] = sp
	}
	return x, penalty
}

// fourier returns sin/cos pairs for harmonics 1..order of the given period.
func fourier(t, period float64, order int) []float64 {
	out := make([]float64, 0, 2*order)
	for h := 1; h <= order; h++ {
		angle := 2 * math.Pi * float64(h) * t / period
		out = append(out, math.Sin(angle), math.Cos(angle))
	}
	return out
}

func (f *Fitted) splitSeasonal(beta []float64) [][]float64 {
	out := make([][]float64, len(f.blocks))
	offset := 0
	for i, b := range f.blocks {
		out[i] = beta[offset : offset+2*b.order]
		offset += 2 * b.order
	}
	return out
}

// trendAt evaluates the scaled trend at scaled time t.
func (f *Fitted) trendAt(t float64) float64 {
	v := f.trendCoef[0] + f.trendCoef[1]*t
	for j, cp := range f.changepoints {
		v += f.trendCoef[2+j] * math.Max(0, t-cp)
	}
	return v
}

// hstack joins two design matrices column-wise; b may be nil.
func hstack(a, b *mat.Dense) *mat.Dense {
	if b == nil {
		return a
	}
	ra, ca := a.Dims()
	_, cb := b.Dims()
	out := mat.NewDense(ra, ca+cb, nil)
	out.Slice(0, ra, 0, ca).(*mat.Dense).Copy(a)
	out.Slice(0, ra, ca, ca+cb).(*mat.Dense).Copy(b)
	return out
}

// ridge solves (X'X + diag(penalty)) beta = X'y by Cholesky factorization.
func ridge(x *mat.Dense, y []float64, penalty []float64) ([]float64, error) {
	if x == nil {
		return nil, nil
	}
	n, k := x.Dims()

	a := mat.NewSymDense(k, nil)
	a.SymOuterK(1, x.T())
	for i := 0; i < k; i++ {
		a.SetSym(i, i, a.At(i, i)+penalty[i])
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(n, y))

	var chol mat.Cholesky
	if !chol.Factorize(a) {
		return nil, errors.New("normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}

	out := make([]float64, k)
	for i := range out {
		out[i] = beta.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, errors.New("solution is not finite")
		}
	}
	return out, nil
}

// Forecaster adapts the model to the forecast.Model interface.
type Forecaster struct {
	Config Config
}

// NewForecaster returns a forecaster with the given configuration.
func NewForecaster(cfg Config) *Forecaster {
	return &Forecaster{Config: cfg}
}

// Name implements forecast.Model.
func (f *Forecaster) Name() string {
	return "Seasonal"
}

// Fit implements forecast.Model. The returned value is a *Fitted.
func (f *Forecaster) Fit(train *timeseries.Series) (forecast.Fitted, error) {
	fitted, err := New(f.Config).Fit(FrameFromSeries(train))
	if err != nil {
		return nil, err
	}
	return fitted, nil
}
