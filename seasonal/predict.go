package seasonal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sartorproj/salesforecast/timeseries"
)

// Prediction holds per-timestamp model output and its decomposition.
// In multiplicative mode component values are relative to the trend.
type Prediction struct {
	DS             []time.Time
	Yhat           []float64
	Trend          []float64
	Components     map[string][]float64
	ComponentNames []string
}

// Len returns the number of rows.
func (p *Prediction) Len() int {
	return len(p.DS)
}

// Tail returns the last n rows. n larger than the prediction returns all rows.
func (p *Prediction) Tail(n int) *Prediction {
	n = max(0, min(n, p.Len()))
	from := p.Len() - n
	out := &Prediction{
		DS:             p.DS[from:],
		Yhat:           p.Yhat[from:],
		Trend:          p.Trend[from:],
		Components:     make(map[string][]float64, len(p.Components)),
		ComponentNames: p.ComponentNames,
	}
	for name, vals := range p.Components {
		out.Components[name] = vals[from:]
	}
	return out
}

// History returns a copy of the training frame.
func (f *Fitted) History() Frame {
	return Frame{
		DS: append([]time.Time(nil), f.history.DS...),
		Y:  append([]float64(nil), f.history.Y...),
	}
}

// ComponentNames lists the fitted seasonal components in plotting order.
func (f *Fitted) ComponentNames() []string {
	names := make([]string, len(f.blocks))
	for i, b := range f.blocks {
		names[i] = b.name
	}
	return names
}

// MakeFutureFrame returns the training timestamps followed by periods daily
// steps beyond the last observed date.
func (f *Fitted) MakeFutureFrame(periods int) []time.Time {
	periods = max(periods, 0)
	hist := f.history.DS
	out := make([]time.Time, 0, len(hist)+periods)
	out = append(out, hist...)
	last := hist[len(hist)-1]
	for i := 1; i <= periods; i++ {
		out = append(out, last.Add(time.Duration(i)*timeseries.Day))
	}
	return out
}

// Predict evaluates the model at the given timestamps.
func (f *Fitted) Predict(ds []time.Time) (*Prediction, error) {
	if f == nil || f.trendCoef == nil {
		return nil, errors.New("seasonal: model not fitted")
	}

	n := len(ds)
	p := &Prediction{
		DS:             append([]time.Time(nil), ds...),
		Yhat:           make([]float64, n),
		Trend:          make([]float64, n),
		Components:     make(map[string][]float64, len(f.blocks)),
		ComponentNames: f.ComponentNames(),
	}
	for _, b := range f.blocks {
		p.Components[b.name] = make([]float64, n)
	}

	multiplicative := f.Config.Mode == Multiplicative
	for i, ts := range ds {
		trend := f.trendAt(f.scaledTime(ts)) * f.yScale
		d := days(ts)

		seasonal := 0.0
		for bi, b := range f.blocks {
			v := 0.0
			for j, x := range fourier(d, b.period, b.order) {
				v += f.seasonalCoef[bi][j] * x
			}
			if !multiplicative {
				v *= f.yScale
			}
			p.Components[b.name][i] = v
			seasonal += v
		}

		p.Trend[i] = trend
		if multiplicative {
			p.Yhat[i] = trend * (1 + seasonal)
		} else {
			p.Yhat[i] = trend + seasonal
		}
		if math.IsNaN(p.Yhat[i]) || math.IsInf(p.Yhat[i], 0) {
			return nil, fmt.Errorf("seasonal: non-finite prediction at %s", ts.Format(time.DateOnly))
		}
	}
	return p, nil
}

// PredictFuture predicts over the history extended by periods days.
func (f *Fitted) PredictFuture(periods int) (*Prediction, error) {
	return f.Predict(f.MakeFutureFrame(periods))
}

// Forecast returns the trailing periods yhat values of the extended
// horizon, aligned with the days immediately after the training data.
func (f *Fitted) Forecast(periods int) ([]float64, error) {
	if periods < 1 {
		return nil, fmt.Errorf("seasonal: periods must be positive, got %d", periods)
	}
	pred, err := f.PredictFuture(periods)
	if err != nil {
		return nil, err
	}
	return pred.Tail(periods).Yhat, nil
}
