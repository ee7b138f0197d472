package seasonal

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/salesforecast/errdefs"
	"github.com/sartorproj/salesforecast/forecast"
	"github.com/sartorproj/salesforecast/timeseries"
)

func constantFrame(n int, value float64) Frame {
	values := make([]float64, n)
	for i := range values {
		values[i] = value
	}
	return FrameFromSeries(timeseries.New(values))
}

// weekdayPattern depends only on the day index modulo 7.
var weekdayPattern = []float64{0, 4, 9, 3, -2, -6, -8}

func weeklyFrame(n int) Frame {
	s := timeseries.New(make([]float64, n))
	for i, ts := range s.Timestamps {
		s.Values[i] = 100 + weekdayPattern[dayIndex(ts)%7]
	}
	return FrameFromSeries(s)
}

func dayIndex(ts time.Time) int {
	return int(ts.Unix() / 86400)
}

func TestConstantSeriesForecast(t *testing.T) {
	// Additive fits trend and seasonality jointly, so the weakly penalized
	// yearly terms carry a small share of the level.
	tests := []struct {
		mode  Mode
		delta float64
	}{
		{Additive, 0.05},
		{Multiplicative, 1e-6},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mode = tt.mode

			fitted, err := New(cfg).Fit(constantFrame(80, 10))
			require.NoError(t, err)

			fc, err := fitted.Forecast(20)
			require.NoError(t, err)
			require.Len(t, fc, 20)
			for i, v := range fc {
				assert.InDelta(t, 10, v, tt.delta, "step %d", i)
			}
		})
	}
}

func TestForecastLengthMatchesPeriods(t *testing.T) {
	fitted, err := New(DefaultConfig()).Fit(weeklyFrame(120))
	require.NoError(t, err)

	for _, periods := range []int{1, 7, 30} {
		fc, err := fitted.Forecast(periods)
		require.NoError(t, err)
		assert.Len(t, fc, periods)
	}

	_, err = fitted.Forecast(0)
	assert.Error(t, err)
}

func TestAdditiveRecoversWeeklyPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = Additive
	cfg.YearlySeasonality = false
	cfg.DailySeasonality = false

	train := weeklyFrame(140)
	fitted, err := New(cfg).Fit(train)
	require.NoError(t, err)
	assert.Empty(t, fitted.Warnings)

	pred, err := fitted.Predict(fitted.MakeFutureFrame(14))
	require.NoError(t, err)
	tail := pred.Tail(14)

	for i, ts := range tail.DS {
		want := 100 + weekdayPattern[dayIndex(ts)%7]
		assert.InDelta(t, want, tail.Yhat[i], 0.5, "day %s", ts.Format(time.DateOnly))
	}
	assert.Equal(t, []string{ComponentWeekly}, tail.ComponentNames)
	assert.Len(t, tail.Components[ComponentWeekly], 14)
}

func TestMakeFutureFrame(t *testing.T) {
	train := constantFrame(10, 5)
	fitted, err := New(DefaultConfig()).Fit(train)
	require.NoError(t, err)

	ds := fitted.MakeFutureFrame(3)
	require.Len(t, ds, 13)
	assert.Equal(t, train.DS, ds[:10])
	for i := 10; i < 13; i++ {
		assert.Equal(t, timeseries.Day, ds[i].Sub(ds[i-1]))
	}
}

func TestPredictionTail(t *testing.T) {
	fitted, err := New(DefaultConfig()).Fit(constantFrame(30, 3))
	require.NoError(t, err)

	pred, err := fitted.PredictFuture(5)
	require.NoError(t, err)
	require.Equal(t, 35, pred.Len())

	tail := pred.Tail(5)
	assert.Equal(t, 5, tail.Len())
	assert.Equal(t, pred.DS[30:], tail.DS)
	for _, name := range pred.ComponentNames {
		assert.Len(t, tail.Components[name], 5)
	}

	assert.Equal(t, 35, pred.Tail(100).Len())
}

func TestShortHistoryWarnings(t *testing.T) {
	fitted, err := New(DefaultConfig()).Fit(constantFrame(80, 10))
	require.NoError(t, err)

	joined := strings.Join(fitted.Warnings, "\n")
	assert.Contains(t, joined, "yearly seasonality")
	assert.Contains(t, joined, "daily seasonality")
	assert.NotContains(t, joined, "weekly seasonality")
}

func TestFitErrors(t *testing.T) {
	dup := constantFrame(10, 1)
	dup.DS[5] = dup.DS[4]

	nan := constantFrame(10, 1)
	nan.Y[3] = math.NaN()

	mismatch := constantFrame(10, 1)
	mismatch.Y = mismatch.Y[:9]

	badMode := DefaultConfig()
	badMode.Mode = "exponential"

	tests := []struct {
		name  string
		cfg   Config
		frame Frame
	}{
		{"single observation", DefaultConfig(), constantFrame(1, 1)},
		{"empty", DefaultConfig(), Frame{}},
		{"duplicate timestamps", DefaultConfig(), dup},
		{"non-finite value", DefaultConfig(), nan},
		{"length mismatch", DefaultConfig(), mismatch},
		{"zero trend multiplicative", DefaultConfig(), constantFrame(20, 0)},
		{"unknown mode", badMode, constantFrame(20, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg).Fit(tt.frame)
			require.Error(t, err)
			assert.ErrorIs(t, err, errdefs.ErrModelFit)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("additive")
	require.NoError(t, err)
	assert.Equal(t, Additive, m)

	_, err = ParseMode("Additive")
	assert.Error(t, err)
}

func TestForecasterImplementsModel(t *testing.T) {
	var m forecast.Model = NewForecaster(DefaultConfig())
	assert.Equal(t, "Seasonal", m.Name())

	fitted, err := m.Fit(timeseries.New([]float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}))
	require.NoError(t, err)

	fc, err := fitted.Forecast(4)
	require.NoError(t, err)
	assert.Len(t, fc, 4)
}
