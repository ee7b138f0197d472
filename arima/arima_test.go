package arima

import (
	"errors"
	"math"
	"testing"

	"github.com/sartorproj/salesforecast/errdefs"
	"github.com/sartorproj/salesforecast/forecast"
	"github.com/sartorproj/salesforecast/timeseries"
)

func TestNewARIMA(t *testing.T) {
	model := New(2, 1, 1)

	if model.Order != (Order{P: 2, D: 1, Q: 1}) {
		t.Errorf("Unexpected order %v", model.Order)
	}
	if len(model.ARCoeffs) != 2 || len(model.MACoeffs) != 1 {
		t.Errorf("Unexpected coefficient lengths: AR=%d MA=%d", len(model.ARCoeffs), len(model.MACoeffs))
	}
	if DefaultOrder.String() != "(1,1,1)" {
		t.Errorf("Unexpected default order %s", DefaultOrder)
	}
}

func TestARIMAFitAR1(t *testing.T) {
	n := 200
	phi := 0.7
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		innovation := float64(i%7-3) / 3
		values[i] = phi*(values[i-1]-100) + 100 + innovation
	}

	model := New(1, 0, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit AR(1) model: %v", err)
	}

	t.Logf("True AR coeff: %f, Estimated: %f", phi, model.ARCoeffs[0])
	if model.ARCoeffs[0] <= 0 || model.ARCoeffs[0] >= 0.99 {
		t.Errorf("AR coefficient out of expected range: %f", model.ARCoeffs[0])
	}

	if residuals := model.Residuals(); len(residuals) != n {
		t.Errorf("Expected %d residuals, got %d", n, len(residuals))
	}
}

func TestARIMAPredictLength(t *testing.T) {
	n := 100
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = 100 + float64(i)/10 + float64(i%7-3)/2
	}

	model := New(1, 1, 1)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	for _, steps := range []int{1, 5, 30} {
		forecasts, err := model.Predict(steps)
		if err != nil {
			t.Fatalf("Failed to predict: %v", err)
		}
		if len(forecasts) != steps {
			t.Errorf("Expected %d forecasts, got %d", steps, len(forecasts))
		}
		for i, f := range forecasts {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				t.Errorf("Forecast %d is NaN or Inf", i)
			}
		}
	}
}

func TestARIMAConstantSeries(t *testing.T) {
	values := make([]float64, 80)
	for i := range values {
		values[i] = 10
	}

	model := New(1, 1, 1)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit constant series: %v", err)
	}

	forecasts, err := model.Forecast(20)
	if err != nil {
		t.Fatalf("Failed to forecast: %v", err)
	}
	for i, f := range forecasts {
		if math.Abs(f-10) > 1e-9 {
			t.Errorf("Forecast %d: expected 10, got %f", i, f)
		}
	}
}

func TestARIMALinearTrendIntegration(t *testing.T) {
	// A pure linear trend differences to a constant; ARIMA(0,1,0) with drift
	// must continue the line.
	values := make([]float64, 50)
	for i := range values {
		values[i] = 5 + 2*float64(i)
	}

	model := New(0, 1, 0)
	model.IncludeMean = true
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	forecasts, _ := model.Predict(3)
	for h, f := range forecasts {
		expected := 5 + 2*float64(50+h)
		if math.Abs(f-expected) > 1e-9 {
			t.Errorf("Step %d: expected %f, got %f", h+1, expected, f)
		}
	}
}

func TestARIMASecondDifferenceIntegration(t *testing.T) {
	// y = t^2 has constant second difference 2.
	values := make([]float64, 40)
	for i := range values {
		values[i] = float64(i * i)
	}

	model := New(0, 2, 0)
	model.IncludeMean = true
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	forecasts, _ := model.Predict(3)
	for h, f := range forecasts {
		x := float64(40 + h)
		if math.Abs(f-x*x) > 1e-6 {
			t.Errorf("Step %d: expected %f, got %f", h+1, x*x, f)
		}
	}
}

func TestARIMANoConstantWhenDifferenced(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 5 + 2*float64(i)
	}
	last := values[len(values)-1]

	tests := []struct {
		name         string
		model        *Model
		wantMean     bool
		wantForecast func(h int) float64
	}{
		{"d=0 includes mean", New(0, 0, 0), true, nil},
		{"d=1 random walk", New(0, 1, 0), false, func(int) float64 { return last }},
		{"d=1 with ARMA terms", New(1, 1, 1), false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.model.IncludeMean != tt.wantMean {
				t.Fatalf("IncludeMean = %v, want %v", tt.model.IncludeMean, tt.wantMean)
			}
			if err := tt.model.Fit(timeseries.New(values)); err != nil {
				t.Fatalf("Failed to fit: %v", err)
			}
			if !tt.wantMean && tt.model.Intercept != 0 {
				t.Errorf("Expected zero intercept, got %f", tt.model.Intercept)
			}
			if tt.wantForecast == nil {
				return
			}
			forecasts, _ := tt.model.Predict(5)
			for h, f := range forecasts {
				if math.Abs(f-tt.wantForecast(h)) > 1e-9 {
					t.Errorf("Step %d: expected %f, got %f", h+1, tt.wantForecast(h), f)
				}
			}
		})
	}
}

func TestForecasterDrift(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 5 + 2*float64(i)
	}

	fitted, err := (&Forecaster{Order: Order{P: 0, D: 1, Q: 0}, Drift: true}).Fit(timeseries.New(values))
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	forecasts, _ := fitted.Forecast(2)
	if math.Abs(forecasts[1]-(5+2*51)) > 1e-9 {
		t.Errorf("Expected drift to continue the line, got %v", forecasts)
	}
}

func TestARIMASummary(t *testing.T) {
	n := 100
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = 100 + float64(i%7-3)/2
	}

	model := New(1, 0, 1)
	if model.Summary() != nil {
		t.Error("Summary should be nil before fitting")
	}
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	summary := model.Summary()
	if summary == nil {
		t.Fatal("Summary should not be nil")
	}
	if summary.NObs != n {
		t.Errorf("Expected NObs=%d, got %d", n, summary.NObs)
	}
	t.Logf("Summary - AIC: %f, BIC: %f, LogLik: %f", summary.AIC, summary.BIC, summary.LogLik)
}

func TestARIMAFitErrors(t *testing.T) {
	tests := []struct {
		name   string
		model  *Model
		values []float64
	}{
		{"too short", New(5, 2, 5), []float64{1, 2, 3}},
		{"NaN", New(1, 1, 1), append(make([]float64, 30), math.NaN())},
		{"Inf", New(1, 0, 0), append(make([]float64, 30), math.Inf(-1))},
		{"negative order", New(-1, 0, 0), make([]float64, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Fit(timeseries.New(tt.values))
			if !errors.Is(err, errdefs.ErrModelFit) {
				t.Errorf("Expected ErrModelFit, got %v", err)
			}
		})
	}
}

func TestARIMAPredictErrors(t *testing.T) {
	model := New(1, 0, 0)
	if _, err := model.Predict(5); err == nil {
		t.Error("Expected error predicting with an unfitted model")
	}

	values := make([]float64, 50)
	for i := range values {
		values[i] = float64(i % 5)
	}
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if _, err := model.Predict(0); err == nil {
		t.Error("Expected error for zero steps")
	}
}

func TestYuleWalker(t *testing.T) {
	// ACF of an AR(1) process with phi=0.6.
	acf := []float64{1.0, 0.6, 0.36, 0.216, 0.13}

	coeffs := yuleWalker(acf, 2)
	if len(coeffs) != 2 {
		t.Fatalf("Expected 2 coefficients, got %d", len(coeffs))
	}
	if math.Abs(coeffs[0]-0.6) > 1e-9 || math.Abs(coeffs[1]) > 1e-9 {
		t.Errorf("Expected [0.6 0], got %v", coeffs)
	}
}

func TestForecasterImplementsModel(t *testing.T) {
	var m forecast.Model = NewForecaster(DefaultOrder)
	if m.Name() != "ARIMA" {
		t.Errorf("Unexpected name %q", m.Name())
	}

	values := make([]float64, 60)
	for i := range values {
		values[i] = 20 + float64(i%6)
	}
	fitted, err := m.Fit(timeseries.New(values))
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	out, err := fitted.Forecast(30)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if len(out) != 30 {
		t.Errorf("Expected 30 forecasts, got %d", len(out))
	}

	if _, err := m.Fit(timeseries.New([]float64{1, 2})); !errors.Is(err, errdefs.ErrModelFit) {
		t.Errorf("Expected ErrModelFit, got %v", err)
	}
}

func TestARIMAMultipleOrders(t *testing.T) {
	tests := []struct {
		name    string
		p, d, q int
	}{
		{"AR1", 1, 0, 0},
		{"AR2", 2, 0, 0},
		{"MA1", 0, 0, 1},
		{"ARMA11", 1, 0, 1},
		{"ARIMA110", 1, 1, 0},
		{"ARIMA011", 0, 1, 1},
		{"ARIMA111", 1, 1, 1},
		{"ARIMA212", 2, 1, 2},
	}

	n := 150
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		values[i] = 0.6*(values[i-1]-100) + 100 + float64(i%7-3)/3
	}
	series := timeseries.New(values)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := New(tt.p, tt.d, tt.q)
			if err := model.Fit(series); err != nil {
				t.Fatalf("Model %s failed to fit: %v", tt.name, err)
			}

			forecasts, err := model.Predict(3)
			if err != nil {
				t.Fatalf("Prediction failed: %v", err)
			}
			if len(forecasts) != 3 {
				t.Errorf("Expected 3 forecasts, got %d", len(forecasts))
			}
		})
	}
}
