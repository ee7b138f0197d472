// Package arima implements AutoRegressive Integrated Moving Average (ARIMA) models.
//
// An ARIMA(p,d,q) model combines:
//   - AR(p): AutoRegressive component with p lags
//   - I(d): Integration (differencing) of order d
//   - MA(q): Moving Average component with q lags
//
// # Basic Usage
//
//	model := arima.New(1, 1, 1)
//	if err := model.Fit(train); err != nil {
//	    // errors.Is(err, errdefs.ErrModelFit)
//	}
//	forecasts, _ := model.Predict(len(test.Values))
//
// Forecasts are returned on the original scale; differencing is undone from
// the last observed levels of the training series.
//
// # Pipeline Use
//
// Forecaster adapts a fixed order to the forecast.Model interface:
//
//	var m forecast.Model = arima.NewForecaster(arima.DefaultOrder)
//	fitted, err := m.Fit(train)
//	predictions, err := fitted.Forecast(30)
//
// # Residual Analysis
//
// Summary reports information criteria and a Ljung-Box test on the
// residuals.
package arima
