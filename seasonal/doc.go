// Package seasonal implements a decomposable forecasting model: a
// piecewise-linear trend with changepoints plus yearly, weekly and daily
// Fourier seasonality.
//
// Components combine additively (yhat = trend + seasonal) or
// multiplicatively (yhat = trend * (1 + seasonal)). Coefficients are
// estimated by ridge-penalized least squares on a target scaled by its
// maximum absolute value; the penalties come from the changepoint and
// seasonality prior scales.
//
// # Basic Usage
//
//	m := seasonal.New(seasonal.DefaultConfig())
//	fitted, err := m.Fit(seasonal.FrameFromSeries(train))
//	if err != nil {
//	    // errors.Is(err, errdefs.ErrModelFit)
//	}
//	pred, _ := fitted.Predict(fitted.MakeFutureFrame(30))
//	holdout := pred.Tail(30).Yhat
//
// Fitted.Warnings lists seasonalities the history is too short to identify.
// They are advisory; the model still fits.
package seasonal
