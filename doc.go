// Package salesforecast forecasts daily retail sales quantities and compares
// two forecasting approaches on a holdout period.
//
// Raw sales transactions are aggregated into a daily series, checked for
// stationarity and split 80/20 into train and test. An ARIMA model and a
// decomposable trend/seasonality model are fitted to the training prefix,
// forecast the test horizon and are scored with MAE, RMSE and R². Metrics,
// plots and a comparison report are written to the output directory.
//
// # Quick Start
//
//	series, _ := timeseries.PrepareDaily("datasets/SalesFINAL12312016.csv", timeseries.DefaultCSVOptions())
//	train, test := series.Split(0.8)
//
//	var m forecast.Model = arima.NewForecaster(arima.DefaultOrder)
//	fitted, _ := m.Fit(train)
//	predicted, _ := fitted.Forecast(test.Len())
//	bundle, _ := metrics.Evaluate(test.Values, predicted)
//
// The salesforecast command runs the full workflow with configuration from
// salesforecast.yaml and SALESFORECAST_* environment variables; the eda
// command summarizes the raw extracts.
//
// # Packages
//
//   - timeseries: transaction loading, daily aggregation and the Series type
//   - stats: ADF and KPSS stationarity tests, ACF, Ljung-Box
//   - arima: ARIMA(p,d,q) models
//   - seasonal: piecewise-linear trend with Fourier seasonality
//   - forecast: the interface both models implement
//   - metrics: forecast accuracy
//   - report: metrics files, comparison report and plots
//   - pipeline: the end-to-end run
//   - eda: descriptive summaries of CSV extracts
//   - config: startup configuration
//   - errdefs: error taxonomy
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Taylor, S.J., & Letham, B. (2018). Forecasting at scale. The American Statistician
package salesforecast
