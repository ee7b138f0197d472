// Package stats provides the statistical diagnostics used around the
// forecasting models.
//
// # Stationarity
//
// CheckStationarity runs the Augmented Dickey-Fuller test and reports the
// verdict (p < 0.05 means stationary) together with KPSS and a suggested
// differencing order:
//
//	report, err := stats.CheckStationarity(daily)
//	fmt.Printf("ADF: stat=%.4f, p=%.4f, stationary=%v\n",
//	    report.ADF.Statistic, report.ADF.PValue, report.Stationary)
//
// The report is informational. Model orders are configured independently.
//
// # Residual Diagnostics
//
//	lb := stats.LjungBox(model.Residuals(), 10, p+q)
//	if lb != nil && lb.WhiteNoise() {
//	    // no remaining autocorrelation
//	}
package stats
