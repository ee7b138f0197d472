// Package timeseries provides the daily series type and the data preparation
// that turns transaction-level sales records into it.
//
// # Preparing a Daily Series
//
// Load transactions and aggregate them by calendar date:
//
//	series, err := timeseries.PrepareDaily("datasets/SalesFINAL12312016.csv", nil)
//	if errors.Is(err, errdefs.ErrDataFormat) {
//	    // a date or quantity field could not be parsed
//	}
//
// Or in two steps, when the records are needed as well:
//
//	txs, err := timeseries.LoadTransactions(path, timeseries.DefaultCSVOptions())
//	series, err := timeseries.Aggregate(txs)
//
// Quantities are summed with decimal arithmetic, so the daily totals add up
// to exactly the input total. Dates are normalized to midnight UTC, unique,
// and sorted ascending.
//
// # Train/Test Split
//
// Split keeps temporal order; the training prefix holds floor(ratio*n) days:
//
//	train, test := series.Split(0.8)
//
// # CSV Options
//
//	opts := &timeseries.CSVOptions{
//	    DateColumn:     "SalesDate",
//	    QuantityColumn: "SalesQuantity",
//	    DateFormat:     "1/2/2006",
//	}
package timeseries
