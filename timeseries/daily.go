package timeseries

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sartorproj/salesforecast/errdefs"
)

// Transaction is a single sales record. Many transactions share a date.
type Transaction struct {
	Date     time.Time
	Quantity decimal.Decimal
}

// Aggregate sums quantities per calendar date and returns the daily series
// sorted ascending by date. Sums are exact; each day is converted to float64
// once.
func Aggregate(transactions []Transaction) (*Series, error) {
	if len(transactions) == 0 {
		return nil, fmt.Errorf("no transactions to aggregate: %w", errdefs.ErrDataFormat)
	}

	totals := make(map[time.Time]decimal.Decimal)
	for _, tx := range transactions {
		day := NormalizeDate(tx.Date)
		totals[day] = totals[day].Add(tx.Quantity)
	}

	days := make([]time.Time, 0, len(totals))
	for day := range totals {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	values := make([]float64, len(days))
	for i, day := range days {
		values[i] = totals[day].InexactFloat64()
	}

	return &Series{
		Timestamps: days,
		Values:     values,
		Name:       "quantity",
	}, nil
}

// TotalQuantity returns the exact sum of all transaction quantities.
func TotalQuantity(transactions []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		total = total.Add(tx.Quantity)
	}
	return total
}

// PrepareDaily loads a transaction CSV and aggregates it into a daily series.
func PrepareDaily(filename string, opts *CSVOptions) (*Series, error) {
	transactions, err := LoadTransactions(filename, opts)
	if err != nil {
		return nil, err
	}
	series, err := Aggregate(transactions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if opts != nil && opts.QuantityColumn != "" {
		series.Name = opts.QuantityColumn
	}
	return series, nil
}
