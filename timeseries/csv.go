package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sartorproj/salesforecast/errdefs"
)

// CSVOptions holds options for loading transaction records.
type CSVOptions struct {
	DateColumn     string // Column holding the transaction date (default: "SalesDate")
	QuantityColumn string // Column holding the quantity (default: "SalesQuantity")
	DateFormat     string // Layout tried before the built-in layouts (optional)
	Delimiter      rune   // Field delimiter (default: ',')
	SkipRows       int    // Number of rows to skip before the header
}

// DefaultCSVOptions returns options matching the sales extract layout.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn:     "SalesDate",
		QuantityColumn: "SalesQuantity",
		Delimiter:      ',',
	}
}

// dateLayouts are tried in order after CSVOptions.DateFormat.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006 15:04",
	"02-Jan-2006",
}

// LoadTransactions loads transaction records from a CSV file.
func LoadTransactions(filename string, opts *CSVOptions) ([]Transaction, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", filename, errdefs.ErrIO, err)
	}
	defer file.Close()

	records, err := LoadTransactionsFromReader(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return records, nil
}

// LoadTransactionsFromReader loads transaction records from an io.Reader.
// Blank or NA quantities count as zero, so their date still appears in the
// daily series; any other unparseable field, including the date of such a
// row, fails the whole load with errdefs.ErrDataFormat.
func LoadTransactionsFromReader(r io.Reader, opts *CSVOptions) ([]Transaction, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("skip row %d: %w: %v", i+1, errdefs.ErrDataFormat, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header: %w", errdefs.ErrDataFormat)
		}
		return nil, fmt.Errorf("read header: %w: %v", errdefs.ErrDataFormat, err)
	}

	dateIdx, qtyIdx := -1, -1
	for i, h := range header {
		h = cleanField(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		switch h {
		case opts.DateColumn:
			dateIdx = i
		case opts.QuantityColumn:
			qtyIdx = i
		}
	}
	if dateIdx == -1 {
		return nil, fmt.Errorf("date column %q not found: %w", opts.DateColumn, errdefs.ErrDataFormat)
	}
	if qtyIdx == -1 {
		return nil, fmt.Errorf("quantity column %q not found: %w", opts.QuantityColumn, errdefs.ErrDataFormat)
	}

	var records []Transaction
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %v", row, errdefs.ErrDataFormat, err)
		}
		if dateIdx >= len(record) || qtyIdx >= len(record) {
			return nil, fmt.Errorf("row %d: expected at least %d fields, got %d: %w",
				row, max(dateIdx, qtyIdx)+1, len(record), errdefs.ErrDataFormat)
		}

		date, err := ParseDate(cleanField(record[dateIdx]), opts.DateFormat)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		qty := decimal.Zero
		if qtyStr := cleanField(record[qtyIdx]); !isMissing(qtyStr) {
			qty, err = decimal.NewFromString(qtyStr)
			if err != nil {
				return nil, fmt.Errorf("row %d: quantity %q: %w", row, qtyStr, errdefs.ErrDataFormat)
			}
		}

		records = append(records, Transaction{Date: date, Quantity: qty})
	}

	return records, nil
}

// ParseDate parses value with layout (when set) or one of the common date
// layouts, and normalizes the result to midnight UTC of that calendar date.
func ParseDate(value, layout string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date: %w", errdefs.ErrDataFormat)
	}
	layouts := dateLayouts
	if layout != "" {
		layouts = append([]string{layout}, dateLayouts...)
	}
	for _, l := range layouts {
		if ts, err := time.Parse(l, value); err == nil {
			return NormalizeDate(ts), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q: %w", value, errdefs.ErrDataFormat)
}

// NormalizeDate truncates t to its calendar date at midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cleanField(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\""))
}

func isMissing(s string) bool {
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return true
	}
	return false
}

// SaveCSV writes a daily series as ds,y rows, creating the parent directory.
func SaveCSV(series *Series, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("create %s: %w: %w", filepath.Dir(filename), errdefs.ErrIO, err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", filename, errdefs.ErrIO, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	writer.WriteString("ds,y\n")
	for i, v := range series.Values {
		if i < len(series.Timestamps) {
			writer.WriteString(series.Timestamps[i].Format("2006-01-02"))
		} else {
			writer.WriteString(strconv.Itoa(i + 1))
		}
		writer.WriteString(",")
		writer.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		writer.WriteString("\n")
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("write %s: %w: %w", filename, errdefs.ErrIO, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w: %w", filename, errdefs.ErrIO, err)
	}
	return nil
}
