// Package eda summarizes raw CSV extracts: shape, missing values per column
// and descriptive statistics for numeric columns.
package eda

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/salesforecast/errdefs"
)

// Column describes one CSV column.
type Column struct {
	Name    string
	Missing int
	// Numeric is set when every non-missing value parses as a number.
	Numeric bool

	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Summary describes one dataset.
type Summary struct {
	Name    string
	Rows    int
	Columns []Column
}

// Shape returns (rows, columns).
func (s *Summary) Shape() (int, int) {
	return s.Rows, len(s.Columns)
}

// Numeric returns the numeric columns in file order.
func (s *Summary) Numeric() []Column {
	var out []Column
	for _, c := range s.Columns {
		if c.Numeric {
			out = append(out, c)
		}
	}
	return out
}

// DescribeFile summarizes the CSV file at path.
func DescribeFile(path, name string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("eda: open %s: %w: %w", path, errdefs.ErrIO, err)
	}
	defer f.Close()
	return Describe(bufio.NewReader(f), name)
}

// Describe summarizes CSV data read from r. The first record is the header.
func Describe(r io.Reader, name string) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("eda: %s: %w: missing header", name, errdefs.ErrDataFormat)
		}
		return nil, fmt.Errorf("eda: %s: %w: %w", name, errdefs.ErrDataFormat, err)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols := make([]Column, len(header))
	values := make([][]float64, len(header))
	for i, h := range header {
		cols[i] = Column{Name: strings.TrimSpace(h), Numeric: true}
	}

	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("eda: %s row %d: %w: %w", name, rows+2, errdefs.ErrDataFormat, err)
		}
		rows++

		for i := range cols {
			if i >= len(record) || isMissing(record[i]) {
				cols[i].Missing++
				continue
			}
			if !cols[i].Numeric {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil || math.IsNaN(v) {
				cols[i].Numeric = false
				values[i] = nil
				continue
			}
			values[i] = append(values[i], v)
		}
	}

	for i := range cols {
		if len(values[i]) == 0 {
			cols[i].Numeric = false
			continue
		}
		describe(&cols[i], values[i])
	}

	return &Summary{Name: name, Rows: rows, Columns: cols}, nil
}

func isMissing(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "NaN", "nan", "null", "NULL":
		return true
	}
	return false
}

func describe(c *Column, x []float64) {
	sort.Float64s(x)
	c.Count = len(x)
	c.Mean, c.Std = stat.MeanStdDev(x, nil)
	if c.Count < 2 {
		c.Std = math.NaN()
	}
	c.Min = floats.Min(x)
	c.Max = floats.Max(x)
	c.Q25 = stat.Quantile(0.25, stat.LinInterp, x, nil)
	c.Q50 = stat.Quantile(0.5, stat.LinInterp, x, nil)
	c.Q75 = stat.Quantile(0.75, stat.LinInterp, x, nil)
}

// WriteTo renders the summary as aligned text tables.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	rows, cols := s.Shape()
	fmt.Fprintf(cw, "%s Data Shape: (%d, %d)\n", s.Name, rows, cols)

	if numeric := s.Numeric(); len(numeric) > 0 {
		fmt.Fprintf(cw, "\nBasic Statistics:\n")
		tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprint(tw, "\t")
		for _, c := range numeric {
			fmt.Fprintf(tw, "%s\t", c.Name)
		}
		fmt.Fprintln(tw)

		stats := []struct {
			label string
			get   func(Column) float64
		}{
			{"count", func(c Column) float64 { return float64(c.Count) }},
			{"mean", func(c Column) float64 { return c.Mean }},
			{"std", func(c Column) float64 { return c.Std }},
			{"min", func(c Column) float64 { return c.Min }},
			{"25%", func(c Column) float64 { return c.Q25 }},
			{"50%", func(c Column) float64 { return c.Q50 }},
			{"75%", func(c Column) float64 { return c.Q75 }},
			{"max", func(c Column) float64 { return c.Max }},
		}
		for _, st := range stats {
			fmt.Fprintf(tw, "%s\t", st.label)
			for _, c := range numeric {
				fmt.Fprintf(tw, "%.6g\t", st.get(c))
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return cw.n, err
		}
	}

	fmt.Fprintf(cw, "\nMissing Values:\n")
	tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', 0)
	for _, c := range s.Columns {
		fmt.Fprintf(tw, "%s\t%d\n", c.Name, c.Missing)
	}
	if err := tw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, cw.err
}

// countingWriter tracks bytes written and keeps the first error.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
