// Package report writes the forecasting artifacts: per-model metrics files,
// the model comparison report and PNG plots.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sartorproj/salesforecast/errdefs"
	"github.com/sartorproj/salesforecast/metrics"
)

// StaticRecommendation closes every comparison report. It is fixed text and
// does not reflect any comparison of the metrics above it.
const StaticRecommendation = "Based on the metrics, the model with lower MAE and RMSE, " +
	"and higher R2 score is recommended for forecasting.\n"

// Section is an extra titled block appended to a metrics file.
type Section struct {
	Title string
	Lines []string
}

// FormatMetrics renders a metrics bundle and optional sections.
func FormatMetrics(title string, b metrics.Bundle, extras ...Section) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Evaluation Metrics:\n", title)
	for _, e := range b.Entries() {
		fmt.Fprintf(&sb, "%s: %.4f\n", e.Name, e.Value)
	}
	for _, s := range extras {
		fmt.Fprintf(&sb, "\n%s:\n", s.Title)
		for _, line := range s.Lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// WriteMetrics writes FormatMetrics output to path, creating its directory.
func WriteMetrics(path, title string, b metrics.Bundle, extras ...Section) error {
	return writeFile(path, []byte(FormatMetrics(title, b, extras...)))
}

// ModelMetrics identifies one model's entry in the comparison report.
// Err records a failure of the model's run. A model that failed after its
// metrics file was written keeps MetricsPath and is reported with its
// metrics plus the failure.
type ModelMetrics struct {
	Name        string
	MetricsPath string
	Err         error
}

// WriteComparison concatenates each model's metrics file verbatim, noting
// models whose metrics are unavailable, and appends StaticRecommendation.
func WriteComparison(path string, models []ModelMetrics) error {
	var buf bytes.Buffer
	buf.WriteString("Model Comparison Report\n")
	buf.WriteString("=====================\n")

	for _, m := range models {
		fmt.Fprintf(&buf, "\n%s Model Metrics:\n", m.Name)

		reason := m.Err
		if m.MetricsPath != "" {
			data, err := os.ReadFile(m.MetricsPath)
			if err == nil {
				buf.Write(data)
				if m.Err != nil {
					fmt.Fprintf(&buf, "Note: %v\n", m.Err)
				}
				continue
			}
			if reason == nil {
				reason = err
			}
		}
		if reason == nil {
			reason = errors.New("no metrics file")
		}
		fmt.Fprintf(&buf, "Metrics unavailable: %v\n", reason)
	}

	buf.WriteString("\nRecommendation:\n")
	buf.WriteString(StaticRecommendation)

	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w: %w", path, errdefs.ErrIO, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: create %s: %w: %w", dir, errdefs.ErrIO, err)
	}
	return nil
}
