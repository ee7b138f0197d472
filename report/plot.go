package report

import (
	"fmt"
	"image/color"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/sartorproj/salesforecast/errdefs"
	"github.com/sartorproj/salesforecast/timeseries"
)

// PlotStyle controls the look of every figure a Plotter renders.
type PlotStyle struct {
	Width  vg.Length
	Height vg.Length
	// PanelHeight is the height of each panel in a component figure.
	PanelHeight vg.Length
	LineWidth   vg.Length

	HistoryColor  color.Color
	ActualColor   color.Color
	ForecastColor color.Color
	Grid          bool
	DateFormat    string
}

// DefaultPlotStyle returns a 12x6 inch style with a grid.
func DefaultPlotStyle() PlotStyle {
	return PlotStyle{
		Width:         12 * vg.Inch,
		Height:        6 * vg.Inch,
		PanelHeight:   3 * vg.Inch,
		LineWidth:     vg.Points(1),
		HistoryColor:  color.RGBA{R: 31, G: 119, B: 180, A: 255},
		ActualColor:   color.RGBA{R: 44, G: 160, B: 44, A: 255},
		ForecastColor: color.RGBA{R: 214, G: 39, B: 40, A: 255},
		Grid:          true,
		DateFormat:    time.DateOnly,
	}
}

// Plotter renders PNG figures with a fixed style.
type Plotter struct {
	style PlotStyle
}

// NewPlotter creates a plotter.
func NewPlotter(style PlotStyle) *Plotter {
	return &Plotter{style: style}
}

// Style returns the plotter's style.
func (p *Plotter) Style() PlotStyle {
	return p.style
}

// PlotForecast draws history, the optional actual holdout and the forecast.
// Forecast values are placed on the days following the last history date.
func (p *Plotter) PlotForecast(path, title string, history, actual *timeseries.Series, forecast []float64) error {
	if history == nil || history.Len() == 0 {
		return fmt.Errorf("report: plot %s: empty history", path)
	}

	pl := p.newPlot(title, "Date", "Sales Quantity")

	if err := p.addLine(pl, "Historical", seriesXYs(history.Timestamps, history.Values), p.style.HistoryColor); err != nil {
		return err
	}
	if actual != nil && actual.Len() > 0 {
		if err := p.addLine(pl, "Actual", seriesXYs(actual.Timestamps, actual.Values), p.style.ActualColor); err != nil {
			return err
		}
	}

	if len(forecast) > 0 {
		last := history.LastTimestamp()
		dates := make([]time.Time, len(forecast))
		for i := range forecast {
			dates[i] = last.Add(time.Duration(i+1) * timeseries.Day)
		}
		if err := p.addLine(pl, "Forecast", seriesXYs(dates, forecast), p.style.ForecastColor); err != nil {
			return err
		}
	}

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := pl.Save(p.style.Width, p.style.Height, path); err != nil {
		return fmt.Errorf("report: save %s: %w: %w", path, errdefs.ErrIO, err)
	}
	return nil
}

// Panel is one named curve in a component figure.
type Panel struct {
	Name   string
	Values []float64
}

// PlotComponents stacks one panel per component, sharing the date axis.
func (p *Plotter) PlotComponents(path string, ds []time.Time, panels []Panel) error {
	if len(panels) == 0 {
		return fmt.Errorf("report: plot %s: no components", path)
	}

	plots := make([][]*plot.Plot, len(panels))
	for i, panel := range panels {
		pl := p.newPlot("", "Date", panel.Name)
		if err := p.addLine(pl, "", seriesXYs(ds, panel.Values), p.style.HistoryColor); err != nil {
			return fmt.Errorf("report: component %s: %w", panel.Name, err)
		}
		plots[i] = []*plot.Plot{pl}
	}

	img := vgimg.New(p.style.Width, p.style.PanelHeight*vg.Length(len(panels)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(panels),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter * 2,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w: %w", path, errdefs.ErrIO, err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("report: write %s: %w: %w", path, errdefs.ErrIO, err)
	}
	return f.Close()
}

func (p *Plotter) newPlot(title, xLabel, yLabel string) *plot.Plot {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = xLabel
	pl.Y.Label.Text = yLabel
	pl.X.Tick.Marker = plot.TimeTicks{Format: p.style.DateFormat}
	pl.Legend.Top = true
	if p.style.Grid {
		pl.Add(plotter.NewGrid())
	}
	return pl
}

func (p *Plotter) addLine(pl *plot.Plot, label string, xys plotter.XYs, c color.Color) error {
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("report: line %q: %w", label, err)
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = p.style.LineWidth
	pl.Add(line)
	if label != "" {
		pl.Legend.Add(label, line)
	}
	return nil
}

// seriesXYs pairs timestamps (as Unix seconds) with values.
func seriesXYs(ds []time.Time, values []float64) plotter.XYs {
	n := min(len(ds), len(values))
	xys := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		xys[i].X = float64(ds[i].Unix())
		xys[i].Y = values[i]
	}
	return xys
}
