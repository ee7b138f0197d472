// Package pipeline runs the forecasting workflow: prepare the daily series,
// check stationarity, then fit, forecast, evaluate and report each model on
// a shared train/test split.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/plot/vg"

	"github.com/sartorproj/salesforecast/arima"
	"github.com/sartorproj/salesforecast/config"
	"github.com/sartorproj/salesforecast/errdefs"
	"github.com/sartorproj/salesforecast/forecast"
	"github.com/sartorproj/salesforecast/metrics"
	"github.com/sartorproj/salesforecast/report"
	"github.com/sartorproj/salesforecast/seasonal"
	"github.com/sartorproj/salesforecast/stats"
	"github.com/sartorproj/salesforecast/timeseries"
)

// File names written under the output directory.
const (
	DailySeriesFile = "daily_sales.csv"
	ComparisonFile  = "model_comparison.txt"
)

// Pipeline runs one forecasting pass over the configured sales extract.
type Pipeline struct {
	cfg     config.Config
	logger  zerolog.Logger
	models  []forecast.Model
	plotter *report.Plotter
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithModels replaces the configured models.
func WithModels(models ...forecast.Model) Option {
	return func(p *Pipeline) {
		p.models = models
	}
}

// New creates a pipeline. By default it runs ARIMA and the seasonal model
// with the orders and settings from cfg.
func New(cfg config.Config, logger zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: logger,
		models: []forecast.Model{
			&arima.Forecaster{Order: cfg.ARIMA, Drift: cfg.ARIMADrift},
			seasonal.NewForecaster(cfg.Seasonal),
		},
		plotter: report.NewPlotter(PlotStyle(cfg.Plot)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlotStyle converts plot settings into a report style.
func PlotStyle(pc config.PlotConfig) report.PlotStyle {
	style := report.DefaultPlotStyle()
	style.Width = vg.Length(pc.WidthInches) * vg.Inch
	style.Height = vg.Length(pc.HeightInches) * vg.Inch
	style.PanelHeight = vg.Length(pc.PanelHeightInches) * vg.Inch
	style.Grid = pc.Grid
	return style
}

// ModelResult is the outcome for one model. Err is set when any of the
// model's stages failed; fields after the failing stage are zero.
// MetricsPath is set once the metrics file is written, even if plotting
// fails afterwards.
type ModelResult struct {
	Name        string
	Forecast    []float64
	Metrics     metrics.Bundle
	MetricsPath string
	Warnings    []string
	Err         error
}

// Result collects everything a run produced.
type Result struct {
	RunID          string
	Series         *timeseries.Series
	Train          *timeseries.Series
	Test           *timeseries.Series
	Stationarity   *stats.StationarityReport // nil when the check failed
	Models         []ModelResult
	ComparisonPath string
}

// Model returns the result for the named model, or nil.
func (r *Result) Model(name string) *ModelResult {
	for i := range r.Models {
		if r.Models[i].Name == name {
			return &r.Models[i]
		}
	}
	return nil
}

// Run executes the pipeline. A preparation failure aborts the run. A model
// failure stops only that model; the comparison report is still written and
// Run returns the model failures joined. The context is checked between
// stages.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	log := p.logger.With().Str("run_id", result.RunID).Logger()

	log.Info().Str("input", p.cfg.SalesPath).Msg("Preparing daily series")
	if err := p.prepare(result); err != nil {
		return result, &StageError{Stage: StagePreparation, Err: err}
	}
	log.Info().
		Int("days", result.Series.Len()).
		Int("train", result.Train.Len()).
		Int("test", result.Test.Len()).
		Msg("Daily series ready")

	if err := ctx.Err(); err != nil {
		return result, &StageError{Stage: StageStationarity, Err: err}
	}
	p.checkStationarity(log, result)

	var modelErrs []error
	for _, m := range p.models {
		if err := ctx.Err(); err != nil {
			return result, &StageError{Model: m.Name(), Stage: StageFitting, Err: err}
		}
		mr := p.runModel(ctx, log, m, result.Train, result.Test)
		if mr.Err != nil {
			log.Error().Err(mr.Err).Str("model", mr.Name).Msg("Model pipeline failed")
			modelErrs = append(modelErrs, mr.Err)
		}
		result.Models = append(result.Models, mr)
	}

	result.ComparisonPath = p.outputPath(ComparisonFile)
	entries := make([]report.ModelMetrics, len(result.Models))
	for i, mr := range result.Models {
		entries[i] = report.ModelMetrics{Name: mr.Name, MetricsPath: mr.MetricsPath, Err: mr.Err}
	}
	if err := report.WriteComparison(result.ComparisonPath, entries); err != nil {
		modelErrs = append(modelErrs, &StageError{Stage: StageReporting, Err: err})
	} else {
		log.Info().Str("path", result.ComparisonPath).Msg("Comparison report written")
	}

	return result, errors.Join(modelErrs...)
}

func (p *Pipeline) prepare(result *Result) error {
	opts := timeseries.DefaultCSVOptions()
	opts.DateColumn = p.cfg.DateColumn
	opts.QuantityColumn = p.cfg.QuantityColumn
	opts.DateFormat = p.cfg.DateFormat

	series, err := timeseries.PrepareDaily(p.cfg.SalesPath, opts)
	if err != nil {
		return err
	}
	train, test := series.Split(p.cfg.TrainRatio)
	if train.Len() == 0 || test.Len() == 0 {
		return fmt.Errorf("%w: %d days cannot be split %g/%g",
			errdefs.ErrDataFormat, series.Len(), p.cfg.TrainRatio, 1-p.cfg.TrainRatio)
	}
	if err := timeseries.SaveCSV(series, p.outputPath(DailySeriesFile)); err != nil {
		return err
	}

	result.Series, result.Train, result.Test = series, train, test
	return nil
}

// checkStationarity logs the ADF verdict. The result is informational and
// does not change any model setting; a failure is logged and the run goes
// on.
func (p *Pipeline) checkStationarity(log zerolog.Logger, result *Result) {
	rep, err := stats.CheckStationarity(result.Series)
	if err != nil {
		log.Warn().Err(&StageError{Stage: StageStationarity, Err: err}).Msg("Stationarity check skipped")
		return
	}
	result.Stationarity = rep

	ev := log.Info().
		Float64("adf_statistic", rep.ADF.Statistic).
		Float64("p_value", rep.ADF.PValue).
		Int("lags", rep.ADF.Lags).
		Bool("stationary", rep.Stationary).
		Int("suggested_diffs", rep.SuggestedDiffs)
	for level, v := range rep.ADF.CriticalValues {
		ev = ev.Float64("critical_"+strings.TrimSuffix(level, "%"), v)
	}
	ev.Msg("Stationarity check")
}

func (p *Pipeline) runModel(ctx context.Context, log zerolog.Logger, m forecast.Model, train, test *timeseries.Series) ModelResult {
	mr := ModelResult{Name: m.Name()}
	prefix := strings.ToLower(mr.Name)
	log = log.With().Str("model", mr.Name).Logger()
	fail := func(stage Stage, err error) ModelResult {
		mr.Err = &StageError{Model: mr.Name, Stage: stage, Err: err}
		return mr
	}

	log.Info().Int("observations", train.Len()).Msg("Fitting model")
	fitted, err := m.Fit(train)
	if err != nil {
		return fail(StageFitting, err)
	}
	mr.Warnings = fittedWarnings(fitted)
	if !p.cfg.SuppressWarnings {
		for _, w := range mr.Warnings {
			log.Warn().Msg(w)
		}
	}

	if err := ctx.Err(); err != nil {
		return fail(StageForecasting, err)
	}
	mr.Forecast, err = fitted.Forecast(test.Len())
	if err != nil {
		return fail(StageForecasting, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(StageEvaluation, err)
	}
	mr.Metrics, err = metrics.Evaluate(test.Values, mr.Forecast)
	if err != nil {
		return fail(StageEvaluation, err)
	}
	log.Info().
		Float64("mae", mr.Metrics.MAE).
		Float64("rmse", mr.Metrics.RMSE).
		Float64("r2", mr.Metrics.R2).
		Msg("Model evaluated")

	if err := ctx.Err(); err != nil {
		return fail(StageReporting, err)
	}
	metricsPath := p.outputPath(prefix + "_metrics.txt")
	if err := report.WriteMetrics(metricsPath, mr.Name, mr.Metrics, reportSections(fitted)...); err != nil {
		return fail(StageReporting, err)
	}
	mr.MetricsPath = metricsPath

	// Metrics stay available in the comparison report if plotting fails.
	if err := p.plot(prefix, mr, fitted, train, test); err != nil {
		return fail(StageReporting, err)
	}
	log.Info().Str("path", metricsPath).Msg("Model report written")
	return mr
}

func (p *Pipeline) plot(prefix string, mr ModelResult, fitted forecast.Fitted, train, test *timeseries.Series) error {
	title := mr.Name + " Forecast"
	if err := p.plotter.PlotForecast(p.outputPath(prefix+"_forecast.png"), title, train, test, mr.Forecast); err != nil {
		return err
	}

	sf, ok := fitted.(*seasonal.Fitted)
	if !ok {
		return nil
	}
	pred, err := sf.PredictFuture(test.Len())
	if err != nil {
		return err
	}
	panels := []report.Panel{{Name: "trend", Values: pred.Trend}}
	for _, name := range pred.ComponentNames {
		panels = append(panels, report.Panel{Name: name, Values: pred.Components[name]})
	}
	return p.plotter.PlotComponents(p.outputPath(prefix+"_components.png"), pred.DS, panels)
}

func (p *Pipeline) outputPath(name string) string {
	return filepath.Join(p.cfg.OutputDir, name)
}

func fittedWarnings(fitted forecast.Fitted) []string {
	if sf, ok := fitted.(*seasonal.Fitted); ok {
		return sf.Warnings
	}
	return nil
}

// reportSections returns the model-specific blocks appended to a metrics
// file.
func reportSections(fitted forecast.Fitted) []report.Section {
	switch f := fitted.(type) {
	case *arima.Model:
		s := f.Summary()
		if s == nil {
			return nil
		}
		lines := []string{
			"Order: " + s.Order.String(),
			fmt.Sprintf("Constant: %t", f.IncludeMean),
			fmt.Sprintf("AIC: %.4f", s.AIC),
			fmt.Sprintf("BIC: %.4f", s.BIC),
		}
		if s.LjungBox != nil {
			lines = append(lines, fmt.Sprintf("Ljung-Box Q(%d): %.4f (p=%.4f)",
				s.LjungBox.Lags, s.LjungBox.Statistic, s.LjungBox.PValue))
		}
		return []report.Section{{Title: "Model Summary", Lines: lines}}

	case *seasonal.Fitted:
		cfg := f.Config
		return []report.Section{{
			Title: "Seasonality Analysis",
			Lines: []string{
				fmt.Sprintf("Weekly Seasonality: %t", cfg.WeeklySeasonality),
				fmt.Sprintf("Yearly Seasonality: %t", cfg.YearlySeasonality),
				fmt.Sprintf("Daily Seasonality: %t", cfg.DailySeasonality),
				fmt.Sprintf("Seasonality Mode: %s", cfg.Mode),
			},
		}}
	}
	return nil
}
