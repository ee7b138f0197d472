package pipeline

import (
	"fmt"
)

// Stage names a step of a forecasting run.
type Stage string

// Stages in run order. Preparation and stationarity are shared by all
// models; the rest run once per model.
const (
	// StagePreparation loads and aggregates the sales extract and splits it.
	StagePreparation Stage = "preparation"
	// StageStationarity runs the informational ADF check.
	StageStationarity Stage = "stationarity"
	// StageFitting fits a model to the training prefix.
	StageFitting Stage = "fitting"
	// StageForecasting forecasts the holdout horizon.
	StageForecasting Stage = "forecasting"
	// StageEvaluation scores the forecast against the holdout.
	StageEvaluation Stage = "evaluation"
	// StageReporting writes metrics files and plots.
	StageReporting Stage = "reporting"
)

// StageError identifies the model and stage a failure came from. Model is
// empty for stages shared by both models.
type StageError struct {
	Model string
	Stage Stage
	Err   error
}

// Error formats as "<model> <stage>: <cause>", or "<stage>: <cause>" for
// shared stages.
func (e *StageError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Model, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}
