// Package errdefs defines the error taxonomy shared by the forecasting stages.
//
// Every stage wraps one of these sentinels with context using fmt.Errorf and
// the %w verb, so callers can classify a failure with errors.Is.
package errdefs

import "errors"

var (
	// ErrDataFormat reports malformed or unparseable date/quantity fields.
	ErrDataFormat = errors.New("data format error")

	// ErrModelFit reports a model that failed to converge or lacks sufficient data.
	ErrModelFit = errors.New("model fit error")

	// ErrLengthMismatch reports evaluator inputs of different or zero length.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrIO reports a missing input file or an unwritable output location.
	ErrIO = errors.New("io error")
)
