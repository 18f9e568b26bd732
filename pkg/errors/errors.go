// Package errors provides error handling and the warning system used across
// GridFlow. Errors carry structured context and cockroachdb stack traces so
// that a failed experiment can be traced back to the pipeline action and
// configuration that produced it.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("GridFlow-Warning: %v\n", w)
	}
	// zerolog sink, injected lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the library-wide warning handler. Use it to silence
// or redirect warnings such as UndefinedMetricWarning:
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs the zerolog warning sink (set by pkg/log to
// avoid a circular import).
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. When a zerolog sink is installed it takes priority;
// otherwise the plain handler is used.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// EmptyDomainWarning is raised when a domain update produced a domain with no
// configurations. The research loop treats it as a termination signal.
type EmptyDomainWarning struct {
	Research string
	Update   int
}

func (w *EmptyDomainWarning) Error() string {
	return fmt.Sprintf("research %q: domain update #%d produced an empty domain, stopping", w.Research, w.Update)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *EmptyDomainWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("research", w.Research).
		Int("update", w.Update).
		Str("type", "EmptyDomainWarning")
}

// NewEmptyDomainWarning creates a new EmptyDomainWarning.
func NewEmptyDomainWarning(research string, update int) *EmptyDomainWarning {
	return &EmptyDomainWarning{Research: research, Update: update}
}

// UndefinedMetricWarning is raised when a metric cannot be computed, for
// example precision with no positive predictions. The stated result is
// returned in place of the undefined value.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning creates a new UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// DivergedMetricWarning is raised when a collected metric value is NaN or
// infinite. The row is still recorded so the divergence stays visible in the
// result table.
type DivergedMetricWarning struct {
	Unit      string
	Metric    string
	Iteration int
	Value     float64
}

func (w *DivergedMetricWarning) Error() string {
	return fmt.Sprintf("unit %q: metric %q diverged at iteration %d (value=%v)", w.Unit, w.Metric, w.Iteration, w.Value)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *DivergedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("unit", w.Unit).
		Str("metric", w.Metric).
		Int("iteration", w.Iteration).
		Float64("value", w.Value).
		Str("type", "DivergedMetricWarning")
}

// NewDivergedMetricWarning creates a new DivergedMetricWarning.
func NewDivergedMetricWarning(unit, metric string, iteration int, value float64) *DivergedMetricWarning {
	return &DivergedMetricWarning{Unit: unit, Metric: metric, Iteration: iteration, Value: value}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotRunError is returned when results are queried from a Research that has
// not executed yet. Call Run() before reading results.
type NotRunError struct {
	Research string
	Method   string
}

func (e *NotRunError) Error() string {
	return fmt.Sprintf("gridflow: %s: research has not been run yet. Call Run() before using %s()", e.Research, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotRunError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("research", e.Research).
		Str("method", e.Method).
		Str("type", "NotRunError")
}

// NewNotRunError creates a NotRunError with a stack trace attached.
func NewNotRunError(research, method string) error {
	err := &NotRunError{Research: research, Method: method}
	return errors.WithStack(err)
}

// PipelineError wraps a failure inside a pipeline action.
type PipelineError struct {
	Pipeline  string
	Action    string
	Iteration int
	Err       error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gridflow: pipeline %q: action %q failed at iteration %d: %v", e.Pipeline, e.Action, e.Iteration, e.Err)
	}
	return fmt.Sprintf("gridflow: pipeline %q: action %q failed at iteration %d", e.Pipeline, e.Action, e.Iteration)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *PipelineError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("pipeline", e.Pipeline).
		Str("action", e.Action).
		Int("iteration", e.Iteration).
		Str("type", "PipelineError")
}

// NewPipelineError creates a PipelineError with a stack trace attached.
func NewPipelineError(pipeline, action string, iteration int, err error) error {
	pErr := &PipelineError{Pipeline: pipeline, Action: action, Iteration: iteration, Err: err}
	return errors.WithStack(pErr)
}

// ValidationError reports an invalid parameter value. It is more specific
// than ValueError: the failing parameter is named.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gridflow: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError reports an improper or out-of-range argument value, such as a
// negative batch size or an unparsable cadence spec.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("gridflow: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// StorageError wraps a failure of the result store (sqlite open, schema
// creation, dump or load).
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gridflow: %s: store %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("gridflow: %s: store %q", e.Op, e.Path)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a StorageError with a stack trace attached.
func NewStorageError(op, path string, err error) error {
	sErr := &StorageError{Op: op, Path: path, Err: err}
	return errors.WithStack(sErr)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be assigned to target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to an error.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Numerical instability
//
// ===========================================================================

// NumericalInstabilityError reports NaN or Inf values produced during metric
// collection or sampling.
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("gridflow: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError creates a NumericalInstabilityError with a
// stack trace attached.
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common sentinel errors
//
// ===========================================================================

var (
	// ErrNotImplemented marks a feature that is not implemented.
	ErrNotImplemented = New("not implemented")

	// ErrStopIteration signals that a batch generator exhausted its epoch
	// budget. It is a control-flow sentinel, not a failure.
	ErrStopIteration = New("stop iteration")

	// ErrEmptyDomain is returned for a domain with no configurations.
	ErrEmptyDomain = New("empty domain")

	// ErrEmptyData is returned when an empty vector or index is supplied.
	ErrEmptyData = New("empty data")
)
