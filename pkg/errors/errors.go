// Package errors provides structured error handling for the whole pipeline.
// Every failure mode surfaces as a typed error carrying enough context to
// abort the run with a descriptive message; nothing is retried.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotFittedError is returned when Predict or Transform is called on an
// estimator whose Fit has never been called.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("lifeboat: %s: this estimator is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError is returned when input data has the wrong shape.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("lifeboat: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError is returned when an argument value is invalid, for example a
// non-positive fold count or an empty matrix.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("lifeboat: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// DataFormatError is returned when an input table is malformed: a required
// column is absent, duplicated, or holds values that cannot be parsed.
type DataFormatError struct {
	Source string // file path or table name
	Column string
	Reason string
}

func (e *DataFormatError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("lifeboat: %s: column %q: %s", e.Source, e.Column, e.Reason)
	}
	return fmt.Sprintf("lifeboat: %s: %s", e.Source, e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DataFormatError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		Str("column", e.Column).
		Str("reason", e.Reason).
		Str("type", "DataFormatError")
}

// NewDataFormatError creates a DataFormatError with a stack trace attached.
func NewDataFormatError(source, column, reason string) error {
	err := &DataFormatError{Source: source, Column: column, Reason: reason}
	return errors.WithStack(err)
}

// TransformStateMismatchError is returned when data handed to a fitted
// transformer is incompatible with the state learned during fitting, for
// example a missing column or a different column count.
type TransformStateMismatchError struct {
	Transformer string
	Detail      string
}

func (e *TransformStateMismatchError) Error() string {
	return fmt.Sprintf("lifeboat: %s: input incompatible with fitted state: %s", e.Transformer, e.Detail)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *TransformStateMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("transformer", e.Transformer).
		Str("detail", e.Detail).
		Str("type", "TransformStateMismatchError")
}

// NewTransformStateMismatchError creates a TransformStateMismatchError with a
// stack trace attached.
func NewTransformStateMismatchError(transformer, detail string) error {
	err := &TransformStateMismatchError{Transformer: transformer, Detail: detail}
	return errors.WithStack(err)
}

// InsufficientDataError is returned when a dataset is too small for the
// requested operation, such as forming stratified folds when the fold count
// exceeds the cardinality of the smallest class.
type InsufficientDataError struct {
	Op       string
	Required int
	Got      int
	Detail   string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("lifeboat: %s: insufficient data: need at least %d, got %d (%s)", e.Op, e.Required, e.Got, e.Detail)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *InsufficientDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("required", e.Required).
		Int("got", e.Got).
		Str("detail", e.Detail).
		Str("type", "InsufficientDataError")
}

// NewInsufficientDataError creates an InsufficientDataError with a stack
// trace attached.
func NewInsufficientDataError(op string, required, got int, detail string) error {
	err := &InsufficientDataError{Op: op, Required: required, Got: got, Detail: detail}
	return errors.WithStack(err)
}

// UnknownCategoryError is returned when strict encoding is requested and a
// categorical level appears at transform time that was never seen during
// fitting. The default encoder policy maps unseen levels to an all-zero
// dummy row instead of returning this error.
type UnknownCategoryError struct {
	Column string
	Level  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("lifeboat: column %q: categorical level %q was never seen during fitting", e.Column, e.Level)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *UnknownCategoryError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Str("level", e.Level).
		Str("type", "UnknownCategoryError")
}

// NewUnknownCategoryError creates an UnknownCategoryError with a stack trace
// attached.
func NewUnknownCategoryError(column, level string) error {
	err := &UnknownCategoryError{Column: column, Level: level}
	return errors.WithStack(err)
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

// As finds the first error in err's chain that matches target.
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

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an operation receives no rows.
	ErrEmptyData = New("empty data")

	// ErrZeroVariance is returned when a transform is undefined for a
	// constant column, such as Box-Cox before imputation.
	ErrZeroVariance = New("zero variance column")
)
