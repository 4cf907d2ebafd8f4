package cronexpr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFieldSyntax is returned when a field atom does not match the grammar
	ErrInvalidFieldSyntax = errors.New("invalid field syntax")

	// ErrValueOutOfRange is returned when a parsed number falls outside the field bounds
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrWrongFieldCount is returned when an expression does not split into exactly five fields
	ErrWrongFieldCount = errors.New("expression must have exactly 5 fields")

	// ErrUnknownMacro is returned for an @-word that is not a recognized macro
	ErrUnknownMacro = errors.New("unknown schedule macro")

	// ErrNoOccurrence is returned when no matching instant exists within the search horizon
	ErrNoOccurrence = errors.New("no occurrence within search horizon")
)

// FieldError wraps a field parsing failure with the name of the failing field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
