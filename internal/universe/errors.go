package universe

import (
	"errors"
	"fmt"
)

// Domain errors for universe operations.
var (
	// ErrInvalidID indicates an operation on a body id that is not alive.
	ErrInvalidID = errors.New("universe: invalid body id")

	// ErrOutOfRange indicates a parameter outside its valid range
	// (non-positive mass, negative counts, negative radii).
	ErrOutOfRange = errors.New("universe: parameter out of valid range")
)

// RangeError reports which parameter was rejected and why.
type RangeError struct {
	Field string
	Value float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("universe: %s out of range: %g", e.Field, e.Value)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

func outOfRange(field string, value float64) error {
	return &RangeError{Field: field, Value: value}
}
