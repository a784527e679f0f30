package varstruct

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates the payload is shorter than the layout requires.
	ErrTruncated = errors.New("truncated payload")
	// ErrTrailingData indicates bytes are left after the last field in strict mode.
	ErrTrailingData = errors.New("trailing data")
	// ErrFieldTooLong indicates a byte string doesn't fit its length prefix.
	ErrFieldTooLong = errors.New("field too long")
	// ErrFieldCount indicates the number of values doesn't match the layout.
	ErrFieldCount = errors.New("field count mismatch")
	// ErrFieldType indicates a value of the wrong type for its field.
	ErrFieldType = errors.New("field type mismatch")
	// ErrIntRange indicates an integer doesn't fit its field width.
	ErrIntRange = errors.New("integer out of range")
	// ErrInvalidField indicates a malformed Field.
	ErrInvalidField = errors.New("invalid field")
	// ErrInvalidFormat indicates a format string can't be parsed.
	ErrInvalidFormat = errors.New("invalid format")
)

// FieldError reports the field at Index failed.
type FieldError struct {
	Index int
	Err   error
}

// Error implements error.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}
