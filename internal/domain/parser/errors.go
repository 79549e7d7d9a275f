package parser

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrFileAccess      = errors.New("file access failed")
	ErrMalformedRecord = errors.New("malformed record")
	ErrInvalidFormat   = errors.New("invalid log format")
)

// MalformedRecordError describes a data line that could not be turned into a record.
type MalformedRecordError struct {
	Line  int    // 1-based line number in the input
	Field string // empty when the line could not be split
	Value string
	Err   error
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s at line %d: %v", ErrMalformedRecord, e.Line, e.Err)
	}
	return fmt.Sprintf("%s at line %d: field %s %q: %v", ErrMalformedRecord, e.Line, e.Field, e.Value, e.Err)
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *MalformedRecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}
