package proforma

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is returned when a scenario cannot be evaluated.
// The pipeline fails fast: no year loop runs once validation rejects an input.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParameterError identifies the offending field of a rejected scenario.
type ParameterError struct {
	Field  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidParameter, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidParameter.
func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

func invalid(field, format string, args ...interface{}) error {
	return &ParameterError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
