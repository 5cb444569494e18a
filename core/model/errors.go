package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned for a key outside the 13 form fields.
	ErrUnknownField = errors.New("unknown field")
	// ErrNotNumber is returned when a value cannot be parsed as a number.
	ErrNotNumber = errors.New("not a number")
	// ErrOutOfRange is returned when a value lies outside the field's domain.
	ErrOutOfRange = errors.New("value outside allowed domain")
	// ErrMissingField is returned when a decoded form lacks a field.
	ErrMissingField = errors.New("missing field")
)

// FieldError reports a rejected value for a single field.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
