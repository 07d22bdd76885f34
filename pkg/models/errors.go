package models

import (
	"errors"
	"strings"
)

// FieldError is a problem with a single input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports input that failed the task shape constraints.
// It is raised before any network call is made.
type ValidationError struct {
	Fields []FieldError
	Err    error
}

// NewValidationError returns a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add records a problem for field. Only the first message per field is kept.
func (e *ValidationError) Add(field, message string) {
	if e.Field(field) != "" {
		return
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Merge copies field problems from other
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for _, f := range other.Fields {
		e.Add(f.Field, f.Message)
	}
	if e.Err == nil {
		e.Err = other.Err
	}
}

// Field returns the message recorded for field, or ""
func (e *ValidationError) Field(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// OrNil returns nil when no problems were recorded
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 && e.Err == nil {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Err != nil {
			return e.Err.Error()
		}
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
