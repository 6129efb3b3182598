package errors

import (
	"fmt"
	"strings"
)

// ValidationError reports one bad or missing field of a payload.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value any) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ValidationErrors collects every field problem of one payload so a client
// can fix them in a single round trip.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "validation failed"
	case 1:
		return "validation failed: " + ve[0].Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(ve.Fields(), ", "))
}

// Fields lists the offending field names in report order, without repeats.
func (ve ValidationErrors) Fields() []string {
	seen := make(map[string]bool, len(ve))
	fields := make([]string, 0, len(ve))
	for _, e := range ve {
		if seen[e.Field] {
			continue
		}
		seen[e.Field] = true
		fields = append(fields, e.Field)
	}
	return fields
}

// Add appends a problem and returns the grown list.
func (ve ValidationErrors) Add(field, message string, value any) ValidationErrors {
	return append(ve, ValidationError{Field: field, Message: message, Value: value})
}

// OrNil returns nil for an empty list so callers can return it as an error.
func (ve ValidationErrors) OrNil() error {
	if len(ve) == 0 {
		return nil
	}
	return ve
}
