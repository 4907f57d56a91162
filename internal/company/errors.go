package company

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a mutation targets a missing record.
	ErrNotFound = errors.New("company not found")
	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence marks an unreachable or rejecting store.
	ErrPersistence = errors.New("company store unavailable")
)

// ValidationError lists messages per field name.
type ValidationError struct {
	Fields map[string][]string
}

// Add records a message against a field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no messages were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e when it carries messages.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FieldErrors exposes the per-field messages to the HTTP layer.
func (e *ValidationError) FieldErrors() map[string][]string { return e.Fields }

// UserMessage maps an error to the generic text shown to users.
func UserMessage(op string, err error) string {
	if errors.Is(err, ErrValidation) {
		return "Validation failed. Please check the form fields."
	}
	return "Failed to " + op + " company. Please try again."
}
