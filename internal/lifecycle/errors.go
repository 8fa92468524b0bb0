package lifecycle

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned for rows that do not exist or that the caller cannot read.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller can read a row but may not mutate it.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a transition is not legal from the current state.
	ErrConflict = errors.New("conflict")
)

// ValidationError carries field-level messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
