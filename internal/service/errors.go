package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Exam session errors. Callers match them with errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrState                = errors.New("operation not allowed in current session state")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrSnapshotCorrupt      = errors.New("snapshot corrupt")
)

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports ErrValidation so handlers can match on the sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
