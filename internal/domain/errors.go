package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is() checking.
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrUnavailable   = errors.New("unavailable")
	ErrConfiguration = errors.New("configuration error")
)

// MsgRequired is the validation message for mandatory fields.
const MsgRequired = "is required"

// ValidationError provides programmatic access to field-level validation failures.
// Use errors.Is(err, ErrValidation) for simple checks, or errors.As(err, &verr) to
// access verr.Fields for per-field error details.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConfigurationError reports an unknown or unusable backend selection.
// It is fatal at resolution time: the factory never falls back to a default
// backend. Use errors.As(err, &cerr) to access the offending backend name.
type ConfigurationError struct {
	Backend string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: unknown backend type %q", ErrConfiguration.Error(), e.Backend)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
