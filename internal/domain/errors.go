package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrSchemaNotFound signals a missing document definition.
	ErrSchemaNotFound = errors.New("schema not found")
	// ErrStore signals a transport or status failure from the document store.
	ErrStore = errors.New("store error")
	// ErrInvalidSchema signals an invalid raw schema payload.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrMissingVersion signals that version resolution found no usable entry.
	ErrMissingVersion = errors.New("missing field version")
	// ErrAmbiguousField signals that version resolution cannot pick a single
	// physical key for a field.
	ErrAmbiguousField = errors.New("ambiguous field version")
	// ErrTagForbidden signals that the caller may not resolve a restricted tag.
	ErrTagForbidden = errors.New("tag not visible to caller")
	// ErrValidation signals that a document failed field validation.
	ErrValidation = errors.New("document validation failed")
)

// ConfigError reports unknown or invalid field attributes at construction.
// It is fatal for the field being built.
type ConfigError struct {
	DocType string
	Field   string
	Unknown []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Unknown) > 0 {
		return fmt.Sprintf("field %s.%s: unknown attributes: %s",
			e.DocType, e.Field, strings.Join(e.Unknown, ", "))
	}
	return fmt.Sprintf("field %s.%s: %s", e.DocType, e.Field, e.Reason)
}

// AmbiguousFieldError wraps ErrAmbiguousField with the tied versions.
type AmbiguousFieldError struct {
	Field    string
	Versions []int
}

func (e *AmbiguousFieldError) Error() string {
	return fmt.Sprintf("%s: field %q matches versions %v", ErrAmbiguousField.Error(), e.Field, e.Versions)
}

func (e *AmbiguousFieldError) Unwrap() error { return ErrAmbiguousField }

// ValidationError wraps ErrValidation with per-field messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d fields rejected", ErrValidation.Error(), len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
