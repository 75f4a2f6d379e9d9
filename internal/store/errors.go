package store

import (
	"fmt"

	"github.com/kailas-cloud/verdex/internal/domain"
)

// Error wraps a store failure with the operation name and HTTP status for
// diagnostics. It matches domain.ErrStore under errors.Is.
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("store %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrStore, e.Err}
	}
	return []error{domain.ErrStore}
}

func opErr(op string, status int, err error) error {
	return &Error{Op: op, Status: status, Err: err}
}
