package authz

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no principal could be resolved for the request.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden means the principal is known but its role or scope is
	// insufficient. The message never carries row data.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound masks rows that are absent as well as rows filtered out
	// by scope. The two cases are deliberately indistinguishable so that
	// out-of-scope rows do not leak their existence.
	ErrNotFound = errors.New("not found")
)

// DeniedError is a Forbidden with a human-readable reason.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// Unwrap makes errors.Is(err, ErrForbidden) hold for denials.
func (e *DeniedError) Unwrap() error {
	return ErrForbidden
}

// Denied builds a DeniedError with the given reason.
func Denied(reason string) error {
	return &DeniedError{Reason: reason}
}
