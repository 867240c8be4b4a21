// internal/apperr/errors.go
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	// ErrConflict marks a uniqueness violation in the store.
	ErrConflict = errors.New("conflict")
	// ErrTransaction marks a store failure that was rolled back; callers may retry.
	ErrTransaction = errors.New("transaction failed")
)

// Reason explains why an authorization check was denied
type Reason string

const (
	ReasonNotMember       Reason = "NOT_MEMBER"
	ReasonNotOwner        Reason = "NOT_OWNER"
	ReasonUnauthenticated Reason = "UNAUTHENTICATED"
)

// ForbiddenError is returned when an authenticated identity lacks permission
type ForbiddenError struct {
	Reason Reason
}

func (e *ForbiddenError) Error() string {
	switch e.Reason {
	case ReasonNotOwner:
		return fmt.Sprintf("%s: only the project owner may do this", e.Reason)
	case ReasonUnauthenticated:
		return fmt.Sprintf("%s: sign in first", e.Reason)
	default:
		return fmt.Sprintf("%s: not a member of this project", e.Reason)
	}
}

// ValidationError describes malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationError
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Forbidden builds a ForbiddenError for the given reason
func Forbidden(reason Reason) error {
	return &ForbiddenError{Reason: reason}
}

// ForbiddenReason reports the denial reason carried by err, if any
func ForbiddenReason(err error) (Reason, bool) {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe.Reason, true
	}
	return "", false
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
