package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is the single rejection returned for any failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingSecret means the token signing secret is not configured.
	ErrMissingSecret = errors.New("token signing secret is not configured")
)

// ValidationError reports client-correctable input problems.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation builds a ValidationError.
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AuthErrorKind classifies bearer authentication failures.
type AuthErrorKind string

const (
	KindMissingOrMalformed AuthErrorKind = "missing_or_malformed"
	KindInvalidToken       AuthErrorKind = "invalid_token"
)

// AuthError is returned when a request cannot be authenticated.
// Reason carries the verification failure for server-side diagnostics.
type AuthError struct {
	Kind   AuthErrorKind
	Reason error
}

func (e *AuthError) Error() string {
	if e.Reason == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Reason
}
