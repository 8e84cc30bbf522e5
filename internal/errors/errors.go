package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("invalid request")
	ErrWeakSecret              = errors.New("passcode is too weak")
	ErrPersonalDataCorrelation = errors.New("passcode is derived from personal data")
	ErrUserNotFound            = errors.New("user not found")
	ErrUnverifiedAccount       = errors.New("account is not verified")
	ErrNoSecretConfigured      = errors.New("no passcode configured")
	ErrPasscodeMismatch        = errors.New("passcode mismatch")
	ErrTooManyRequests         = errors.New("too many requests")
	ErrOTPExpired              = errors.New("code expired")
	ErrOTPAttemptsExceeded     = errors.New("too many failed code attempts")

	// ErrInvalidCredentials is the uniform client-facing error for every
	// verification failure. Handlers must never surface the sentinels above
	// (not-found, unverified, no-secret, mismatch) to the caller directly.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SystemError marks a collaborator failure (persistence, hashing, signing).
// It is the only class that maps to a 5xx response.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// System wraps err as a SystemError for the given operation.
func System(op string, err error) error {
	return &SystemError{Op: op, Err: err}
}

// IsSystem reports whether err is (or wraps) a SystemError.
func IsSystem(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}
