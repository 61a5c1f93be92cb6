package errors

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the gateway components wraps exactly one of these.
var (
	// ErrUnauthenticated means there is no valid session or bearer credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation means a required input field is missing or malformed.
	ErrValidation = errors.New("validation error")
	// ErrUpstream means the authorization server or identity provider failed or answered with an unexpected shape.
	ErrUpstream = errors.New("upstream failure")
	// ErrPersistence means a credential store write failed. It is logged, never surfaced to callers.
	ErrPersistence = errors.New("persistence warning")
	// ErrUnexpected is used for panics recovered at a handler boundary.
	ErrUnexpected = errors.New("unexpected error")
)

// Specific errors
var (
	// Validation
	ErrMissingRefreshToken = fmt.Errorf("refresh token is required: %w", ErrValidation)
	ErrMissingUserID       = fmt.Errorf("user id is required: %w", ErrValidation)
	ErrMalformedBody       = fmt.Errorf("malformed request body: %w", ErrValidation)

	// Authentication
	ErrNoSession           = fmt.Errorf("no active session: %w", ErrUnauthenticated)
	ErrAccessTokenNotFound = fmt.Errorf("access token not found in function call parameters: %w", ErrUnauthenticated)
	ErrInvalidAccessToken  = fmt.Errorf("invalid access token: %w", ErrUnauthenticated)
	ErrStateMismatch       = fmt.Errorf("state mismatch: %w", ErrUnauthenticated)

	// Upstream
	ErrRefreshFailed      = fmt.Errorf("token refresh failed: %w", ErrUpstream)
	ErrMissingAccessToken = fmt.Errorf("no access token returned: %w", ErrUpstream)
	ErrExchangeFailed     = fmt.Errorf("code exchange failed: %w", ErrUpstream)

	// Store
	ErrRecordNotFound = errors.New("credential record not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Class returns the taxonomy class err belongs to, or ErrUnexpected when it carries none.
func Class(err error) error {
	for _, class := range []error{ErrUnauthenticated, ErrValidation, ErrUpstream, ErrPersistence, ErrUnexpected} {
		if errors.Is(err, class) {
			return class
		}
	}
	return ErrUnexpected
}
