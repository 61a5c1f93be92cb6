package sessions

import (
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
)

// ProviderError is a failure reported by the session provider itself, carrying the
// provider's message so it can be shown on the sign-in error page.
type ProviderError struct {
	StatusCode int    // HTTP status returned by the provider, 0 for transport failures
	Code       string // Provider error code, when it sent one
	Message    string // Provider's human readable message
	Err        error  // Taxonomy error this failure maps to
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "session provider error"
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// DisplayMessage extracts the text to show a user for err, preferring the provider's own message.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	return err.Error()
}
