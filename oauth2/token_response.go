package oauth2

import "strings"

// TokenResponse represents the response from the hosted authentication backend's token endpoint.
// Returned from /auth/v1/token for both the refresh_token and pkce grant types.
type TokenResponse struct {
	// AccessToken is the HS256 JWT used to access protected resources.
	// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: Include in Authorization header: "Bearer <access_token>"
	// Lifespan: Short-lived (typically one hour)
	AccessToken string `json:"access_token,omitempty"`

	// TokenType indicates how to use the access token (always "bearer").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 3600
	ExpiresIn int `json:"expires_in,omitempty"`

	// ExpiresAt is the absolute expiry as a unix timestamp.
	// Note: Preferred over ExpiresIn when present, it is not skewed by response latency
	ExpiresAt int64 `json:"expires_at,omitempty"`

	// RefreshToken is an opaque single-use token used to obtain the next access token.
	// Security: Rotates on each use, the previous value is rejected after a short reuse window
	RefreshToken string `json:"refresh_token,omitempty"`

	// User is the identity the tokens were issued for.
	User *UserResponse `json:"user,omitempty"`
}

// UserResponse is the user object returned by /auth/v1/user and embedded in token responses.
type UserResponse struct {
	ID           string         `json:"id"`
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// DisplayName picks the profile name the identity providers commonly populate.
func (u *UserResponse) DisplayName() string {
	if u == nil {
		return ""
	}
	for _, key := range []string{"full_name", "name"} {
		if v, ok := u.UserMetadata[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ErrorResponse is the error body of the hosted backend. Older endpoints use
// error/error_description, newer ones code/msg.
type ErrorResponse struct {
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	Code             any    `json:"code,omitempty"`
	Msg              string `json:"msg,omitempty"`
}

// Message returns the most descriptive text available in the error body.
func (e ErrorResponse) Message() string {
	switch {
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Msg != "":
		return e.Msg
	default:
		return e.Error
	}
}
