package users

import "strings"

// User is the principal identity resolved from a session or a bearer token.
// The gateway never stores users; identities come from the session provider.
type User struct {
	ID       string         `json:"id"`                 // Provider's unique subject identifier
	Email    string         `json:"email,omitempty"`    // Primary email address
	Name     string         `json:"name,omitempty"`     // Display name, when the provider supplies one
	Metadata map[string]any `json:"metadata,omitempty"` // Provider-specific profile claims
}

// DisplayName returns the best human readable label for the user
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

// Valid reports whether the identity carries a subject identifier.
func (u *User) Valid() bool {
	return u != nil && strings.TrimSpace(u.ID) != ""
}
