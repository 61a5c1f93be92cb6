package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-credential-gateway/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Creator mints HS256 access tokens in the shape the hosted authentication backend issues.
// Used by local development tooling and tests that stand in for the backend.
type Creator struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
}

// NewCreator creates a new JWT creator
func NewCreator(secret, issuer string, lifetime time.Duration) *Creator {
	return &Creator{
		secret:   []byte(secret),
		issuer:   issuer,
		lifetime: lifetime,
	}
}

// CreateAccessToken creates a signed access token for the user
func (c *Creator) CreateAccessToken(user *users.User) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":   c.issuer,                   // The issuer of the token (project auth URL)
		"aud":   "authenticated",            // Audience used by the hosted backend for signed-in users
		"role":  "authenticated",            // Database role the token maps to
		"sub":   user.ID,                    // Users unique ID
		"email": user.Email,                 // Users email address
		"iat":   now.Unix(),                 // Issued At
		"exp":   now.Add(c.lifetime).Unix(), // Expiry
		"jti":   uuid.New().String(),        // Unique token ID
	}
	if user.Name != "" || len(user.Metadata) > 0 {
		metadata := map[string]any{}
		for k, v := range user.Metadata {
			metadata[k] = v
		}
		if user.Name != "" {
			metadata["full_name"] = user.Name
		}
		claims["user_metadata"] = metadata
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}
