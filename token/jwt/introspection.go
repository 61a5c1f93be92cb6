package jwt

import (
	"errors"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-credential-gateway/internal/utils"
	"github.com/jrsteele09/go-credential-gateway/users"
)

var ErrNoSecret = errors.New("no signing secret configured")

// TokenIntrospection represents the metadata of a hosted-backend access token.
// The 'active' field indicates the state of the token - if it's false, other fields may not be populated.
type TokenIntrospection struct {
	Active   bool           `json:"active"`                  // True or false - Is the token valid
	Sub      string         `json:"sub,omitempty"`           // Users unique ID
	Email    string         `json:"email,omitempty"`         // Users email
	Role     string         `json:"role,omitempty"`          // Backend role, "authenticated" for signed-in users
	Iss      string         `json:"iss,omitempty"`           // Issuer of the token
	Exp      *int64         `json:"exp,omitempty"`           // Expiration
	Iat      *int64         `json:"iat,omitempty"`           // Issued at time
	Metadata map[string]any `json:"user_metadata,omitempty"` // Profile metadata copied into the token
}

// User converts an active introspection into the identity it describes.
func (t *TokenIntrospection) User() *users.User {
	if t == nil || !t.Active || t.Sub == "" {
		return nil
	}
	name, _ := t.Metadata["full_name"].(string)
	if name == "" {
		name, _ = t.Metadata["name"].(string)
	}
	return &users.User{ID: t.Sub, Email: t.Email, Name: name, Metadata: t.Metadata}
}

// Inspector verifies access tokens signed with the project's shared HS256 secret
type Inspector struct {
	secret []byte
}

// NewInspector creates a new JWT inspector
func NewInspector(secret string) *Inspector {
	return &Inspector{secret: []byte(secret)}
}

// Enabled reports whether local verification is possible.
func (i *Inspector) Enabled() bool {
	return i != nil && len(i.secret) > 0
}

// Introspect validates and extracts information from a JWT token.
// An expired or badly signed token is reported as inactive together with the parse error.
func (i *Inspector) Introspect(rawToken string) (*TokenIntrospection, error) {
	if !i.Enabled() {
		return &TokenIntrospection{Active: false}, ErrNoSecret
	}
	if strings.TrimSpace(rawToken) == "" {
		return &TokenIntrospection{Active: false}, nil
	}

	token, err := jwtlib.ParseWithClaims(rawToken, jwtlib.MapClaims{}, func(t *jwtlib.Token) (any, error) {
		return i.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return &TokenIntrospection{Active: false}, fmt.Errorf("[Inspector Introspect] invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return &TokenIntrospection{Active: false}, errors.New("error extracting claims from token")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	iss, _ := claims["iss"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	metadata, _ := claims["user_metadata"].(map[string]any)

	return &TokenIntrospection{
		Active:   sub != "",
		Sub:      sub,
		Email:    email,
		Role:     role,
		Iss:      iss,
		Exp:      utils.Ptr(int64(exp)),
		Iat:      utils.Ptr(int64(iat)),
		Metadata: metadata,
	}, nil
}
