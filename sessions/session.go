package sessions

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/go-credential-gateway/users"
)

// Session is the signed-in principal together with the credentials that keep it alive.
// Sessions live only in cookies; the gateway holds no server-side session state.
type Session struct {
	User         *users.User // Resolved principal identity
	AccessToken  string      // Short-lived bearer credential
	RefreshToken string      // Renewal material, replaced on every refresh
	IDToken      string      // OIDC ID token, empty for providers that do not issue one
	ExpiresAt    time.Time   // Access token expiry as reported by the provider
}

// Expired reports whether the access token has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// RefreshResult is the outcome of resolving the session carried by a request.
// Cookies are instructions for the caller to apply, in order; the provider never writes them itself.
type RefreshResult struct {
	Session *Session
	Cookies []*http.Cookie
}

// SignInStart holds what a browser needs to begin an authorization-code sign-in.
type SignInStart struct {
	AuthURL string         // Provider authorization URL to redirect the browser to
	Cookies []*http.Cookie // Short-lived state and PKCE verifier cookies
}

// CodeExchange carries the callback parameters and the request cookies holding sign-in state.
type CodeExchange struct {
	Code    string
	State   string
	Cookies []*http.Cookie
}

// Provider is the primary session provider: the external authentication backend that
// issues, renews and introspects sessions.
type Provider interface {
	// Refresh resolves and, when needed, renews the session carried by cookies.
	// A nil Session with a nil error means there is no usable session.
	Refresh(ctx context.Context, cookies []*http.Cookie) (RefreshResult, error)
	// StartSignIn builds the authorization redirect for an OAuth sign-in.
	StartSignIn(ctx context.Context, redirectTo string) (SignInStart, error)
	// ExchangeCode completes the authorization-code flow. The returned cookies persist the session.
	ExchangeCode(ctx context.Context, exchange CodeExchange) (*Session, []*http.Cookie, error)
	// UserFromBearer resolves a raw access token to the identity it belongs to.
	UserFromBearer(ctx context.Context, token string) (*users.User, error)
	// SignOut revokes the session where the provider supports it and returns cookies that clear it.
	SignOut(ctx context.Context, cookies []*http.Cookie) ([]*http.Cookie, error)
}
