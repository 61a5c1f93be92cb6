// Package hosted is the session provider for the hosted authentication backend
// (a GoTrue-compatible REST API under /auth/v1).
package hosted

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/internal/utils"
	hostedoauth "github.com/jrsteele09/go-credential-gateway/oauth2"
	"github.com/jrsteele09/go-credential-gateway/sessions"
	"github.com/jrsteele09/go-credential-gateway/token/jwt"
	"github.com/jrsteele09/go-credential-gateway/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Config holds the hosted backend connection settings.
type Config struct {
	BaseURL       string // Project URL, e.g. https://project.example.co
	APIKey        string // Public (anon) API key sent as the apikey header
	JWTSecret     string // Optional project JWT secret for local access token verification
	OAuthProvider string // Identity provider used for OAuth sign-in, e.g. "google"
	Cookies       sessions.CookieCodec
}

type Provider struct {
	cfg       Config
	client    *http.Client
	inspector *jwt.Inspector
	now       func() time.Time
}

type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.client = client
	}
}

// WithNowTime overrides the clock used to compute session expiry.
func WithNowTime(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

var _ sessions.Provider = (*Provider)(nil)

func New(cfg Config, opts ...Option) *Provider {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	p := &Provider{
		cfg:       cfg,
		client:    http.DefaultClient,
		inspector: jwt.NewInspector(cfg.JWTSecret),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Refresh resolves the session in cookies. A still-valid access token is used as is; otherwise
// the refresh token is exchanged for a new pair. A refresh token the backend rejects clears the
// session cookies and yields no session. Transport and 5xx failures are returned as errors.
func (p *Provider) Refresh(ctx context.Context, cookies []*http.Cookie) (sessions.RefreshResult, error) {
	stored := p.cfg.Cookies.Decode(cookies)
	if stored.Empty() {
		return sessions.RefreshResult{}, nil
	}

	if stored.AccessToken != "" {
		session, err := p.sessionFromAccessToken(ctx, stored)
		if err == nil {
			return sessions.RefreshResult{Session: session}, nil
		}
		if !errors.Is(err, errors.ErrUnauthenticated) {
			return sessions.RefreshResult{}, err
		}
		zerolog.Ctx(ctx).Debug().Err(err).Msg("access token rejected, refreshing session")
	}

	if stored.RefreshToken == "" {
		return sessions.RefreshResult{Cookies: p.cfg.Cookies.Clear()}, nil
	}

	var token hostedoauth.TokenResponse
	err := p.call(ctx, http.MethodPost, pathToken,
		url.Values{"grant_type": {string(hostedoauth.RefreshTokenGrant)}},
		hostedoauth.RefreshRequest{RefreshToken: stored.RefreshToken}, "", nil, &token)
	if err != nil {
		if errors.Is(err, errors.ErrUnauthenticated) {
			return sessions.RefreshResult{Cookies: p.cfg.Cookies.Clear()}, nil
		}
		return sessions.RefreshResult{}, errors.Wrapf(err, "[Hosted Refresh] refresh request failed")
	}

	session := p.sessionFromToken(&token)
	if session == nil {
		return sessions.RefreshResult{}, errors.Wrapf(errors.ErrMissingAccessToken, "[Hosted Refresh] refresh response")
	}
	return sessions.RefreshResult{Session: session, Cookies: p.cfg.Cookies.Encode(session)}, nil
}

// StartSignIn builds the backend authorize URL with a PKCE challenge. The backend tracks
// OAuth state itself, so only the verifier is kept in a cookie.
func (p *Provider) StartSignIn(_ context.Context, redirectTo string) (sessions.SignInStart, error) {
	verifier := oauth2.GenerateVerifier()

	query := url.Values{}
	query.Set("provider", p.cfg.OAuthProvider)
	query.Set("redirect_to", redirectTo)
	query.Set("code_challenge", oauth2.S256ChallengeFromVerifier(verifier))
	query.Set("code_challenge_method", string(hostedoauth.CodeMethodTypeS256))

	return sessions.SignInStart{
		AuthURL: p.cfg.BaseURL + pathAuthorize + "?" + query.Encode(),
		Cookies: p.cfg.Cookies.SignInCookies("", verifier),
	}, nil
}

// ExchangeCode trades the authorization code and stored PKCE verifier for a session.
// A successful response without usable tokens returns a nil session and no error.
func (p *Provider) ExchangeCode(ctx context.Context, exchange sessions.CodeExchange) (*sessions.Session, []*http.Cookie, error) {
	verifier := sessions.FindCookie(exchange.Cookies, p.cfg.Cookies.VerifierName())
	if verifier == "" {
		return nil, nil, &sessions.ProviderError{Message: "code verifier missing, restart sign-in", Err: errors.ErrExchangeFailed}
	}

	var token hostedoauth.TokenResponse
	err := p.call(ctx, http.MethodPost, pathToken,
		url.Values{"grant_type": {string(hostedoauth.PKCEGrant)}},
		hostedoauth.PKCEExchangeRequest{AuthCode: exchange.Code, CodeVerifier: verifier}, "", errors.ErrExchangeFailed, &token)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[Hosted ExchangeCode] exchange request failed")
	}

	session := p.sessionFromToken(&token)
	if session == nil {
		return nil, p.cfg.Cookies.ClearSignIn(), nil
	}
	cookies := append(p.cfg.Cookies.Encode(session), p.cfg.Cookies.ClearSignIn()...)
	return session, cookies, nil
}

// UserFromBearer asks the backend who token belongs to. Always one round trip, so revoked
// sessions are caught even when the token signature is still valid.
func (p *Provider) UserFromBearer(ctx context.Context, token string) (*users.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.ErrInvalidAccessToken
	}
	var user hostedoauth.UserResponse
	if err := p.call(ctx, http.MethodGet, pathUser, nil, nil, token, nil, &user); err != nil {
		return nil, errors.Wrapf(err, "[Hosted UserFromBearer] user lookup failed")
	}
	if user.ID == "" {
		return nil, errors.ErrInvalidAccessToken
	}
	return toUser(&user), nil
}

// SignOut revokes the session at the backend and always returns cookies that clear it locally.
func (p *Provider) SignOut(ctx context.Context, cookies []*http.Cookie) ([]*http.Cookie, error) {
	cleared := append(p.cfg.Cookies.Clear(), p.cfg.Cookies.ClearSignIn()...)
	stored := p.cfg.Cookies.Decode(cookies)
	if stored.AccessToken == "" {
		return cleared, nil
	}
	if err := p.call(ctx, http.MethodPost, pathLogout, nil, nil, stored.AccessToken, nil, nil); err != nil {
		return cleared, errors.Wrapf(err, "[Hosted SignOut] logout failed")
	}
	return cleared, nil
}

func (p *Provider) sessionFromAccessToken(ctx context.Context, stored sessions.StoredTokens) (*sessions.Session, error) {
	session := &sessions.Session{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
	}

	if p.inspector.Enabled() {
		result, err := p.inspector.Introspect(stored.AccessToken)
		if err != nil || !result.Active {
			return nil, errors.Join(errors.ErrInvalidAccessToken, err)
		}
		session.User = result.User()
		if exp := utils.Value(result.Exp); exp > 0 {
			session.ExpiresAt = time.Unix(exp, 0)
		}
		return session, nil
	}

	user, err := p.UserFromBearer(ctx, stored.AccessToken)
	if err != nil {
		return nil, err
	}
	session.User = user
	return session, nil
}

func (p *Provider) sessionFromToken(token *hostedoauth.TokenResponse) *sessions.Session {
	if token == nil || token.AccessToken == "" {
		return nil
	}

	var user *users.User
	if token.User != nil && token.User.ID != "" {
		user = toUser(token.User)
	} else if p.inspector.Enabled() {
		if result, err := p.inspector.Introspect(token.AccessToken); err == nil {
			user = result.User()
		}
	}
	if user == nil {
		return nil
	}

	expiresAt := p.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if token.ExpiresAt > 0 {
		expiresAt = time.Unix(token.ExpiresAt, 0)
	}
	return &sessions.Session{
		User:         user,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
	}
}

func toUser(u *hostedoauth.UserResponse) *users.User {
	return &users.User{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.DisplayName(),
		Metadata: u.UserMetadata,
	}
}
