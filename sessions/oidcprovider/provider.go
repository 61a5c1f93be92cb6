// Package oidcprovider is a session provider for any OpenID Connect issuer.
package oidcprovider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/sessions"
	"github.com/jrsteele09/go-credential-gateway/users"
	"golang.org/x/oauth2"
)

type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string // Default callback URL, used when StartSignIn is given none
	Scopes       []string
	Cookies      sessions.CookieCodec
}

type Provider struct {
	cfg      Config
	provider *oidc.Provider
	oauth2   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

var _ sessions.Provider = (*Provider)(nil)

type idClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// New discovers the issuer's endpoints. ctx is only used for discovery.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("[OIDC New] failed to create OIDC provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}
	}

	return &Provider{
		cfg:      cfg,
		provider: provider,
		oauth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// Refresh accepts a session whose ID token still verifies; otherwise it redeems the refresh
// token. An issuer that rejects the refresh token clears the session cookies.
func (p *Provider) Refresh(ctx context.Context, cookies []*http.Cookie) (sessions.RefreshResult, error) {
	stored := p.cfg.Cookies.Decode(cookies)
	if stored.Empty() {
		return sessions.RefreshResult{}, nil
	}

	if stored.AccessToken != "" && stored.IDToken != "" {
		if user, expiry, err := p.verifyIDToken(ctx, stored.IDToken); err == nil {
			return sessions.RefreshResult{Session: &sessions.Session{
				User:         user,
				AccessToken:  stored.AccessToken,
				RefreshToken: stored.RefreshToken,
				IDToken:      stored.IDToken,
				ExpiresAt:    expiry,
			}}, nil
		}
	}

	if stored.RefreshToken == "" {
		return sessions.RefreshResult{Cookies: p.cfg.Cookies.Clear()}, nil
	}

	token, err := p.oauth2.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode < 500 {
			return sessions.RefreshResult{Cookies: p.cfg.Cookies.Clear()}, nil
		}
		return sessions.RefreshResult{}, fmt.Errorf("[OIDC Refresh] refresh failed: %w", errors.Join(errors.ErrUpstream, err))
	}
	if token.RefreshToken == "" {
		token.RefreshToken = stored.RefreshToken
	}

	session, err := p.sessionFromToken(ctx, token)
	if err != nil {
		return sessions.RefreshResult{}, fmt.Errorf("[OIDC Refresh] %w", err)
	}
	if session == nil {
		return sessions.RefreshResult{Cookies: p.cfg.Cookies.Clear()}, nil
	}
	return sessions.RefreshResult{Session: session, Cookies: p.cfg.Cookies.Encode(session)}, nil
}

// StartSignIn builds the authorization URL with state and a PKCE challenge. The redirect URI is
// recorded next to the state so the token request repeats it exactly.
func (p *Provider) StartSignIn(_ context.Context, redirectTo string) (sessions.SignInStart, error) {
	if redirectTo == "" {
		redirectTo = p.cfg.RedirectURL
	}
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	authURL := p.oauth2.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("redirect_uri", redirectTo),
	)
	return sessions.SignInStart{
		AuthURL: authURL,
		Cookies: p.cfg.Cookies.SignInCookies(encodeState(state, redirectTo), verifier),
	}, nil
}

// ExchangeCode checks state, redeems the code with the PKCE verifier and verifies the ID token.
func (p *Provider) ExchangeCode(ctx context.Context, exchange sessions.CodeExchange) (*sessions.Session, []*http.Cookie, error) {
	state, redirectTo := decodeState(sessions.FindCookie(exchange.Cookies, p.cfg.Cookies.StateName()))
	if state == "" || state != exchange.State {
		return nil, nil, &sessions.ProviderError{Code: "state_mismatch", Message: "sign-in state did not match, restart sign-in", Err: errors.Join(errors.ErrExchangeFailed, errors.ErrStateMismatch)}
	}
	verifier := sessions.FindCookie(exchange.Cookies, p.cfg.Cookies.VerifierName())
	if verifier == "" {
		return nil, nil, &sessions.ProviderError{Message: "code verifier missing, restart sign-in", Err: errors.ErrExchangeFailed}
	}

	opts := []oauth2.AuthCodeOption{oauth2.VerifierOption(verifier)}
	if redirectTo != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectTo))
	}
	token, err := p.oauth2.Exchange(ctx, exchange.Code, opts...)
	if err != nil {
		return nil, nil, retrieveError(err)
	}

	session, err := p.sessionFromToken(ctx, token)
	if err != nil {
		return nil, nil, &sessions.ProviderError{Message: err.Error(), Err: errors.Join(errors.ErrExchangeFailed, err)}
	}
	if session == nil {
		return nil, p.cfg.Cookies.ClearSignIn(), nil
	}
	return session, append(p.cfg.Cookies.Encode(session), p.cfg.Cookies.ClearSignIn()...), nil
}

// UserFromBearer resolves an access token through the issuer's UserInfo endpoint.
func (p *Provider) UserFromBearer(ctx context.Context, token string) (*users.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.ErrInvalidAccessToken
	}
	info, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	if err != nil {
		return nil, fmt.Errorf("[OIDC UserFromBearer] %w", errors.Join(errors.ErrInvalidAccessToken, err))
	}
	var claims idClaims
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("[OIDC UserFromBearer] decoding claims: %w", errors.Join(errors.ErrUpstream, err))
	}
	if claims.Sub == "" {
		claims.Sub = info.Subject
	}
	if claims.Sub == "" {
		return nil, errors.ErrInvalidAccessToken
	}
	return &users.User{ID: claims.Sub, Email: claims.Email, Name: claims.Name}, nil
}

// SignOut clears the local session. Issuer-side logout needs a browser redirect and is not performed.
func (p *Provider) SignOut(_ context.Context, _ []*http.Cookie) ([]*http.Cookie, error) {
	return append(p.cfg.Cookies.Clear(), p.cfg.Cookies.ClearSignIn()...), nil
}

func (p *Provider) sessionFromToken(ctx context.Context, token *oauth2.Token) (*sessions.Session, error) {
	if token == nil || token.AccessToken == "" {
		return nil, nil
	}
	rawIDToken, _ := token.Extra("id_token").(string)

	// Some issuers omit the ID token on refresh; fall back to UserInfo.
	var user *users.User
	var err error
	if rawIDToken != "" {
		user, _, err = p.verifyIDToken(ctx, rawIDToken)
	} else {
		user, err = p.UserFromBearer(ctx, token.AccessToken)
	}
	if err != nil {
		return nil, err
	}
	return &sessions.Session{
		User:         user,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      rawIDToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

func (p *Provider) verifyIDToken(ctx context.Context, raw string) (*users.User, time.Time, error) {
	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("ID token verification failed: %w", err)
	}
	var claims idClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to extract claims: %w", err)
	}
	return &users.User{ID: idToken.Subject, Email: claims.Email, Name: claims.Name}, idToken.Expiry, nil
}

func retrieveError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		message := re.ErrorDescription
		if message == "" {
			message = re.ErrorCode
		}
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &sessions.ProviderError{StatusCode: status, Code: re.ErrorCode, Message: message, Err: errors.ErrExchangeFailed}
	}
	return &sessions.ProviderError{Message: err.Error(), Err: errors.Join(errors.ErrExchangeFailed, err)}
}

func encodeState(state, redirectTo string) string {
	return state + "." + base64.RawURLEncoding.EncodeToString([]byte(redirectTo))
}

func decodeState(value string) (state, redirectTo string) {
	state, encoded, _ := strings.Cut(value, ".")
	if decoded, err := base64.RawURLEncoding.DecodeString(encoded); err == nil {
		redirectTo = string(decoded)
	}
	return state, redirectTo
}
