package refresh

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-credential-gateway/credentials"
	"github.com/jrsteele09/go-credential-gateway/internal/config"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/internal/logging"
	"github.com/jrsteele09/go-credential-gateway/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Result is the outcome of a refresh. The operation result and the store-write result are
// reported separately: StoreErr set means the token is valid but was not persisted.
type Result struct {
	AccessToken  string    // Freshly minted storage API access token
	ExpiresIn    any       // expires_in exactly as the authorization server sent it
	TokenExpiry  time.Time // now + expires_in, the value persisted to the store
	RefreshToken string    // Refresh token to use next time, rotated if the server issued a new one
	StoreErr     error     // Persistence warning, never returned as the operation error
}

// Refresher exchanges storage API refresh tokens for access tokens and records them in the credential store.
type Refresher struct {
	oauth2  *oauth2.Config
	repo    credentials.Repo
	client  *http.Client
	metrics *metrics.Metrics
}

type Option func(*Refresher)

// WithHTTPClient sets the client used to call the token endpoint.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Refresher) {
		r.client = client
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Refresher) {
		r.metrics = m
	}
}

// NewRefresher creates a refresher for the storage OAuth client. Client credentials are
// sent in the request body, alongside refresh_token and grant_type.
func NewRefresher(cfg config.StorageOAuthConfig, repo credentials.Repo, opts ...Option) *Refresher {
	r := &Refresher{
		oauth2: &oauth2.Config{
			ClientID:     cfg.GetStorageClientID(),
			ClientSecret: cfg.GetStorageClientSecret(),
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.GetStorageAuthURL(),
				TokenURL:  cfg.GetStorageTokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: cfg.GetStorageScopes(),
		},
		repo: repo,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh trades refreshToken for a new access token on behalf of userID, who must already have
// been authenticated by the caller. One round trip, no retry. An upstream failure writes nothing;
// a store failure after a successful exchange is reported in Result.StoreErr only.
func (r *Refresher) Refresh(ctx context.Context, userID, refreshToken string) (*Result, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.ErrMissingUserID
	}
	if strings.TrimSpace(refreshToken) == "" {
		return nil, errors.ErrMissingRefreshToken
	}

	logger := zerolog.Ctx(ctx).With().Str("user_id", userID).Logger()

	if r.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	}
	token, err := r.oauth2.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		err = classify(err)
		if errors.Is(err, errors.ErrMissingAccessToken) {
			r.metrics.StorageRefresh("missing_access_token")
		} else {
			r.metrics.StorageRefresh("failed")
		}
		logger.Warn().Err(err).Str("refresh_token", logging.MaskToken(refreshToken)).Msg("storage token refresh failed")
		return nil, err
	}
	r.metrics.StorageRefresh("ok")

	expiresIn := token.Extra("expires_in")
	result := &Result{
		AccessToken:  token.AccessToken,
		ExpiresIn:    expiresIn,
		TokenExpiry:  expiryFrom(expiresIn, token.Expiry),
		RefreshToken: token.RefreshToken,
	}

	update := credentials.TokenUpdate{AccessToken: result.AccessToken, TokenExpiry: result.TokenExpiry}
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		update.RefreshToken = token.RefreshToken
	}
	if err := r.repo.Update(ctx, userID, update); err != nil {
		result.StoreErr = errors.Join(errors.ErrPersistence, err)
		r.metrics.CredentialStoreWrite(false)
		logger.Warn().Err(err).Msg("storage token refreshed but credential store write failed")
		return result, nil
	}
	r.metrics.CredentialStoreWrite(true)
	logger.Debug().Time("token_expiry", result.TokenExpiry).Msg("storage token refreshed")
	return result, nil
}

// classify maps token endpoint errors onto the error taxonomy. x/oauth2 reports a 2xx response
// without access_token as a plain error rather than a RetrieveError.
func classify(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return errors.Join(errors.ErrRefreshFailed, err)
	}
	if strings.Contains(err.Error(), "missing access_token") {
		return errors.Join(errors.ErrMissingAccessToken, err)
	}
	return errors.Join(errors.ErrRefreshFailed, err)
}

// expiryFrom computes now + expires_in. A missing or unreadable value falls back to the
// expiry x/oauth2 derived, which may be zero.
func expiryFrom(expiresIn any, fallback time.Time) time.Time {
	var seconds float64
	switch v := expiresIn.(type) {
	case float64:
		seconds = v
	case int:
		seconds = float64(v)
	case int64:
		seconds = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return fallback
		}
		seconds = f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fallback
		}
		seconds = f
	default:
		return fallback
	}
	if seconds <= 0 {
		return fallback
	}
	return NowTimeFunc().Add(time.Duration(seconds * float64(time.Second)))
}
