package refresh

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// expiryLeeway refreshes stored tokens slightly before they expire.
const expiryLeeway = time.Minute

// TokenSource returns an oauth2.TokenSource backed by the user's credential store record.
// A stored token that is still valid is returned as is; an expired one is refreshed through r.
func (r *Refresher) TokenSource(ctx context.Context, userID string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &storeTokenSource{ctx: ctx, refresher: r, userID: userID})
}

// Client returns an HTTP client that authenticates storage API calls as userID.
func (r *Refresher) Client(ctx context.Context, userID string) *http.Client {
	if r.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	}
	return oauth2.NewClient(ctx, r.TokenSource(ctx, userID))
}

type storeTokenSource struct {
	ctx       context.Context
	refresher *Refresher
	userID    string
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	record, err := s.refresher.repo.Get(s.ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("[TokenSource Token] loading credentials: %w", err)
	}
	if !record.Expired(NowTimeFunc(), expiryLeeway) {
		return &oauth2.Token{
			AccessToken:  record.AccessToken,
			RefreshToken: record.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       record.TokenExpiry,
		}, nil
	}

	result, err := s.refresher.Refresh(s.ctx, s.userID, record.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("[TokenSource Token] %w", err)
	}
	refreshToken := result.RefreshToken
	if refreshToken == "" {
		refreshToken = record.RefreshToken
	}
	return &oauth2.Token{
		AccessToken:  result.AccessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       result.TokenExpiry,
	}, nil
}
