package credentials

import (
	"context"
	"time"
)

// TokenRecord is a user's stored OAuth token pair for the third-party storage API.
// There is at most one record per user.
type TokenRecord struct {
	UserID       string    // Primary session principal the record belongs to (unique)
	AccessToken  string    // Short-lived storage API bearer token
	RefreshToken string    // Long-lived renewal token, stored once at grant time
	TokenExpiry  time.Time // Absolute expiry of AccessToken
}

// Expired reports whether the access token is unusable at now, allowing leeway for clock skew.
func (r *TokenRecord) Expired(now time.Time, leeway time.Duration) bool {
	if r == nil || r.AccessToken == "" {
		return true
	}
	return !now.Add(leeway).Before(r.TokenExpiry)
}

// TokenUpdate is the mutation applied after a successful refresh. RefreshToken is only
// written when the authorization server rotated it; empty keeps the stored value.
type TokenUpdate struct {
	AccessToken  string
	TokenExpiry  time.Time
	RefreshToken string
}

// Repo is the credential store. Records are created by the initial authorization grant
// elsewhere; this subsystem only reads them and updates the access token in place.
// Concurrent updates for the same user are last-writer-wins.
type Repo interface {
	// Get returns the user's record or errors.ErrRecordNotFound.
	Get(ctx context.Context, userID string) (*TokenRecord, error)
	// Update overwrites the access token and expiry. Returns errors.ErrRecordNotFound when
	// the user has no record; it never creates one.
	Update(ctx context.Context, userID string, update TokenUpdate) error
}
