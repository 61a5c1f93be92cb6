package webhook

import (
	"context"
	"time"

	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/internal/utils"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	FunctionGetCurrentUser         = "getCurrentUser"
	FunctionCheckStorageConnection = "checkStorageConnection"
)

// StorageTokenSource yields storage API tokens for a user, refreshing them when needed.
type StorageTokenSource interface {
	TokenSource(ctx context.Context, userID string) oauth2.TokenSource
}

type CurrentUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// GetCurrentUser reports who the voice assistant is acting for.
func GetCurrentUser() HandlerFunc {
	return func(_ context.Context, call Call) (any, error) {
		return CurrentUser{
			ID:    call.User.ID,
			Email: call.User.Email,
			Name:  call.User.DisplayName(),
		}, nil
	}
}

type StorageConnection struct {
	Connected bool       `json:"connected"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// CheckStorageConnection reports whether the caller has a usable storage credential,
// refreshing an expired access token on the way.
func CheckStorageConnection(source StorageTokenSource) HandlerFunc {
	return func(ctx context.Context, call Call) (any, error) {
		return StorageStatus(ctx, source, call.User.ID), nil
	}
}

// StorageStatus resolves userID's storage token and describes it. Failures are reported
// in Reason rather than returned.
func StorageStatus(ctx context.Context, source StorageTokenSource, userID string) StorageConnection {
	token, err := source.TokenSource(ctx, userID).Token()
	switch {
	case errors.Is(err, errors.ErrRecordNotFound):
		return StorageConnection{Reason: "not_connected"}
	case err != nil:
		zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("storage credential unusable")
		return StorageConnection{Reason: "refresh_failed"}
	}

	status := StorageConnection{Connected: token.Valid()}
	if !token.Expiry.IsZero() {
		status.ExpiresAt = utils.Ptr(token.Expiry)
	}
	if !status.Connected {
		status.Reason = "expired"
	}
	return status
}

// RegisterBuiltins installs the functions every deployment exposes.
func RegisterBuiltins(registry *Registry, source StorageTokenSource) {
	registry.Register(FunctionGetCurrentUser, GetCurrentUser())
	registry.Register(FunctionCheckStorageConnection, CheckStorageConnection(source))
}
