package pgrepo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jrsteele09/go-credential-gateway/credentials"
	"github.com/jrsteele09/go-credential-gateway/credentials/pgrepo"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/stretchr/testify/require"
)

// Integration test against a real database, enabled by TEST_DATABASE_URL.
func TestPgCredentialsRepo(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgrepo.Connect(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := pgrepo.New(pool)
	require.NoError(t, repo.Migrate(ctx))

	userID := "pgrepo-test-user"
	expiry := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = pool.Exec(ctx, `DELETE FROM oauth_tokens WHERE user_id = $1`, userID)
	require.NoError(t, err)

	t.Run("update without record", func(t *testing.T) {
		err := repo.Update(ctx, userID, credentials.TokenUpdate{AccessToken: "a", TokenExpiry: expiry})
		require.ErrorIs(t, err, errors.ErrRecordNotFound)
		_, err = repo.Get(ctx, userID)
		require.ErrorIs(t, err, errors.ErrRecordNotFound)
	})

	_, err = pool.Exec(ctx,
		`INSERT INTO oauth_tokens (user_id, access_token, refresh_token, token_expiry) VALUES ($1, $2, $3, $4)`,
		userID, "old", "rt", expiry)
	require.NoError(t, err)

	t.Run("update access token", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, userID, credentials.TokenUpdate{AccessToken: "new", TokenExpiry: expiry.Add(time.Hour)}))

		record, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, "new", record.AccessToken)
		require.Equal(t, "rt", record.RefreshToken)
		require.True(t, expiry.Add(time.Hour).Equal(record.TokenExpiry))
	})

	t.Run("rotated refresh token", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, userID, credentials.TokenUpdate{AccessToken: "newer", TokenExpiry: expiry, RefreshToken: "rt2"}))

		record, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, "rt2", record.RefreshToken)
	})
}
