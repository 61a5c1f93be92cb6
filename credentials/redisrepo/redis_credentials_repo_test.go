package redisrepo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jrsteele09/go-credential-gateway/credentials"
	"github.com/jrsteele09/go-credential-gateway/credentials/redisrepo"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/stretchr/testify/require"
)

// Integration test against a real Redis, enabled by TEST_REDIS_URL.
func TestRedisCredentialsRepo(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	cli, err := redisrepo.Connect(ctx, redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })

	repo := redisrepo.New(cli)
	userID := "redisrepo-test-user"
	require.NoError(t, cli.Del(ctx, redisrepo.Key(userID)).Err())
	expiry := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("update without record", func(t *testing.T) {
		err := repo.Update(ctx, userID, credentials.TokenUpdate{AccessToken: "a", TokenExpiry: expiry})
		require.ErrorIs(t, err, errors.ErrRecordNotFound)
		exists, err := cli.Exists(ctx, redisrepo.Key(userID)).Result()
		require.NoError(t, err)
		require.Zero(t, exists)
	})

	require.NoError(t, repo.Seed(ctx, credentials.TokenRecord{UserID: userID, AccessToken: "old", RefreshToken: "rt", TokenExpiry: expiry}))

	t.Run("update access token", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, userID, credentials.TokenUpdate{AccessToken: "new", TokenExpiry: expiry.Add(time.Hour)}))

		record, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, "new", record.AccessToken)
		require.Equal(t, "rt", record.RefreshToken)
		require.Equal(t, expiry.Add(time.Hour), record.TokenExpiry)
	})

	t.Run("rotated refresh token", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, userID, credentials.TokenUpdate{AccessToken: "newer", TokenExpiry: expiry, RefreshToken: "rt2"}))

		record, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, "rt2", record.RefreshToken)
	})
}
