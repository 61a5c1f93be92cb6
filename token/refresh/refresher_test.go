package refresh_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-credential-gateway/credentials"
	credentialsrepofake "github.com/jrsteele09/go-credential-gateway/credentials/repofake"
	"github.com/jrsteele09/go-credential-gateway/internal/config"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/internal/metrics"
	"github.com/jrsteele09/go-credential-gateway/token/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type tokenEndpoint struct {
	server   *httptest.Server
	calls    atomic.Int32
	status   int
	body     map[string]any
	lastForm url.Values
}

func newTokenEndpoint(t *testing.T) *tokenEndpoint {
	t.Helper()
	te := &tokenEndpoint{
		status: http.StatusOK,
		body:   map[string]any{"access_token": "fresh-access", "token_type": "Bearer", "expires_in": 3600},
	}
	te.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		te.calls.Add(1)
		_ = r.ParseForm()
		te.lastForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(te.status)
		if te.status != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant", "error_description": "Token has been expired or revoked."})
			return
		}
		_ = json.NewEncoder(w).Encode(te.body)
	}))
	t.Cleanup(te.server.Close)
	return te
}

type testFixture struct {
	endpoint  *tokenEndpoint
	repo      *credentialsrepofake.FakeCredentialsRepo
	registry  *prometheus.Registry
	refresher *refresh.Refresher
	now       time.Time
	seeded    credentials.TokenRecord
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	refresh.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { refresh.NowTimeFunc = time.Now })

	endpoint := newTokenEndpoint(t)
	repo := credentialsrepofake.NewFakeCredentialsRepo()
	seeded := credentials.TokenRecord{UserID: "user-1", AccessToken: "stale-access", RefreshToken: "stored-refresh", TokenExpiry: now.Add(-time.Hour)}
	repo.Upsert(seeded)

	cfg := &config.Config{Storage: config.StorageOAuth{
		ClientID:     "storage-client",
		ClientSecret: "storage-secret",
		TokenURL:     endpoint.server.URL,
	}}
	registry := prometheus.NewRegistry()
	refresher := refresh.NewRefresher(cfg, repo,
		refresh.WithHTTPClient(endpoint.server.Client()),
		refresh.WithMetrics(metrics.New(registry)),
	)
	return &testFixture{endpoint: endpoint, repo: repo, registry: registry, refresher: refresher, now: now, seeded: seeded}
}

func TestRefresher_Refresh(t *testing.T) {
	t.Run("missing refresh token makes no network call", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.refresher.Refresh(context.Background(), "user-1", "  ")
		require.ErrorIs(t, err, errors.ErrMissingRefreshToken)
		require.ErrorIs(t, err, errors.ErrValidation)
		require.Zero(t, f.endpoint.calls.Load())
	})

	t.Run("missing user makes no network call", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.refresher.Refresh(context.Background(), "", "stored-refresh")
		require.ErrorIs(t, err, errors.ErrMissingUserID)
		require.Zero(t, f.endpoint.calls.Load())
	})

	t.Run("success persists expiry and returns expires_in verbatim", func(t *testing.T) {
		f := setupTestFixture(t)

		result, err := f.refresher.Refresh(context.Background(), "user-1", "stored-refresh")
		require.NoError(t, err)
		require.NoError(t, result.StoreErr)
		require.Equal(t, "fresh-access", result.AccessToken)
		require.EqualValues(t, 3600, result.ExpiresIn)
		require.Equal(t, f.now.Add(3600*time.Second), result.TokenExpiry)

		require.Equal(t, int32(1), f.endpoint.calls.Load())
		require.Equal(t, "refresh_token", f.endpoint.lastForm.Get("grant_type"))
		require.Equal(t, "stored-refresh", f.endpoint.lastForm.Get("refresh_token"))
		require.Equal(t, "storage-client", f.endpoint.lastForm.Get("client_id"))
		require.Equal(t, "storage-secret", f.endpoint.lastForm.Get("client_secret"))

		record, err := f.repo.Get(context.Background(), "user-1")
		require.NoError(t, err)
		require.Equal(t, "fresh-access", record.AccessToken)
		require.Equal(t, f.now.Add(3600*time.Second), record.TokenExpiry)
		require.Equal(t, "stored-refresh", record.RefreshToken)

		require.Equal(t, float64(1), counterValue(t, f.registry, "credential_gateway_storage_token_refreshes_total", "ok"))
	})

	t.Run("rotated refresh token is stored", func(t *testing.T) {
		f := setupTestFixture(t)
		f.endpoint.body["refresh_token"] = "rotated-refresh"

		result, err := f.refresher.Refresh(context.Background(), "user-1", "stored-refresh")
		require.NoError(t, err)
		require.Equal(t, "rotated-refresh", result.RefreshToken)

		record, err := f.repo.Get(context.Background(), "user-1")
		require.NoError(t, err)
		require.Equal(t, "rotated-refresh", record.RefreshToken)
	})

	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		t.Run("upstream "+http.StatusText(status)+" leaves store unchanged", func(t *testing.T) {
			f := setupTestFixture(t)
			f.endpoint.status = status

			result, err := f.refresher.Refresh(context.Background(), "user-1", "stored-refresh")
			require.Nil(t, result)
			require.ErrorIs(t, err, errors.ErrRefreshFailed)
			require.ErrorIs(t, err, errors.ErrUpstream)
			require.Equal(t, int32(1), f.endpoint.calls.Load())

			record, err := f.repo.Get(context.Background(), "user-1")
			require.NoError(t, err)
			require.Equal(t, f.seeded, *record)
			require.Zero(t, f.repo.Writes())
		})
	}

	t.Run("success without access token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.endpoint.body = map[string]any{"token_type": "Bearer", "expires_in": 3600}

		_, err := f.refresher.Refresh(context.Background(), "user-1", "stored-refresh")
		require.ErrorIs(t, err, errors.ErrMissingAccessToken)
		require.Zero(t, f.repo.Writes())
	})

	t.Run("store failure still returns the token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.repo.UpdateErr = errors.Wrapf(context.DeadlineExceeded, "db write")

		result, err := f.refresher.Refresh(context.Background(), "user-1", "stored-refresh")
		require.NoError(t, err)
		require.Equal(t, "fresh-access", result.AccessToken)
		require.EqualValues(t, 3600, result.ExpiresIn)
		require.ErrorIs(t, result.StoreErr, errors.ErrPersistence)
		require.ErrorIs(t, result.StoreErr, context.DeadlineExceeded)

		require.Equal(t, float64(1), counterValue(t, f.registry, "credential_gateway_credential_store_writes_total", "failed"))
		require.Equal(t, float64(1), counterValue(t, f.registry, "credential_gateway_storage_token_refreshes_total", "ok"))
	})

	t.Run("user without a record still gets the token", func(t *testing.T) {
		f := setupTestFixture(t)

		result, err := f.refresher.Refresh(context.Background(), "user-2", "other-refresh")
		require.NoError(t, err)
		require.ErrorIs(t, result.StoreErr, errors.ErrRecordNotFound)
		_, err = f.repo.Get(context.Background(), "user-2")
		require.ErrorIs(t, err, errors.ErrRecordNotFound)
	})
}

func TestRefresher_TokenSource(t *testing.T) {
	t.Run("valid stored token needs no refresh", func(t *testing.T) {
		f := setupTestFixture(t)
		f.repo.Upsert(credentials.TokenRecord{UserID: "user-1", AccessToken: "good", RefreshToken: "stored-refresh", TokenExpiry: f.now.Add(time.Hour)})

		token, err := f.refresher.TokenSource(context.Background(), "user-1").Token()
		require.NoError(t, err)
		require.Equal(t, "good", token.AccessToken)
		require.Zero(t, f.endpoint.calls.Load())
	})

	t.Run("expired stored token is refreshed and persisted", func(t *testing.T) {
		f := setupTestFixture(t)

		token, err := f.refresher.TokenSource(context.Background(), "user-1").Token()
		require.NoError(t, err)
		require.Equal(t, "fresh-access", token.AccessToken)
		require.Equal(t, "stored-refresh", token.RefreshToken)
		require.Equal(t, int32(1), f.endpoint.calls.Load())
		require.Equal(t, 1, f.repo.Writes())
	})

	t.Run("user without record", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.refresher.TokenSource(context.Background(), "nobody").Token()
		require.ErrorIs(t, err, errors.ErrRecordNotFound)
	})
}

func counterValue(t *testing.T, registry *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if pair.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}
