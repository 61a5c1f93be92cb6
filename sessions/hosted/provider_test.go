package hosted_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/sessions"
	"github.com/jrsteele09/go-credential-gateway/sessions/hosted"
	"github.com/jrsteele09/go-credential-gateway/token/jwt"
	"github.com/jrsteele09/go-credential-gateway/users"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	server      *httptest.Server
	tokenCalls  atomic.Int32
	userCalls   atomic.Int32
	logoutCalls atomic.Int32
	tokenStatus int
	tokenBody   map[string]any
	userStatus  int
	lastGrant   string
	lastBody    map[string]any
	lastAPIKey  string
	lastBearer  string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		tokenStatus: http.StatusOK,
		userStatus:  http.StatusOK,
		tokenBody: map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "bearer",
			"expires_in":    3600,
			"user":          map[string]any{"id": "user-1", "email": "ada@example.com", "user_metadata": map[string]any{"full_name": "Ada"}},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		b.tokenCalls.Add(1)
		b.lastGrant = r.URL.Query().Get("grant_type")
		b.lastAPIKey = r.Header.Get("apikey")
		b.lastBody = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&b.lastBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.tokenStatus)
		if b.tokenStatus != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant", "error_description": "Invalid Refresh Token: Already Used"})
			return
		}
		_ = json.NewEncoder(w).Encode(b.tokenBody)
	})
	mux.HandleFunc("GET /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		b.userCalls.Add(1)
		b.lastBearer = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.userStatus)
		if b.userStatus != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{"code": b.userStatus, "msg": "invalid JWT"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "user-1", "email": "ada@example.com"})
	})
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		b.logoutCalls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

type testFixture struct {
	backend  *fakeBackend
	provider *hosted.Provider
	codec    sessions.CookieCodec
	now      time.Time
}

func setupTestFixture(t *testing.T, jwtSecret string) *testFixture {
	t.Helper()
	backend := newFakeBackend(t)
	codec := sessions.NewCookieCodec("sb", false, time.Hour)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	provider := hosted.New(hosted.Config{
		BaseURL:       backend.server.URL + "/",
		APIKey:        "anon-key",
		JWTSecret:     jwtSecret,
		OAuthProvider: "google",
		Cookies:       codec,
	}, hosted.WithNowTime(func() time.Time { return now }))

	return &testFixture{backend: backend, provider: provider, codec: codec, now: now}
}

func TestProvider_Refresh(t *testing.T) {
	t.Run("no cookies means no session and no upstream call", func(t *testing.T) {
		f := setupTestFixture(t, "")
		result, err := f.provider.Refresh(context.Background(), nil)
		require.NoError(t, err)
		require.Nil(t, result.Session)
		require.Empty(t, result.Cookies)
		require.Zero(t, f.backend.userCalls.Load())
		require.Zero(t, f.backend.tokenCalls.Load())
	})

	t.Run("valid access token verified upstream", func(t *testing.T) {
		f := setupTestFixture(t, "")
		cookies := []*http.Cookie{{Name: "sb-access-token", Value: "access"}, {Name: "sb-refresh-token", Value: "refresh"}}

		result, err := f.provider.Refresh(context.Background(), cookies)
		require.NoError(t, err)
		require.NotNil(t, result.Session)
		require.Equal(t, "user-1", result.Session.User.ID)
		require.Empty(t, result.Cookies)
		require.Equal(t, "Bearer access", f.backend.lastBearer)
		require.Zero(t, f.backend.tokenCalls.Load())
	})

	t.Run("valid access token verified locally", func(t *testing.T) {
		f := setupTestFixture(t, "project-secret")
		token, err := jwt.NewCreator("project-secret", "test", time.Hour).CreateAccessToken(&users.User{ID: "user-9"})
		require.NoError(t, err)

		result, err := f.provider.Refresh(context.Background(), []*http.Cookie{{Name: "sb-access-token", Value: token}})
		require.NoError(t, err)
		require.Equal(t, "user-9", result.Session.User.ID)
		require.Zero(t, f.backend.userCalls.Load())
	})

	t.Run("expired access token is refreshed", func(t *testing.T) {
		f := setupTestFixture(t, "")
		f.backend.userStatus = http.StatusUnauthorized
		cookies := []*http.Cookie{{Name: "sb-access-token", Value: "stale"}, {Name: "sb-refresh-token", Value: "refresh"}}

		result, err := f.provider.Refresh(context.Background(), cookies)
		require.NoError(t, err)
		require.NotNil(t, result.Session)
		require.Equal(t, "new-access", result.Session.AccessToken)
		require.Equal(t, f.now.Add(time.Hour), result.Session.ExpiresAt)
		require.Equal(t, "refresh_token", f.backend.lastGrant)
		require.Equal(t, "refresh", f.backend.lastBody["refresh_token"])
		require.Equal(t, "anon-key", f.backend.lastAPIKey)

		stored := f.codec.Decode(result.Cookies)
		require.Equal(t, "new-access", stored.AccessToken)
		require.Equal(t, "new-refresh", stored.RefreshToken)
	})

	t.Run("rejected refresh token clears cookies", func(t *testing.T) {
		f := setupTestFixture(t, "")
		f.backend.tokenStatus = http.StatusBadRequest

		result, err := f.provider.Refresh(context.Background(), []*http.Cookie{{Name: "sb-refresh-token", Value: "used"}})
		require.NoError(t, err)
		require.Nil(t, result.Session)
		require.Len(t, result.Cookies, 3)
		require.True(t, f.codec.Decode(result.Cookies).Empty())
	})

	t.Run("backend outage is returned as upstream error", func(t *testing.T) {
		f := setupTestFixture(t, "")
		f.backend.tokenStatus = http.StatusServiceUnavailable

		_, err := f.provider.Refresh(context.Background(), []*http.Cookie{{Name: "sb-refresh-token", Value: "refresh"}})
		require.Error(t, err)
		require.ErrorIs(t, err, errors.ErrUpstream)
	})
}

func TestProvider_SignInAndExchange(t *testing.T) {
	f := setupTestFixture(t, "")

	start, err := f.provider.StartSignIn(context.Background(), "http://app.local/auth/callback?next=%2Fprofile")
	require.NoError(t, err)

	authURL, err := url.Parse(start.AuthURL)
	require.NoError(t, err)
	require.Equal(t, "/auth/v1/authorize", authURL.Path)
	require.Equal(t, "google", authURL.Query().Get("provider"))
	require.Equal(t, "s256", authURL.Query().Get("code_challenge_method"))
	require.NotEmpty(t, authURL.Query().Get("code_challenge"))
	require.Equal(t, "http://app.local/auth/callback?next=%2Fprofile", authURL.Query().Get("redirect_to"))

	verifier := sessions.FindCookie(start.Cookies, f.codec.VerifierName())
	require.NotEmpty(t, verifier)

	t.Run("exchange succeeds", func(t *testing.T) {
		session, cookies, err := f.provider.ExchangeCode(context.Background(), sessions.CodeExchange{Code: "auth-code", Cookies: start.Cookies})
		require.NoError(t, err)
		require.NotNil(t, session)
		require.Equal(t, "Ada", session.User.Name)
		require.Equal(t, "pkce", f.backend.lastGrant)
		require.Equal(t, "auth-code", f.backend.lastBody["auth_code"])
		require.Equal(t, verifier, f.backend.lastBody["code_verifier"])
		require.Equal(t, "new-access", sessions.FindCookie(cookies, "sb-access-token"))
		require.Empty(t, sessions.FindCookie(cookies, f.codec.VerifierName()))
	})

	t.Run("exchange without verifier fails before upstream", func(t *testing.T) {
		calls := f.backend.tokenCalls.Load()
		_, _, err := f.provider.ExchangeCode(context.Background(), sessions.CodeExchange{Code: "auth-code"})
		require.ErrorIs(t, err, errors.ErrExchangeFailed)
		require.Equal(t, calls, f.backend.tokenCalls.Load())
	})

	t.Run("provider rejection carries provider message", func(t *testing.T) {
		f.backend.tokenStatus = http.StatusBadRequest
		defer func() { f.backend.tokenStatus = http.StatusOK }()

		_, _, err := f.provider.ExchangeCode(context.Background(), sessions.CodeExchange{Code: "bad", Cookies: start.Cookies})
		require.ErrorIs(t, err, errors.ErrExchangeFailed)
		require.Equal(t, "Invalid Refresh Token: Already Used", sessions.DisplayMessage(err))
	})

	t.Run("response without tokens yields no session", func(t *testing.T) {
		f.backend.tokenBody = map[string]any{"token_type": "bearer"}
		session, _, err := f.provider.ExchangeCode(context.Background(), sessions.CodeExchange{Code: "auth-code", Cookies: start.Cookies})
		require.NoError(t, err)
		require.Nil(t, session)
	})
}

func TestProvider_UserFromBearer(t *testing.T) {
	f := setupTestFixture(t, "project-secret")

	user, err := f.provider.UserFromBearer(context.Background(), "voice-token")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.Equal(t, int32(1), f.backend.userCalls.Load())

	f.backend.userStatus = http.StatusUnauthorized
	_, err = f.provider.UserFromBearer(context.Background(), "revoked")
	require.ErrorIs(t, err, errors.ErrUnauthenticated)
	require.Equal(t, int32(2), f.backend.userCalls.Load())

	_, err = f.provider.UserFromBearer(context.Background(), "")
	require.ErrorIs(t, err, errors.ErrInvalidAccessToken)
	require.Equal(t, int32(2), f.backend.userCalls.Load())
}

func TestProvider_SignOut(t *testing.T) {
	f := setupTestFixture(t, "")

	cookies, err := f.provider.SignOut(context.Background(), []*http.Cookie{{Name: "sb-access-token", Value: "access"}})
	require.NoError(t, err)
	require.Equal(t, int32(1), f.backend.logoutCalls.Load())
	require.True(t, f.codec.Decode(cookies).Empty())

	cookies, err = f.provider.SignOut(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, cookies)
	require.Equal(t, int32(1), f.backend.logoutCalls.Load())
}
