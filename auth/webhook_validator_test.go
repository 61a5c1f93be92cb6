package auth_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-credential-gateway/auth"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/internal/metrics"
	"github.com/jrsteele09/go-credential-gateway/sessions"
	fakesessionprovider "github.com/jrsteele09/go-credential-gateway/sessions/repofakes"
	"github.com/jrsteele09/go-credential-gateway/users"
	"github.com/jrsteele09/go-credential-gateway/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	provider  *fakesessionprovider.FakeProvider
	registry  *prometheus.Registry
	validator *auth.WebhookValidator
	user      *users.User
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	provider := fakesessionprovider.NewFakeProvider(sessions.NewCookieCodec("sb", false, time.Hour))
	user := &users.User{ID: "user-1", Email: "ada@example.com"}
	provider.AddBearer("valid-token", user)

	registry := prometheus.NewRegistry()
	return &testFixture{
		provider:  provider,
		registry:  registry,
		validator: auth.NewWebhookValidator(provider, auth.WithMetrics(metrics.New(registry))),
		user:      user,
	}
}

func envelope(params string) webhook.Envelope {
	return webhook.Envelope{Name: "searchDocuments", Parameters: json.RawMessage(params)}
}

func TestWebhookValidator_Validate(t *testing.T) {
	t.Run("missing access token makes no upstream call", func(t *testing.T) {
		for _, params := range []string{
			``,
			`{}`,
			`{"query":"x"}`,
			`{"accessToken":""}`,
			`{"accessToken":null}`,
			`{"accessToken":false}`,
			`["accessToken"]`,
			`"accessToken"`,
		} {
			f := setupTestFixture(t)
			result := f.validator.Validate(context.Background(), envelope(params))

			require.False(t, result.IsValid, params)
			require.Equal(t, "access token not found in function call parameters", result.Error)
			require.ErrorIs(t, result.Err, errors.ErrAccessTokenNotFound)
			require.ErrorIs(t, result.Err, errors.ErrUnauthenticated)
			require.Nil(t, result.User)
			require.Nil(t, result.Parameters)
			require.Zero(t, f.provider.Calls("UserFromBearer"), params)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		f := setupTestFixture(t)
		result := f.validator.Validate(context.Background(), envelope(`{"accessToken":"forged","query":"x"}`))

		require.False(t, result.IsValid)
		require.Equal(t, "invalid access token", result.Error)
		require.ErrorIs(t, result.Err, errors.ErrInvalidAccessToken)
		require.Nil(t, result.Parameters)
		require.Equal(t, 1, f.provider.Calls("UserFromBearer"))
	})

	t.Run("resolver returns no usable user", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.AddBearer("anonymous", &users.User{})
		result := f.validator.Validate(context.Background(), envelope(`{"accessToken":"anonymous"}`))

		require.False(t, result.IsValid)
		require.Equal(t, "invalid access token", result.Error)
	})

	t.Run("valid token strips only accessToken and keeps order", func(t *testing.T) {
		cases := map[string]string{
			`{"z":1,"accessToken":"valid-token","a":{"n":[1,2]},"m":"x"}`: `{"z":1,"a":{"n":[1,2]},"m":"x"}`,
			`{"accessToken":"valid-token","query":"budget","limit":5}`:    `{"query":"budget","limit":5}`,
			`{"query":"budget","limit":5,"accessToken":"valid-token"}`:    `{"query":"budget","limit":5}`,
			`{"accessToken":"valid-token"}`:                               `{}`,
		}
		for in, want := range cases {
			f := setupTestFixture(t)
			result := f.validator.Validate(context.Background(), envelope(in))

			require.True(t, result.IsValid, in)
			require.Empty(t, result.Error)
			require.NoError(t, result.Err)
			require.Equal(t, f.user, result.User)
			require.Equal(t, want, string(result.Parameters))
			require.NotContains(t, string(result.Parameters), "valid-token")
			require.Equal(t, 1, f.provider.Calls("UserFromBearer"))
		}
	})

	t.Run("repeated accessToken is stripped everywhere", func(t *testing.T) {
		cases := map[string]string{
			`{"accessToken":"valid-token","q":1,"accessToken":"valid-token"}`:         `{"q":1}`,
			`{"accessToken":"valid-token","q":1,"accessToken":"second-secret"}`:       `{"q":1}`,
			`{"q":1,"accessToken":"valid-token","accessToken":"x","accessToken":"y"}`: `{"q":1}`,
		}
		for in, want := range cases {
			f := setupTestFixture(t)
			result := f.validator.Validate(context.Background(), envelope(in))

			require.True(t, result.IsValid, in)
			require.JSONEq(t, want, string(result.Parameters))
			require.NotContains(t, string(result.Parameters), "accessToken")
			require.NotContains(t, string(result.Parameters), "valid-token")
			require.NotContains(t, string(result.Parameters), "second-secret")
		}
	})

	t.Run("input parameters are not mutated", func(t *testing.T) {
		f := setupTestFixture(t)
		in := envelope(`{"accessToken":"valid-token","query":"x"}`)
		f.validator.Validate(context.Background(), in)
		require.True(t, strings.Contains(string(in.Parameters), "valid-token"))
	})

	t.Run("same envelope twice resolves the same user", func(t *testing.T) {
		f := setupTestFixture(t)
		in := envelope(`{"accessToken":"valid-token","query":"x"}`)

		first := f.validator.Validate(context.Background(), in)
		second := f.validator.Validate(context.Background(), in)

		require.True(t, first.IsValid)
		require.True(t, second.IsValid)
		require.Equal(t, first.User, second.User)
		require.Equal(t, first.Parameters, second.Parameters)
		require.Equal(t, 2, f.provider.Calls("UserFromBearer"))
	})

	t.Run("metrics", func(t *testing.T) {
		f := setupTestFixture(t)
		f.validator.Validate(context.Background(), envelope(`{"accessToken":"valid-token"}`))
		f.validator.Validate(context.Background(), envelope(`{}`))
		f.validator.Validate(context.Background(), envelope(`{}`))

		expected := `
# HELP credential_gateway_webhook_validations_total Voice webhook credential validations by result.
# TYPE credential_gateway_webhook_validations_total counter
credential_gateway_webhook_validations_total{result="invalid"} 2
credential_gateway_webhook_validations_total{result="valid"} 1
`
		require.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "credential_gateway_webhook_validations_total"))
	})
}
