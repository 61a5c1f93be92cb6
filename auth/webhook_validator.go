// Package auth authenticates inbound voice-assistant function calls. The platform cannot
// send an Authorization header, so the caller's session access token travels inside the
// call parameters as accessToken.
package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/internal/logging"
	"github.com/jrsteele09/go-credential-gateway/internal/metrics"
	"github.com/jrsteele09/go-credential-gateway/users"
	"github.com/jrsteele09/go-credential-gateway/webhook"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const accessTokenParam = "accessToken"

// User-facing validation messages.
const (
	MessageAccessTokenNotFound = "access token not found in function call parameters"
	MessageInvalidAccessToken  = "invalid access token"
)

// BearerResolver resolves a raw session access token to its user, as presenting it in an
// Authorization: Bearer header would.
type BearerResolver interface {
	UserFromBearer(ctx context.Context, token string) (*users.User, error)
}

// ValidationResult is the outcome of validating one envelope.
type ValidationResult struct {
	IsValid    bool
	User       *users.User
	Error      string          // User-facing message, empty when valid
	Err        error           // Classified cause, for logs
	Parameters json.RawMessage // Call parameters without accessToken, only when valid
}

// WebhookValidator is stateless: every Validate makes at most one resolver call, with no cache and no retry.
type WebhookValidator struct {
	resolver BearerResolver
	metrics  *metrics.Metrics
}

type Option func(*WebhookValidator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *WebhookValidator) {
		v.metrics = m
	}
}

func NewWebhookValidator(resolver BearerResolver, opts ...Option) *WebhookValidator {
	v := &WebhookValidator{resolver: resolver}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate extracts parameters.accessToken, resolves it to a user and returns the
// parameters with that key removed. A missing token fails without calling the resolver.
func (v *WebhookValidator) Validate(ctx context.Context, envelope webhook.Envelope) ValidationResult {
	logger := zerolog.Ctx(ctx).With().Str("function", envelope.Name).Logger()

	token, ok := accessToken(envelope.Parameters)
	if !ok {
		v.metrics.WebhookValidation(false)
		logger.Debug().Msg("function call without access token")
		return ValidationResult{Error: MessageAccessTokenNotFound, Err: errors.ErrAccessTokenNotFound}
	}

	user, err := v.resolver.UserFromBearer(ctx, token)
	if err != nil || !user.Valid() {
		v.metrics.WebhookValidation(false)
		cause := errors.ErrInvalidAccessToken
		if err != nil {
			cause = errors.Join(errors.ErrInvalidAccessToken, err)
		}
		logger.Warn().Err(err).Str("access_token", logging.MaskToken(token)).Msg("function call access token rejected")
		return ValidationResult{Error: MessageInvalidAccessToken, Err: cause}
	}

	params, err := stripAccessToken(envelope.Parameters)
	if err != nil {
		// Never forward parameters the token could not be stripped from.
		v.metrics.WebhookValidation(false)
		return ValidationResult{Error: MessageInvalidAccessToken, Err: errors.Join(errors.ErrInvalidAccessToken, err)}
	}

	v.metrics.WebhookValidation(true)
	return ValidationResult{IsValid: true, User: user, Parameters: params}
}

// stripAccessToken removes every accessToken member, so a repeated key cannot survive.
func stripAccessToken(params json.RawMessage) (json.RawMessage, error) {
	out := params
	for gjson.GetBytes(out, accessTokenParam).Exists() {
		stripped, err := sjson.DeleteBytes(out, accessTokenParam)
		if err != nil {
			return nil, err
		}
		if len(stripped) >= len(out) {
			return nil, fmt.Errorf("[WebhookValidator stripAccessToken] %s not removed", accessTokenParam)
		}
		out = stripped
	}
	return out, nil
}

// accessToken reads parameters.accessToken. Absent, null, false and empty all count as missing.
func accessToken(params json.RawMessage) (string, bool) {
	if len(params) == 0 || !gjson.ValidBytes(params) {
		return "", false
	}
	parsed := gjson.ParseBytes(params)
	if !parsed.IsObject() {
		return "", false
	}
	value := parsed.Get(accessTokenParam)
	switch value.Type {
	case gjson.Null, gjson.False:
		return "", false
	}
	if !value.Exists() || value.String() == "" {
		return "", false
	}
	return value.String(), true
}
