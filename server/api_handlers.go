package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-credential-gateway/gateway"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/oauthmodel"
	"github.com/jrsteele09/go-credential-gateway/webhook"
	"github.com/rs/zerolog"
)

const maxRefreshBodyBytes = 64 << 10

// User-facing API messages.
const (
	messageAuthRequired       = "authentication required"
	messageMalformedBody      = "malformed request body"
	messageRefreshTokenNeeded = "refresh token is required"
	messageRefreshFailed      = "token refresh failed"
	messageNoAccessToken      = "no access token returned"
	messageUnexpected         = "unexpected error"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TokenRefreshHandler refreshes the caller's storage API access token. The user comes from
// RequireAPISession; the body only supplies the refresh token.
func (s *Server) TokenRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := gateway.UserFromContext(r.Context())
		if !user.Valid() {
			writeAPIError(w, http.StatusUnauthorized, apiErrorUnauthenticated, messageAuthRequired)
			return
		}

		var req oauthmodel.RefreshTokenRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRefreshBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeAPIError(w, http.StatusBadRequest, apiErrorValidation, messageMalformedBody)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeAPIError(w, http.StatusBadRequest, apiErrorValidation, messageRefreshTokenNeeded)
			return
		}

		result, err := s.storage.Refresh(r.Context(), user.ID, req.RefreshToken)
		if err != nil {
			status, code := apiErrorFor(err)
			writeAPIError(w, status, code, refreshErrorMessage(err))
			return
		}

		writeJSON(w, http.StatusOK, oauthmodel.RefreshTokenResponse{
			AccessToken: result.AccessToken,
			ExpiresIn:   result.ExpiresIn,
		})
	}
}

func refreshErrorMessage(err error) string {
	switch {
	case errors.Is(err, errors.ErrMissingRefreshToken):
		return messageRefreshTokenNeeded
	case errors.Is(err, errors.ErrMissingAccessToken):
		return messageNoAccessToken
	case errors.Is(err, errors.ErrRefreshFailed):
		return messageRefreshFailed
	default:
		return messageUnexpected
	}
}

// FunctionCallHandler authenticates a voice-assistant function call from the access token in
// its parameters and dispatches it. The token never reaches the function or the logs.
func (s *Server) FunctionCallHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		envelope, body, err := webhook.DecodeEnvelope(r.Body)
		if body != nil {
			logger.Debug().RawJSON("payload", webhook.RedactPayload(body)).Msg("function call received")
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, oauthmodel.FunctionCallResponse{Error: messageMalformedBody})
			return
		}

		validation := s.validator.Validate(r.Context(), envelope)
		if !validation.IsValid {
			writeJSON(w, http.StatusUnauthorized, oauthmodel.FunctionCallResponse{Error: validation.Error})
			return
		}

		result, err := s.functions.Dispatch(r.Context(), webhook.Call{
			Name:       envelope.Name,
			User:       validation.User,
			Parameters: validation.Parameters,
		})
		switch {
		case errors.Is(err, webhook.ErrUnknownFunction):
			writeJSON(w, http.StatusNotFound, oauthmodel.FunctionCallResponse{Error: "unknown function " + envelope.Name})
		case err != nil:
			logger.Error().Err(err).Str("function", envelope.Name).Msg("function call failed")
			writeJSON(w, http.StatusInternalServerError, oauthmodel.FunctionCallResponse{Error: "function call failed"})
		default:
			writeJSON(w, http.StatusOK, oauthmodel.FunctionCallResponse{Success: true, Result: result})
		}
	}
}
