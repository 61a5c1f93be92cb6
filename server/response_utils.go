package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/oauthmodel"
	"github.com/rs/zerolog/log"
)

// API error codes, the "error" field of every JSON error body.
const (
	apiErrorUnauthenticated    = "unauthenticated"
	apiErrorValidation         = "validation_error"
	apiErrorRefreshFailed      = "refresh_failed"
	apiErrorMissingAccessToken = "missing_access_token"
	apiErrorUnexpected         = "unexpected"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("writing JSON response")
	}
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, oauthmodel.APIError{Error: code, Message: message})
}

// apiErrorFor maps an error onto the API error code and status it is reported with.
func apiErrorFor(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrUnauthenticated):
		return http.StatusUnauthorized, apiErrorUnauthenticated
	case errors.Is(err, errors.ErrValidation):
		return http.StatusBadRequest, apiErrorValidation
	case errors.Is(err, errors.ErrMissingAccessToken):
		return http.StatusBadRequest, apiErrorMissingAccessToken
	case errors.Is(err, errors.ErrUpstream):
		return http.StatusBadRequest, apiErrorRefreshFailed
	default:
		return http.StatusInternalServerError, apiErrorUnexpected
	}
}

// redirectSuccess sends the browser on with 303 so the target is always fetched with GET.
func redirectSuccess(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// redirectWithError sends the browser to the sign-in error page.
func redirectWithError(w http.ResponseWriter, r *http.Request, callbackErr oauthmodel.CallbackError) {
	http.Redirect(w, r, callbackErr.Location(), http.StatusSeeOther)
}
