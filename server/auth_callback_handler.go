package server

import (
	"net/http"

	"github.com/jrsteele09/go-credential-gateway/oauthmodel"
	"github.com/jrsteele09/go-credential-gateway/sessions"
	"github.com/rs/zerolog"
)

// AuthCallbackHandler completes the authorization-code sign-in. Every outcome, including a
// panic, ends in a redirect: the success target or the error page.
func (s *Server) AuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		fail := func(callbackErr oauthmodel.CallbackError) {
			s.metrics.CallbackOutcome(string(callbackErr.Outcome))
			logger.Warn().Str("outcome", string(callbackErr.Outcome)).Str("error", callbackErr.Code).Msg("sign-in callback failed")
			redirectWithError(w, r, callbackErr)
		}

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().Str("panic", panicMessage(rec)).Msg("sign-in callback panicked")
				fail(oauthmodel.CallbackError{
					Outcome:     oauthmodel.OutcomeUnexpected,
					Code:        oauthmodel.ErrorCodeUnexpected,
					Description: panicMessage(rec),
				})
			}
		}()

		params := oauthmodel.ParseCallbackParameters(r.URL.Query())

		if params.Error != "" {
			fail(oauthmodel.CallbackError{
				Outcome:     oauthmodel.OutcomeOAuthError,
				Code:        params.Error,
				Description: params.ErrorDescription,
			})
			return
		}

		if params.Code == "" {
			fail(oauthmodel.CallbackError{
				Outcome:     oauthmodel.OutcomeNoCode,
				Code:        oauthmodel.ErrorCodeNoCode,
				Description: oauthmodel.DescriptionNoCode,
			})
			return
		}

		session, cookies, err := s.provider.ExchangeCode(r.Context(), sessions.CodeExchange{
			Code:    params.Code,
			State:   params.State,
			Cookies: r.Cookies(),
		})
		for _, cookie := range cookies {
			http.SetCookie(w, cookie)
		}
		if err != nil {
			logger.Warn().Err(err).Msg("authorization code exchange failed")
			fail(oauthmodel.CallbackError{
				Outcome:     oauthmodel.OutcomeExchangeFailed,
				Code:        oauthmodel.ErrorCodeExchangeFailed,
				Description: sessions.DisplayMessage(err),
			})
			return
		}
		if session == nil {
			fail(oauthmodel.CallbackError{
				Outcome:     oauthmodel.OutcomeNoSession,
				Code:        oauthmodel.ErrorCodeNoSession,
				Description: oauthmodel.DescriptionNoSession,
			})
			return
		}

		s.metrics.CallbackOutcome(string(oauthmodel.OutcomeSuccess))
		logger.Info().Msg("sign-in completed")
		redirectSuccess(w, r, requestOrigin(r)+params.Next)
	}
}
