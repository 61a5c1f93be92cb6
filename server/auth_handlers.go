package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-credential-gateway/oauthmodel"
	"github.com/jrsteele09/go-credential-gateway/sessions"
	"github.com/rs/zerolog"
)

const errorCodeSignInFailed = "signin_failed"

// SignInOAuthHandler starts an authorization-code sign-in. next survives the round trip as a
// query parameter of the callback URL.
func (s *Server) SignInOAuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := oauthmodel.SafeNext(r.URL.Query().Get("next"))
		redirectTo := s.config.GetCallbackURL() + "?" + url.Values{"next": {next}}.Encode()

		start, err := s.provider.StartSignIn(r.Context(), redirectTo)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("starting sign-in")
			redirectWithError(w, r, oauthmodel.CallbackError{
				Code:        errorCodeSignInFailed,
				Description: sessions.DisplayMessage(err),
			})
			return
		}
		for _, cookie := range start.Cookies {
			http.SetCookie(w, cookie)
		}
		redirectSuccess(w, r, start.AuthURL)
	}
}

// SignOutHandler clears the session cookies. Provider-side logout is best effort.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookies, err := s.provider.SignOut(r.Context(), r.Cookies())
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("provider sign-out failed, clearing cookies anyway")
		}
		for _, cookie := range cookies {
			http.SetCookie(w, cookie)
		}
		redirectSuccess(w, r, "/")
	}
}

type authCodeErrorPage struct {
	pageData
	ErrorCode string
	Message   string
}

func (s *Server) AuthCodeErrorHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("auth_code_error.html")

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		code := query.Get("error")
		if code == "" {
			code = oauthmodel.ErrorCodeUnexpected
		}
		s.render(w, r, tmpl, authCodeErrorPage{
			pageData:  s.newPageData(r, "Sign-in error"),
			ErrorCode: code,
			Message:   query.Get("description"),
		})
	}
}
