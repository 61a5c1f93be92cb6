package server

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-credential-gateway/gateway"
	"github.com/jrsteele09/go-credential-gateway/oauthmodel"
	"github.com/jrsteele09/go-credential-gateway/users"
	"github.com/jrsteele09/go-credential-gateway/webhook"
	"github.com/rs/zerolog"
)

// pageData is what every page gets. User is the identity the gateway resolved, or nil.
type pageData struct {
	AppName string
	Title   string
	User    *users.User
}

func (s *Server) newPageData(r *http.Request, title string) pageData {
	return pageData{
		AppName: s.config.GetAppName(),
		Title:   title,
		User:    gateway.UserFromContext(r.Context()),
	}
}

func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", tmpl.Name()).Msg("rendering page")
	}
}

func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, tmpl, s.newPageData(r, "Home"))
	}
}

type signInPage struct {
	pageData
	SignInURL string
}

// SignInPageHandler renders the sign-in and sign-up pages. The gateway's redirect parameter
// becomes the next parameter of the OAuth sign-in.
func (s *Server) SignInPageHandler(title string) http.HandlerFunc {
	tmpl := mustParseTemplate("signin.html")

	return func(w http.ResponseWriter, r *http.Request) {
		next := oauthmodel.SafeNext(r.URL.Query().Get("redirect"))
		s.render(w, r, tmpl, signInPage{
			pageData:  s.newPageData(r, title),
			SignInURL: RouteAuthSignInOAuth + "?" + url.Values{"next": {next}}.Encode(),
		})
	}
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("profile.html")

	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, tmpl, s.newPageData(r, "Profile"))
	}
}

type integrationsPage struct {
	pageData
	Storage webhook.StorageConnection
}

// IntegrationsHandler shows whether the user has a usable storage credential, refreshing it if expired.
func (s *Server) IntegrationsHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("integrations.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := integrationsPage{pageData: s.newPageData(r, "Integrations")}
		if data.User == nil {
			// Only reachable when the path is not in the protected set.
			data.Storage.Reason = "signed_out"
			s.render(w, r, tmpl, data)
			return
		}

		data.Storage = webhook.StorageStatus(r.Context(), s.storage, data.User.ID)
		s.render(w, r, tmpl, data)
	}
}
