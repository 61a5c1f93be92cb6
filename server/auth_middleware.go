package server

import (
	"net/http"

	"github.com/jrsteele09/go-credential-gateway/gateway"
)

// RequireAPISession authorizes API routes from the session cookies. It uses the same refresh
// core as the gateway, so a renewed session is written back to the client here too.
// No session, or a failed refresh, answers 401 before the handler reads the body.
func (s *Server) RequireAPISession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			overlay := gateway.NewCookieOverlay(r)
			response := gateway.NewResponseCookies()
			session := s.gateway.Resolve(r.Context(), overlay, response)
			response.Write(w)

			if session == nil || !session.User.Valid() {
				writeAPIError(w, http.StatusUnauthorized, apiErrorUnauthenticated, messageAuthRequired)
				return
			}

			r = r.Clone(gateway.WithSession(r.Context(), session))
			overlay.Apply(r)
			next(w, r)
		}
	}
}
