// Package gateway is the Session Gateway: it refreshes the primary session on every
// matched request, makes renewed cookies visible to both the rest of the request and
// the browser, and enforces the Route Protection Policy.
package gateway

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-credential-gateway/internal/config"
	"github.com/jrsteele09/go-credential-gateway/internal/metrics"
	"github.com/jrsteele09/go-credential-gateway/sessions"
	"github.com/jrsteele09/go-credential-gateway/users"
	"github.com/rs/zerolog"
)

// SessionRefresher is the part of sessions.Provider the gateway needs.
type SessionRefresher interface {
	Refresh(ctx context.Context, cookies []*http.Cookie) (sessions.RefreshResult, error)
}

type Gateway struct {
	refresher SessionRefresher
	policy    Policy
	matcher   Matcher
	metrics   *metrics.Metrics
}

type Option func(*Gateway)

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

func New(refresher SessionRefresher, cfg config.RouteConfig, opts ...Option) *Gateway {
	g := &Gateway{
		refresher: refresher,
		policy:    NewPolicy(cfg),
		matcher:   NewMatcher(cfg),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Policy() Policy {
	return g.policy
}

// Resolve refreshes the session carried by overlay. Every cookie instruction from the
// provider goes to the overlay first and then to response. A refresh error fails open:
// it is logged and counted, and the request continues with no session.
func (g *Gateway) Resolve(ctx context.Context, overlay *CookieOverlay, response *ResponseCookies) *sessions.Session {
	result, err := g.refresher.Refresh(ctx, overlay.Cookies())
	for _, cookie := range result.Cookies {
		overlay.Set(cookie)
		response.Set(cookie)
	}
	if err != nil {
		// Fail open: treated exactly like no session.
		g.metrics.SessionRefreshFailed()
		zerolog.Ctx(ctx).Warn().Err(err).Msg("session refresh failed, continuing without a session")
		return nil
	}
	return result.Session
}

// Middleware runs the gateway in front of next for every path the matcher accepts.
func (g *Gateway) Middleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !g.matcher.Matches(r.URL.Path) {
				next(w, r)
				return
			}

			overlay := NewCookieOverlay(r)
			response := NewResponseCookies()
			session := g.Resolve(r.Context(), overlay, response)

			outcome := g.policy.Evaluate(r.URL.Path, session != nil)
			g.metrics.GatewayDecision(string(outcome.Decision))
			response.Write(w)

			if outcome.Decision != DecisionPass {
				http.Redirect(w, r, outcome.Location, outcome.Status)
				return
			}

			r = r.Clone(WithSession(r.Context(), session))
			overlay.Apply(r)
			next(w, r)
		}
	}
}

type contextKey string

const sessionKey contextKey = "session"

// WithSession stores the resolved session in ctx. A nil session is stored as absent.
func WithSession(ctx context.Context, session *sessions.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the session the gateway resolved, or nil.
func SessionFromContext(ctx context.Context) *sessions.Session {
	session, _ := ctx.Value(sessionKey).(*sessions.Session)
	return session
}

// UserFromContext returns the signed-in user, or nil.
func UserFromContext(ctx context.Context) *users.User {
	if session := SessionFromContext(ctx); session != nil {
		return session.User
	}
	return nil
}
