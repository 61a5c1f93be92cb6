package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/jrsteele09/go-credential-gateway/auth"
	"github.com/jrsteele09/go-credential-gateway/gateway"
	"github.com/jrsteele09/go-credential-gateway/internal/config"
	"github.com/jrsteele09/go-credential-gateway/internal/metrics"
	"github.com/jrsteele09/go-credential-gateway/sessions"
	"github.com/jrsteele09/go-credential-gateway/token/refresh"
	"github.com/jrsteele09/go-credential-gateway/webhook"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// StorageRefresher refreshes and hands out storage API credentials for a user.
type StorageRefresher interface {
	Refresh(ctx context.Context, userID, refreshToken string) (*refresh.Result, error)
	TokenSource(ctx context.Context, userID string) oauth2.TokenSource
}

// Deps are the collaborators built in main and shared by every handler.
type Deps struct {
	Provider  sessions.Provider
	Storage   StorageRefresher
	Functions *webhook.Registry // Defaults to a registry holding the built-in functions
	Metrics   *metrics.Metrics
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	handler   http.HandlerFunc // mux behind the request logger and the session gateway
	routes    []string
	config    *config.Config
	provider  sessions.Provider
	storage   StorageRefresher
	gateway   *gateway.Gateway
	validator *auth.WebhookValidator
	functions *webhook.Registry
	metrics   *metrics.Metrics
	cors      *cors.Cors
}

func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("[Server New] session provider is required")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("[Server New] storage refresher is required")
	}

	functions := deps.Functions
	if functions == nil {
		functions = webhook.NewRegistry()
		webhook.RegisterBuiltins(functions, deps.Storage)
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		provider:  deps.Provider,
		storage:   deps.Storage,
		gateway:   gateway.New(deps.Provider, cfg, gateway.WithMetrics(deps.Metrics)),
		validator: auth.NewWebhookValidator(deps.Provider, auth.WithMetrics(deps.Metrics)),
		functions: functions,
		metrics:   deps.Metrics,
		cors: cors.New(cors.Options{
			AllowedOrigins:   []string(cfg.GetAllowedOrigins()),
			AllowedMethods:   cfg.GetAllowedMethods(),
			AllowedHeaders:   cfg.GetAllowedHeaders(),
			AllowCredentials: true,
			MaxAge:           86400,
		}),
	}

	s.initRoutes()
	s.handler = ChainMiddleware(s.mux.ServeHTTP, s.FrontMiddleware()...)
	s.logRoutes()

	return s, nil
}

// ServeHTTP runs every request through the front chain, so the gateway sees paths the mux
// has no route for, then dispatches to the mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%s%-7s%s] %s", methodColour(method), method, colourReset, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

// requestOrigin is scheme://host of the request as the browser addressed it.
func requestOrigin(r *http.Request) string {
	host := r.Host
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}
	return getScheme(r) + "://" + host
}
