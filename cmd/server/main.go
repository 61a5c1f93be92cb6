package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-credential-gateway/credentials"
	"github.com/jrsteele09/go-credential-gateway/credentials/pgrepo"
	"github.com/jrsteele09/go-credential-gateway/credentials/redisrepo"
	credentialsrepofake "github.com/jrsteele09/go-credential-gateway/credentials/repofake"
	"github.com/jrsteele09/go-credential-gateway/internal/config"
	"github.com/jrsteele09/go-credential-gateway/internal/logging"
	"github.com/jrsteele09/go-credential-gateway/internal/metrics"
	"github.com/jrsteele09/go-credential-gateway/server"
	"github.com/jrsteele09/go-credential-gateway/sessions"
	"github.com/jrsteele09/go-credential-gateway/sessions/hosted"
	"github.com/jrsteele09/go-credential-gateway/sessions/oidcprovider"
	"github.com/jrsteele09/go-credential-gateway/token/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(c.GetLogLevel(), c.GetEnv() == "DEV")
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	repo, closeStore, err := newCredentialStore(ctx, c)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := newSessionProvider(ctx, c)
	if err != nil {
		return err
	}

	registry, m := newMetrics()
	handler, err := server.New(c, server.Deps{
		Provider: provider,
		Storage:  refresh.NewRefresher(c, repo, refresh.WithMetrics(m)),
		Metrics:  m,
	})
	if err != nil {
		return err
	}

	appServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	metricsServer := &http.Server{Addr: c.GetMetricsAddr(), Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), ReadHeaderTimeout: 10 * time.Second}

	errs := make(chan error, 2)
	go func() { errs <- listenAndServe("app", appServer) }()
	go func() { errs <- listenAndServe("metrics", metricsServer) }()

	select {
	case <-waitForStopSignal():
	case returnError = <-errs:
	}
	return errors.Join(returnError, shutdown(appServer), shutdown(metricsServer))
}

// newMetrics builds the collectors on a registry owned by one run, so a restart after an
// error registers them again without a duplicate registration panic.
func newMetrics() (*prometheus.Registry, *metrics.Metrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, metrics.New(registry)
}

// newCredentialStore opens the configured credential store. The returned func releases its connections.
func newCredentialStore(ctx context.Context, c *config.Config) (credentials.Repo, func(), error) {
	switch c.GetStoreBackend() {
	case config.StorePostgres:
		pool, err := pgrepo.Connect(ctx, c.GetDatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		repo := pgrepo.New(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	case config.StoreRedis:
		cli, err := redisrepo.Connect(ctx, c.GetRedisURL())
		if err != nil {
			return nil, nil, err
		}
		return redisrepo.New(cli), func() { _ = cli.Close() }, nil
	default:
		log.Warn().Msg("Using the in-memory credential store, tokens are lost on restart")
		return credentialsrepofake.NewFakeCredentialsRepo(), func() {}, nil
	}
}

func newSessionProvider(ctx context.Context, c *config.Config) (sessions.Provider, error) {
	cookies := sessions.NewCookieCodec(c.GetCookiePrefix(), c.GetCookieSecure(), c.GetCookieMaxAge())

	switch c.GetSessionProvider() {
	case config.SessionProviderOIDC:
		return oidcprovider.New(ctx, oidcprovider.Config{
			Issuer:       c.GetOIDCIssuer(),
			ClientID:     c.GetOIDCClientID(),
			ClientSecret: c.GetOIDCClientSecret(),
			RedirectURL:  c.GetCallbackURL(),
			Scopes:       c.GetOIDCScopes(),
			Cookies:      cookies,
		})
	default:
		return hosted.New(hosted.Config{
			BaseURL:       c.GetAuthURL(),
			APIKey:        c.GetAuthAPIKey(),
			JWTSecret:     c.GetAuthJWTSecret(),
			OAuthProvider: c.GetAuthOAuthProvider(),
			Cookies:       cookies,
		}), nil
	}
}

func listenAndServe(name string, server *http.Server) error {
	log.Info().Str("listener", name).Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server.ListenAndServe %w", name, err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
