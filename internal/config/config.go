package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envProduction = "PROD"

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
	GetMetricsAddr() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

// Config is built once at process start and handed by pointer to every component.
// Components depend on the narrow interfaces above rather than on the struct.
type Config struct {
	Env     EnvVars
	Cors    Cors
	Routes  Routes
	Session Session
	Storage StorageOAuth
	Store   Store
}

var (
	_ EnvConfig          = (*Config)(nil)
	_ CorsConfig         = (*Config)(nil)
	_ RouteConfig        = (*Config)(nil)
	_ SessionConfig      = (*Config)(nil)
	_ StorageOAuthConfig = (*Config)(nil)
	_ StoreConfig        = (*Config)(nil)
)

// Load reads an optional .env file (outside production) and parses the environment.
func Load() (*Config, error) {
	if !strings.EqualFold(GetEnv("ENV", ""), envProduction) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("[config Load] .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("[config Load] parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	var errs []error

	switch c.Session.Provider {
	case SessionProviderHosted:
		if c.Session.AuthURL == "" {
			errs = append(errs, errors.New("AUTH_URL is required for the hosted session provider"))
		}
		if c.Session.APIKey == "" {
			errs = append(errs, errors.New("AUTH_API_KEY is required for the hosted session provider"))
		}
	case SessionProviderOIDC:
		if c.Session.OIDCIssuer == "" {
			errs = append(errs, errors.New("OIDC_ISSUER is required for the oidc session provider"))
		}
		if c.Session.OIDCClientID == "" {
			errs = append(errs, errors.New("OIDC_CLIENT_ID is required for the oidc session provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_PROVIDER %q", c.Session.Provider))
	}

	if c.Storage.ClientID == "" {
		errs = append(errs, errors.New("STORAGE_CLIENT_ID is required"))
	}
	if c.Storage.TokenURL == "" {
		errs = append(errs, errors.New("STORAGE_TOKEN_URL is required"))
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres credential store"))
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis credential store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CREDENTIAL_STORE %q", c.Store.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("[config Validate] %w", errors.Join(errs...))
	}
	return nil
}
