package config

import "time"

const (
	SessionProviderHosted = "hosted"
	SessionProviderOIDC   = "oidc"
)

// SessionConfig configures the primary session provider and its cookies.
type SessionConfig interface {
	GetSessionProvider() string
	GetAuthURL() string
	GetAuthAPIKey() string
	GetAuthJWTSecret() string
	GetAuthOAuthProvider() string
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCScopes() []string
	GetCookiePrefix() string
	GetCookieSecure() bool
	GetCookieMaxAge() time.Duration
	GetCallbackURL() string
}

type Session struct {
	Provider string `env:"AUTH_PROVIDER" envDefault:"hosted"`

	// Hosted authentication backend
	AuthURL       string `env:"AUTH_URL"`
	APIKey        string `env:"AUTH_API_KEY"`
	JWTSecret     string `env:"AUTH_JWT_SECRET"`
	OAuthProvider string `env:"AUTH_OAUTH_PROVIDER" envDefault:"google"`

	// Generic OIDC provider
	OIDCIssuer       string   `env:"OIDC_ISSUER"`
	OIDCClientID     string   `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string   `env:"OIDC_CLIENT_SECRET"`
	OIDCScopes       []string `env:"OIDC_SCOPES" envSeparator:"," envDefault:"openid,profile,email,offline_access"`

	CookiePrefix string        `env:"SESSION_COOKIE_PREFIX" envDefault:"sb"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	CookieMaxAge time.Duration `env:"SESSION_COOKIE_MAX_AGE" envDefault:"8760h"`
}

func (c *Config) GetSessionProvider() string   { return c.Session.Provider }
func (c *Config) GetAuthURL() string           { return c.Session.AuthURL }
func (c *Config) GetAuthAPIKey() string        { return c.Session.APIKey }
func (c *Config) GetAuthJWTSecret() string     { return c.Session.JWTSecret }
func (c *Config) GetAuthOAuthProvider() string { return c.Session.OAuthProvider }
func (c *Config) GetOIDCIssuer() string        { return c.Session.OIDCIssuer }
func (c *Config) GetOIDCClientID() string      { return c.Session.OIDCClientID }
func (c *Config) GetOIDCClientSecret() string  { return c.Session.OIDCClientSecret }
func (c *Config) GetOIDCScopes() []string      { return c.Session.OIDCScopes }
func (c *Config) GetCookieSecure() bool        { return c.Session.CookieSecure }

func (c *Config) GetCookiePrefix() string {
	if c.Session.CookiePrefix == "" {
		return "sb"
	}
	return c.Session.CookiePrefix
}

func (c *Config) GetCookieMaxAge() time.Duration {
	if c.Session.CookieMaxAge <= 0 {
		return 365 * 24 * time.Hour
	}
	return c.Session.CookieMaxAge
}

// GetCallbackURL is where the session provider sends the browser after authorization.
func (c *Config) GetCallbackURL() string {
	return c.GetBaseURL() + "/auth/callback"
}
