package config

// RouteConfig describes which paths the session gateway guards.
type RouteConfig interface {
	GetProtectedPrefixes() []string
	GetExcludedPrefixes() []string
	GetSignInPath() string
	GetSignUpPath() string
}

type Routes struct {
	// Paths requiring an active session. Prefix matched, case-sensitive.
	ProtectedPrefixes []string `env:"PROTECTED_ROUTES" envSeparator:"," envDefault:"/integrations,/profile"`
	// Paths the gateway never runs on. API routes authorize themselves.
	ExcludedPrefixes []string `env:"GATEWAY_EXCLUDED_PREFIXES" envSeparator:"," envDefault:"/api/,/_next/static/,/_next/image/,/favicon.ico"`
	SignInPath       string   `env:"SIGNIN_PATH" envDefault:"/signin"`
	SignUpPath       string   `env:"SIGNUP_PATH" envDefault:"/signup"`
}

func (c *Config) GetProtectedPrefixes() []string {
	return c.Routes.ProtectedPrefixes
}

func (c *Config) GetExcludedPrefixes() []string {
	return c.Routes.ExcludedPrefixes
}

func (c *Config) GetSignInPath() string {
	if c.Routes.SignInPath == "" {
		return "/signin"
	}
	return c.Routes.SignInPath
}

func (c *Config) GetSignUpPath() string {
	if c.Routes.SignUpPath == "" {
		return "/signup"
	}
	return c.Routes.SignUpPath
}
