package config

import "strings"

type Cors struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	AllowedMethods []string `env:"ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
}

type AllowedOrigins []string

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	for _, o := range a {
		if o == origin || o == "*" {
			return true
		}
	}
	return false
}

func (a AllowedOrigins) String() string {
	return strings.Join(a, ", ")
}

func (c *Config) GetAllowedOrigins() AllowedOrigins {
	return AllowedOrigins(c.Cors.AllowedOrigins)
}

func (c *Config) GetAllowedMethods() []string {
	return c.Cors.AllowedMethods
}

func (c *Config) GetAllowedHeaders() []string {
	return c.Cors.AllowedHeaders
}
