package config

import (
	"os"
	"strings"
)

type EnvVars struct {
	Port        string `env:"PORT" envDefault:"8080"`
	AppName     string `env:"APP_NAME" envDefault:"Credential Gateway"`
	Environment string `env:"ENV" envDefault:"DEV"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
}

func (c *Config) GetPort() string {
	port := c.Env.Port
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (c *Config) GetAppName() string {
	return c.Env.AppName
}

func (c *Config) GetEnv() string {
	if c.Env.Environment == "" {
		return "DEV"
	}
	return strings.ToUpper(c.Env.Environment)
}

// GetBaseURL returns the public base URL of the application (e.g., "https://app.example.com").
// It is used to build OAuth redirect URIs.
func (c *Config) GetBaseURL() string {
	return strings.TrimRight(c.Env.BaseURL, "/")
}

func (c *Config) GetLogLevel() string {
	return c.Env.LogLevel
}

func (c *Config) GetMetricsAddr() string {
	return c.Env.MetricsAddr
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
