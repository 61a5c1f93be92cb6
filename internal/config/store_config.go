package config

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// StoreConfig selects the Credential Store backend.
type StoreConfig interface {
	GetStoreBackend() string
	GetDatabaseURL() string
	GetRedisURL() string
}

type Store struct {
	Backend     string `env:"CREDENTIAL_STORE" envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
}

func (c *Config) GetStoreBackend() string { return c.Store.Backend }
func (c *Config) GetDatabaseURL() string  { return c.Store.DatabaseURL }
func (c *Config) GetRedisURL() string     { return c.Store.RedisURL }
