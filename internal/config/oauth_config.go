package config

// StorageOAuthConfig holds the OAuth2 client registration used to call the
// third-party storage API on a user's behalf.
type StorageOAuthConfig interface {
	GetStorageClientID() string
	GetStorageClientSecret() string
	GetStorageTokenURL() string
	GetStorageAuthURL() string
	GetStorageScopes() []string
}

type StorageOAuth struct {
	ClientID     string   `env:"STORAGE_CLIENT_ID"`
	ClientSecret string   `env:"STORAGE_CLIENT_SECRET"`
	TokenURL     string   `env:"STORAGE_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	AuthURL      string   `env:"STORAGE_AUTH_URL" envDefault:"https://accounts.google.com/o/oauth2/v2/auth"`
	Scopes       []string `env:"STORAGE_SCOPES" envSeparator:"," envDefault:"https://www.googleapis.com/auth/drive.file"`
}

func (c *Config) GetStorageClientID() string     { return c.Storage.ClientID }
func (c *Config) GetStorageClientSecret() string { return c.Storage.ClientSecret }
func (c *Config) GetStorageTokenURL() string     { return c.Storage.TokenURL }
func (c *Config) GetStorageAuthURL() string      { return c.Storage.AuthURL }
func (c *Config) GetStorageScopes() []string     { return c.Storage.Scopes }
