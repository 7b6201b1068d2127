package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App   AppConfig
	Store StoreConfig
	Stub  StubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"SHOPFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig locates the remote storefront API and describes how the
// deployment identifies users. The user-key parameter name differs between
// deployments (account id vs email-like key), so it is configuration.
type StoreConfig struct {
	BaseURL      string        `envconfig:"SHOPFRONT_STORE_BASE_URL"`
	Timeout      time.Duration `envconfig:"SHOPFRONT_STORE_TIMEOUT" default:"10s"`
	UserKeyParam string        `envconfig:"SHOPFRONT_USER_KEY_PARAM" default:"account"`
	UserKey      string        `envconfig:"SHOPFRONT_USER_KEY"`
}

// validate checks the endpoint shape. The base URL is only required by
// binaries that actually talk to a storefront; the client constructor
// rejects an empty one.
func (s StoreConfig) validate() error {
	if s.BaseURL != "" {
		parsed, err := url.Parse(s.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStoreBaseURL, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) URL", EnvStoreBaseURL)
		}
	}
	if strings.TrimSpace(s.UserKeyParam) == "" {
		return fmt.Errorf("%s must not be blank", EnvUserKeyParam)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvStoreTimeout)
	}
	return nil
}

// StubConfig configures the bundled in-memory reference backend.
type StubConfig struct {
	Port        string `envconfig:"SHOPFRONT_STUB_PORT" default:"5000"`
	SeedProduct bool   `envconfig:"SHOPFRONT_STUB_SEED" default:"true"`
}
