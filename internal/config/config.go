// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// EnvPrefix is prepended to every variable name read by Load.
const EnvPrefix = "SHOPREVIEWS_"

// Config holds the configuration shared by the storefront and review API binaries.
type Config struct {
	// ListenAddr is the storefront bind address.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	// APIListenAddr is the review API bind address.
	APIListenAddr string `env:"API_LISTEN_ADDR" envDefault:"127.0.0.1:8081"`
	// APIBaseURL is where the storefront reaches the review API.
	APIBaseURL     string        `env:"API_BASE_URL" envDefault:"http://127.0.0.1:8081"`
	DBPath         string        `env:"DB_PATH" envDefault:"shopreviews.db"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	CookieSecure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

// Load reads configuration from SHOPREVIEWS_-prefixed environment variables
// and returns a validated Config. Every variable is optional.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return nil, fmt.Errorf("%sAPI_BASE_URL must be an http(s) URL, got %q", EnvPrefix, cfg.APIBaseURL)
	}

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("%sREQUEST_TIMEOUT must be positive, got %s", EnvPrefix, cfg.RequestTimeout)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("%sLOG_LEVEL must be one of debug, info, warn, error; got %q", EnvPrefix, cfg.LogLevel)
	}

	return cfg, nil
}
