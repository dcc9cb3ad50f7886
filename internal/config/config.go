// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the application settings.
type Config struct {
	Addr string `validate:"required"`

	// DatabaseURL selects PostgreSQL; empty means the in-memory store.
	DatabaseURL string

	HistoryLimit int `validate:"gte=1,lte=1000"`

	DatasetPath           string
	DatasetReloadInterval time.Duration `validate:"gte=0"`

	RendererURL     string        `validate:"omitempty,url"`
	RendererTimeout time.Duration `validate:"gt=0"`

	OIDC OIDC

	LogLevel string `validate:"oneof=debug info warn warning error"`
}

// OIDC configures single sign-on. It is disabled when Issuer is empty.
type OIDC struct {
	Issuer       string `validate:"omitempty,url"`
	ClientID     string `validate:"required_with=Issuer"`
	ClientSecret string
	RedirectURL  string `validate:"required_with=Issuer"`
}

// Enabled reports whether SSO is configured.
func (o OIDC) Enabled() bool { return o.Issuer != "" }

// Load reads an optional .env file from the working directory, then the
// environment, applies defaults and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:         getenvDefault("ADDR", ":8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatasetPath:  getenvDefault("DATASET_PATH", "Final_Dataset.csv"),
		RendererURL:  os.Getenv("RENDERER_URL"),
		LogLevel:     strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		HistoryLimit: 10,
		OIDC: OIDC{
			Issuer:       os.Getenv("OIDC_ISSUER"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		},
	}

	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HISTORY_LIMIT: %w", err)
		}
		cfg.HistoryLimit = n
	}

	var err error
	if cfg.DatasetReloadInterval, err = getenvDuration("DATASET_RELOAD_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.RendererTimeout, err = getenvDuration("RENDERER_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
