// Package config loads service configuration from a YAML file, the
// environment and an optional .env file, in increasing precedence.
// Command-line flags are applied by the binaries on top of the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Market  MarketConfig  `yaml:"market"`
	LLM     LLMConfig     `yaml:"llm"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	AskTimeout      time.Duration `yaml:"ask_timeout" validate:"gt=0"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// StorageConfig selects and configures the stores.
type StorageConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=memory postgres"`
	PostgresDSN   string `yaml:"postgres_dsn" validate:"required_if=Backend postgres"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	Migrate       bool   `yaml:"migrate"`
}

// MarketConfig configures market figure sources.
type MarketConfig struct {
	CoinMarketCapAPIKey  string        `yaml:"coinmarketcap_api_key"`
	CoinMarketCapBaseURL string        `yaml:"coinmarketcap_base_url" validate:"omitempty,url"`
	Binance              bool          `yaml:"binance"`
	Timeout              time.Duration `yaml:"timeout" validate:"gt=0"`
	RateLimit            float64       `yaml:"rate_limit" validate:"gt=0"`
	Burst                int           `yaml:"burst" validate:"gte=1"`
}

// LLMConfig configures the language model writer. An empty APIKey disables it.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url" validate:"omitempty,url"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=1"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
}

// CatalogConfig selects where the token dictionary comes from.
type CatalogConfig struct {
	// File is a tokens YAML document. Empty uses the embedded dictionary.
	File string `yaml:"file"`
	// FromStore loads the dictionary from the token store instead.
	FromStore bool `yaml:"from_store"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AskTimeout:      20 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Migrate: true,
		},
		Market: MarketConfig{
			Binance:   true,
			Timeout:   10 * time.Second,
			RateLimit: 0.5,
			Burst:     5,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o",
			MaxTokens:   500,
			Temperature: 0.7,
		},
	}
}

// Load reads path (optional), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("CROAK_ADDR", &c.Server.Addr)
	str("CROAK_LOG_LEVEL", &c.Log.Level)
	boolean("CROAK_LOG_DEV", &c.Log.Development)
	str("CROAK_STORAGE", &c.Storage.Backend)
	str("POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("CLICKHOUSE_DSN", &c.Storage.ClickHouseDSN)
	boolean("CROAK_MIGRATE", &c.Storage.Migrate)
	str("COINMARKETCAP_API_KEY", &c.Market.CoinMarketCapAPIKey)
	str("COINMARKETCAP_BASE_URL", &c.Market.CoinMarketCapBaseURL)
	boolean("CROAK_BINANCE", &c.Market.Binance)
	str("OPENAI_API_KEY", &c.LLM.APIKey)
	str("OPENAI_BASE_URL", &c.LLM.BaseURL)
	str("CROAK_LLM_MODEL", &c.LLM.Model)
	str("CROAK_TOKENS_FILE", &c.Catalog.File)
	boolean("CROAK_TOKENS_FROM_STORE", &c.Catalog.FromStore)

	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)

	return errors.Join(errs...)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Catalog.FromStore && c.Catalog.File != "" {
		return errors.New("invalid config: catalog.file and catalog.from_store are mutually exclusive")
	}
	return nil
}

// LoadEnvFile sets variables from a KEY=VALUE file. Variables already set in
// the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
	}
	return nil
}
