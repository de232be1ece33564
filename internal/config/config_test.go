package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "croak.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  ask_timeout: 5s
log:
  level: debug
market:
  binance: false
llm:
  model: gpt-4o-mini
`), 0o600))

	t.Setenv("CROAK_ADDR", ":9100")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, 5*time.Second, cfg.Server.AskTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Market.Binance)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 500, cfg.LLM.MaxTokens, "unset keys keep defaults")
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "croak.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 80\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"CROAK_STORAGE":         "Postgres",
		"POSTGRES_DSN":          "postgres://u:p@localhost/croak",
		"CLICKHOUSE_DSN":        "clickhouse://localhost:9000/croak",
		"COINMARKETCAP_API_KEY": "cmc",
		"CROAK_LOG_LEVEL":       "WARN",
		"CROAK_LOG_DEV":         "true",
		"CROAK_TOKENS_FILE":     "tokens.yaml",
	}))
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "postgres://u:p@localhost/croak", cfg.Storage.PostgresDSN)
	assert.Equal(t, "clickhouse://localhost:9000/croak", cfg.Storage.ClickHouseDSN)
	assert.Equal(t, "cmc", cfg.Market.CoinMarketCapAPIKey)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "tokens.yaml", cfg.Catalog.File)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv_BadBool(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{"CROAK_BINANCE": "maybe"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CROAK_BINANCE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "bolt" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"zero timeout", func(c *Config) { c.Market.Timeout = 0 }},
		{"bad base url", func(c *Config) { c.LLM.BaseURL = "not a url" }},
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }},
		{"two catalog sources", func(c *Config) {
			c.Catalog.File = "tokens.yaml"
			c.Catalog.FromStore = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
# comment
CROAK_TEST_FROM_FILE=one
export CROAK_TEST_QUOTED="two"
CROAK_TEST_PRESET=file
not-a-pair
`), 0o600))

	t.Setenv("CROAK_TEST_PRESET", "env")
	t.Setenv("CROAK_TEST_FROM_FILE", "")
	t.Setenv("CROAK_TEST_QUOTED", "")

	require.NoError(t, LoadEnvFile(path))

	assert.Equal(t, "one", os.Getenv("CROAK_TEST_FROM_FILE"))
	assert.Equal(t, "two", os.Getenv("CROAK_TEST_QUOTED"))
	assert.Equal(t, "env", os.Getenv("CROAK_TEST_PRESET"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
}
