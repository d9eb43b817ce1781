package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/config"
	"github.com/vytor/studyflash/internal/llm"
)

func validConfig() config.Config {
	return config.Config{
		Addr:               ":8080",
		DBPath:             "test.db",
		LogLevel:           "INFO",
		RetryWorkerCount:   2,
		RetryQueueSize:     64,
		RetryMaxAttempts:   3,
		SessionTTLMinutes:  30,
		ParseRatePerMinute: 10,
		LLM:                llm.DefaultConfig(),
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_SingleField(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		expected string
	}{
		{"empty addr", func(c *config.Config) { c.Addr = "" }, "ADDR cannot be empty"},
		{"empty db path", func(c *config.Config) { c.DBPath = " " }, "DB_PATH cannot be empty"},
		{"bad log level", func(c *config.Config) { c.LogLevel = "LOUD" }, "LOG_LEVEL"},
		{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"no retry workers", func(c *config.Config) { c.RetryWorkerCount = 0 }, "RETRY_WORKER_COUNT"},
		{"no retry queue", func(c *config.Config) { c.RetryQueueSize = -1 }, "RETRY_QUEUE_SIZE"},
		{"no session ttl", func(c *config.Config) { c.SessionTTLMinutes = 0 }, "SESSION_TTL_MINUTES"},
		{"negative parse rate", func(c *config.Config) { c.ParseRatePerMinute = -2 }, "PARSE_RATE_PER_MINUTE"},
		{"llm key missing", func(c *config.Config) { c.LLM.Provider = llm.ProviderGemini }, "GEMINI_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestValidate_LowercaseLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "debug"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := config.Config{LogLevel: "INVALID"}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"ADDR", "DB_PATH", "LOG_LEVEL", "RETRY_WORKER_COUNT", "RETRY_QUEUE_SIZE", "SESSION_TTL_MINUTES"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DB_PATH", "custom.db")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://study.example.com")
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("LLM_TIMEOUT_SECONDS", "7")
	t.Setenv("SESSION_TTL_MINUTES", "not-a-number")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "custom.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, []string{"http://localhost:5173", "https://study.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, llm.ProviderMock, cfg.LLM.Provider)
	assert.Equal(t, 7*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 60, cfg.SessionTTLMinutes, "invalid ints fall back to the default")
	assert.Equal(t, time.Hour, cfg.SessionTTL())
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studyflash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":7000"
db_path: "file:from-yaml.db"
retry_worker_count: 4
llm_provider: openai
openai_api_key: sk-test
`), 0o600))

	t.Setenv(config.FileEnv, path)
	t.Setenv("ADDR", ":7100")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.Addr, "environment wins over the file")
	assert.Equal(t, "file:from-yaml.db", cfg.DBPath)
	assert.Equal(t, 4, cfg.RetryWorkerCount)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(config.FileEnv, filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := config.Load()
	assert.Error(t, err)
}
