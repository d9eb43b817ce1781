package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/vytor/studyflash/internal/llm"
)

// FileEnv names the optional YAML file read before the environment.
const FileEnv = "STUDYFLASH_CONFIG"

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	LogFormat          string
	RetryWorkerCount   int
	RetryQueueSize     int
	RetryMaxAttempts   int
	SessionTTLMinutes  int
	CORSOrigins        []string
	ParseRatePerMinute int
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a reverse proxy that sets them.
	TrustProxyHeaders bool
	LLM               llm.Config
}

// Load reads configuration from a .env file (if present), the YAML file named
// by STUDYFLASH_CONFIG (if set) and environment variables, in increasing
// order of precedence. YAML keys are the lowercase environment names
// (db_path, llm_provider, ...).
func Load() (Config, error) {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	k := koanf.New(".")
	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	src := source{k: k}

	llmCfg := llm.DefaultConfig()
	llmCfg.Provider = src.str("LLM_PROVIDER", "")
	llmCfg.Anthropic.APIKey = src.str("ANTHROPIC_API_KEY", "")
	llmCfg.Anthropic.Model = src.str("ANTHROPIC_MODEL", llmCfg.Anthropic.Model)
	llmCfg.Anthropic.BaseURL = src.str("ANTHROPIC_BASE_URL", "")
	llmCfg.OpenAI.APIKey = src.str("OPENAI_API_KEY", "")
	llmCfg.OpenAI.Model = src.str("OPENAI_MODEL", llmCfg.OpenAI.Model)
	llmCfg.OpenAI.BaseURL = src.str("OPENAI_BASE_URL", "")
	llmCfg.Gemini.APIKey = src.str("GEMINI_API_KEY", "")
	llmCfg.Gemini.Model = src.str("GEMINI_MODEL", llmCfg.Gemini.Model)
	llmCfg.Timeout = time.Duration(src.integer("LLM_TIMEOUT_SECONDS", int(llmCfg.Timeout/time.Second))) * time.Second
	llmCfg.RequestsPerMinute = src.integer("LLM_REQUESTS_PER_MINUTE", 0)

	return Config{
		Addr:               src.str("ADDR", ":8080"),
		DBPath:             src.str("DB_PATH", "file:studyflash.db"),
		LogLevel:           src.str("LOG_LEVEL", "INFO"),
		LogFormat:          src.str("LOG_FORMAT", "text"),
		RetryWorkerCount:   src.integer("RETRY_WORKER_COUNT", 2),
		RetryQueueSize:     src.integer("RETRY_QUEUE_SIZE", 128),
		RetryMaxAttempts:   src.integer("RETRY_MAX_ATTEMPTS", 5),
		SessionTTLMinutes:  src.integer("SESSION_TTL_MINUTES", 60),
		CORSOrigins:        splitList(src.str("CORS_ORIGINS", "*")),
		ParseRatePerMinute: src.integer("PARSE_RATE_PER_MINUTE", 10),
		TrustProxyHeaders:  src.boolean("TRUST_PROXY_HEADERS", false),
		LLM:                llmCfg,
	}, nil
}

// SessionTTL returns the idle timeout for study sessions.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be text or json (got %q)", c.LogFormat))
	}
	if c.RetryWorkerCount < 1 {
		problems = append(problems, "RETRY_WORKER_COUNT must be at least 1")
	}
	if c.RetryQueueSize < 1 {
		problems = append(problems, "RETRY_QUEUE_SIZE must be at least 1")
	}
	if c.RetryMaxAttempts < 1 {
		problems = append(problems, "RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.SessionTTLMinutes < 1 {
		problems = append(problems, "SESSION_TTL_MINUTES must be at least 1")
	}
	if c.ParseRatePerMinute < 0 {
		problems = append(problems, "PARSE_RATE_PER_MINUTE cannot be negative")
	}
	if err := c.LLM.Validate(); err != nil {
		problems = append(problems, "LLM_PROVIDER: "+err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// source resolves a key from the environment first, then the config file.
type source struct {
	k *koanf.Koanf
}

func (s source) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if fk := strings.ToLower(key); s.k.Exists(fk) {
		return s.k.String(fk)
	}
	return def
}

func (s source) integer(key string, def int) int {
	v := s.str(key, "")
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
		return def
	}
	return i
}

func (s source) boolean(key string, def bool) bool {
	v := s.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
