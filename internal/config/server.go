package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	apierrors "github.com/diogo/pagechat/internal/errors"
)

// DefaultOpenAIModel is used with OpenAI-compatible endpoints when no model is set
const DefaultOpenAIModel = "llama3-8b-8192"

// DefaultSessionSecret signs session cookies when no secret is configured
const DefaultSessionSecret = "default-secret-key"

// LLMConfig configures one completion provider
type LLMConfig struct {
	Provider string `json:"provider" env:"PROVIDER" envDefault:"openai"`
	BaseURL  string `json:"base_url" env:"BASE_URL"`
	APIKey   string `json:"-" env:"API_KEY"`
	Model    string `json:"model" env:"MODEL"`
}

// ServerConfig holds the backend settings. Every field comes from the environment.
type ServerConfig struct {
	Addr string `json:"addr" env:"PAGECHAT_ADDR" envDefault:"127.0.0.1:5000"`

	// LLM is the primary provider. LLAMA_API_URL and API_KEY are honoured as
	// aliases so existing deployments keep working.
	LLM LLMConfig `json:"llm" envPrefix:"PAGECHAT_LLM_"`
	// Fallback is tried when the primary provider fails; ignored when its key is empty.
	Fallback LLMConfig `json:"fallback" envPrefix:"PAGECHAT_FALLBACK_"`

	LegacyLLMURL string `json:"-" env:"LLAMA_API_URL"`
	LegacyAPIKey string `json:"-" env:"API_KEY"`

	LegacySecret string `json:"-" env:"SESSION_SECRET"`

	SessionSecret string        `json:"-" env:"PAGECHAT_SESSION_SECRET"`
	SessionStore  string        `json:"session_store" env:"PAGECHAT_SESSION_STORE" envDefault:"file"`
	SessionDir    string        `json:"session_dir" env:"PAGECHAT_SESSION_DIR"`
	SessionTTL    time.Duration `json:"session_ttl" env:"PAGECHAT_SESSION_TTL" envDefault:"1h"`
	RedisAddr     string        `json:"redis_addr" env:"PAGECHAT_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `json:"-" env:"PAGECHAT_REDIS_PASSWORD"`
	RedisDB       int           `json:"redis_db" env:"PAGECHAT_REDIS_DB" envDefault:"0"`

	MaxContextChars int           `json:"max_context_chars" env:"PAGECHAT_MAX_CONTEXT_CHARS" envDefault:"12000"`
	ScrapeTimeout   time.Duration `json:"scrape_timeout" env:"PAGECHAT_SCRAPE_TIMEOUT" envDefault:"20s"`
	LLMTimeout      time.Duration `json:"llm_timeout" env:"PAGECHAT_LLM_TIMEOUT" envDefault:"30s"`
	ScrapeRate      float64       `json:"scrape_rate" env:"PAGECHAT_SCRAPE_RATE" envDefault:"1"`
	ScrapeBurst     int           `json:"scrape_burst" env:"PAGECHAT_SCRAPE_BURST" envDefault:"3"`

	LogLevel string `json:"log_level" env:"PAGECHAT_LOG_LEVEL" envDefault:"info"`
}

// LoadServerConfig reads the server configuration from the environment and validates it
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyLegacy()

	if cfg.SessionDir == "" {
		dir, err := GetConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		cfg.SessionDir = filepath.Join(dir, "sessions")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *ServerConfig) applyLegacy() {
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = c.LegacyLLMURL
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = c.LegacyAPIKey
	}
	if c.SessionSecret == "" {
		c.SessionSecret = c.LegacySecret
	}
	if c.SessionSecret == "" {
		c.SessionSecret = DefaultSessionSecret
	}
	if c.LLM.Model == "" && strings.EqualFold(c.LLM.Provider, "openai") {
		c.LLM.Model = DefaultOpenAIModel
	}
}

// Validate checks the configuration. The server refuses to start without an LLM endpoint.
func (c ServerConfig) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: LLM API key (PAGECHAT_LLM_API_KEY or API_KEY)", apierrors.ErrMissingConfig)
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("%w: LLM endpoint (PAGECHAT_LLM_BASE_URL or LLAMA_API_URL)", apierrors.ErrMissingConfig)
		}
	case "anthropic":
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	switch c.SessionStore {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("unsupported session store: %s", c.SessionStore)
	}

	if c.MaxContextChars <= 0 {
		return fmt.Errorf("max context chars must be positive, got %d", c.MaxContextChars)
	}
	return nil
}

// HasFallback reports whether a fallback provider is configured
func (c ServerConfig) HasFallback() bool {
	return c.Fallback.APIKey != ""
}
