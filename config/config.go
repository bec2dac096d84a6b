// Package config loads stockresearch settings from a YAML file, the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STOCKRESEARCH_LLM_MODEL.
const EnvPrefix = "STOCKRESEARCH"

// Config is the complete application configuration.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Session   SessionConfig   `mapstructure:"session"`
	Context   ContextConfig   `mapstructure:"context"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Log       LogConfig       `mapstructure:"log"`
}

// LLMConfig selects the chat model.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
}

// SearchConfig selects the web search provider.
type SearchConfig struct {
	Provider     string `mapstructure:"provider"`
	TavilyAPIKey string `mapstructure:"tavily_api_key"`
	BraveAPIKey  string `mapstructure:"brave_api_key"`
	MaxResults   int    `mapstructure:"max_results"`
}

// KnowledgeConfig tunes the encyclopedic source.
type KnowledgeConfig struct {
	MaxDocs  int    `mapstructure:"max_docs"`
	MaxChars int    `mapstructure:"max_chars"`
	Language string `mapstructure:"language"`
}

// SessionConfig selects and tunes the session store.
type SessionConfig struct {
	Backend         string        `mapstructure:"backend"`
	TTL             time.Duration `mapstructure:"ttl"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	SqlitePath      string        `mapstructure:"sqlite_path"`
	PostgresDSN     string        `mapstructure:"postgres_dsn"`
	MaxHistoryTurns int           `mapstructure:"max_history_turns"`
}

// ContextConfig bounds retrieved context.
type ContextConfig struct {
	MaxDocumentChars int `mapstructure:"max_document_chars"`
}

// RetrievalConfig controls retrieval failure handling.
type RetrievalConfig struct {
	TolerateErrors bool `mapstructure:"tolerate_errors"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Supported values.
var (
	LLMProviders    = []string{"openai", "googleai", "ollama"}
	SearchProviders = []string{"tavily", "brave"}
	SessionBackends = []string{"memory", "redis", "sqlite", "postgres"}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.0)

	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.tavily_api_key", "")
	v.SetDefault("search.brave_api_key", "")
	v.SetDefault("search.max_results", 6)

	v.SetDefault("knowledge.max_docs", 6)
	v.SetDefault("knowledge.max_chars", 4000)
	v.SetDefault("knowledge.language", "en")

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.redis_addr", "localhost:6379")
	v.SetDefault("session.redis_password", "")
	v.SetDefault("session.redis_db", 0)
	v.SetDefault("session.sqlite_path", "stockresearch.db")
	v.SetDefault("session.postgres_dsn", "")
	v.SetDefault("session.max_history_turns", 10)

	v.SetDefault("context.max_document_chars", 0)
	v.SetDefault("retrieval.tolerate_errors", false)
	v.SetDefault("log.level", "info")
}

// Load reads configuration. An empty path searches ./stockresearch.yaml and
// ~/.config/stockresearch/config.yaml; a missing file is not an error then.
// Values from a .env file in the working directory are exported first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stockresearch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "stockresearch"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	if !oneOf(c.LLM.Provider, LLMProviders) {
		return fmt.Errorf("unknown llm.provider %q (want one of %s)", c.LLM.Provider, strings.Join(LLMProviders, ", "))
	}
	if !oneOf(c.Search.Provider, SearchProviders) {
		return fmt.Errorf("unknown search.provider %q (want one of %s)", c.Search.Provider, strings.Join(SearchProviders, ", "))
	}
	if !oneOf(c.Session.Backend, SessionBackends) {
		return fmt.Errorf("unknown session.backend %q (want one of %s)", c.Session.Backend, strings.Join(SessionBackends, ", "))
	}
	if c.Session.Backend == "postgres" && c.Session.PostgresDSN == "" {
		return errors.New("session.postgres_dsn is required for the postgres backend")
	}
	if c.Search.MaxResults < 1 || c.Knowledge.MaxDocs < 1 {
		return errors.New("search.max_results and knowledge.max_docs must be positive")
	}
	if c.Context.MaxDocumentChars < 0 {
		return errors.New("context.max_document_chars must not be negative")
	}
	return nil
}

func oneOf(s string, values []string) bool {
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}
