package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "tavily", cfg.Search.Provider)
	assert.Equal(t, 6, cfg.Search.MaxResults)
	assert.Equal(t, 6, cfg.Knowledge.MaxDocs)
	assert.Equal(t, 4000, cfg.Knowledge.MaxChars)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10, cfg.Session.MaxHistoryTurns)
	assert.Zero(t, cfg.Context.MaxDocumentChars)
	assert.False(t, cfg.Retrieval.TolerateErrors)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: ollama
  model: llama3
search:
  provider: brave
session:
  backend: redis
  ttl: 2h
  redis_addr: cache:6379
context:
  max_document_chars: 2000
`), 0o644))

	t.Setenv("STOCKRESEARCH_LLM_MODEL", "qwen2.5")
	t.Setenv("STOCKRESEARCH_RETRIEVAL_TOLERATE_ERRORS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "qwen2.5", cfg.LLM.Model)
	assert.Equal(t, "brave", cfg.Search.Provider)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "cache:6379", cfg.Session.RedisAddr)
	assert.Equal(t, 2000, cfg.Context.MaxDocumentChars)
	assert.True(t, cfg.Retrieval.TolerateErrors)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STOCKRESEARCH_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("STOCKRESEARCH_LOG_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			LLM:       LLMConfig{Provider: "openai"},
			Search:    SearchConfig{Provider: "tavily", MaxResults: 6},
			Knowledge: KnowledgeConfig{MaxDocs: 6},
			Session:   SessionConfig{Backend: "memory"},
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"llm provider", func(c *Config) { c.LLM.Provider = "ernie" }, "llm.provider"},
		{"search provider", func(c *Config) { c.Search.Provider = "bing" }, "search.provider"},
		{"backend", func(c *Config) { c.Session.Backend = "file" }, "session.backend"},
		{"postgres dsn", func(c *Config) { c.Session.Backend = "postgres" }, "postgres_dsn"},
		{"max results", func(c *Config) { c.Search.MaxResults = 0 }, "must be positive"},
		{"doc chars", func(c *Config) { c.Context.MaxDocumentChars = -1 }, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
