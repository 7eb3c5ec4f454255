package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan-mat/sqlsuggest/internal/config"
	"github.com/alan-mat/sqlsuggest/internal/provider"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HOST", "PORT", "LOG_LEVEL", "LLM_PROVIDER", "LLM_MODEL", "OPENAI_KEY", "GEMINI_API_KEY", "COHERE_API_KEY"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	conf, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, conf.Server.ListenPort)
	assert.Equal(t, "/api/ai/sql/suggest", conf.Server.SuggestPath)
	assert.Equal(t, []string{"*"}, conf.Server.AllowedOrigins)
	assert.Equal(t, provider.LMProviderTypeOpenAI, conf.ProviderType())
	assert.Equal(t, 1024, conf.Provider.MaxTokens)
	assert.Empty(t, conf.Provider.APIKey)

	level, err := conf.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  listen_host: 127.0.0.1
  listen_port: 9000
  allowed_origins:
    - https://studio.example.com
provider:
  type: gemini
  model: gemini-2.0-flash
log_level: debug
`)
	t.Setenv("GEMINI_API_KEY", "gm-key")

	conf, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", conf.Server.ListenHost)
	assert.Equal(t, 9000, conf.Server.ListenPort)
	assert.Equal(t, []string{"https://studio.example.com"}, conf.Server.AllowedOrigins)
	assert.Equal(t, "/api/ai/sql/suggest", conf.Server.SuggestPath)
	assert.Equal(t, provider.LMProviderTypeGemini, conf.ProviderType())
	assert.Equal(t, "gemini-2.0-flash", conf.Provider.Model)
	assert.Equal(t, 1024, conf.Provider.MaxTokens)
	assert.Equal(t, "gm-key", conf.Provider.APIKey)

	level, err := conf.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  listen_port: 9000
provider:
  type: cohere
`)
	t.Setenv("PORT", "7000")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_KEY", "sk-test")
	t.Setenv("COHERE_API_KEY", "co-test")

	conf, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, conf.Server.ListenPort)
	assert.Equal(t, provider.LMProviderTypeOpenAI, conf.ProviderType())
	assert.Equal(t, "sk-test", conf.Provider.APIKey)
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)

	tests := map[string]string{
		"provider":          "provider:\n  type: llama\n",
		"path":              "server:\n  suggest_path: api/suggest\n",
		"maxTokens":         "provider:\n  max_tokens: -1\n",
		"maxTokensTooLarge": "provider:\n  max_tokens: 2000000\n",
		"logLevel":          "log_level: loud\n",
		"port":              "server:\n  listen_port: 70000\n",
	}

	for name, content := range tests {
		_, err := config.Load(writeConfig(t, content))
		assert.ErrorIs(t, err, config.ErrInvalidConfig, name)
	}

	t.Setenv("PORT", "eighty")
	_, err := config.Load("")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
