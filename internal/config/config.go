package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/alan-mat/sqlsuggest/internal/provider"
)

var ErrInvalidConfig = errors.New("invalid config")

// MaxTokensLimit bounds max_tokens; providers take it as a 32-bit value.
const MaxTokensLimit = 1 << 20

type ServerConfig struct {
	ListenHost string `yaml:"listen_host"`
	ListenPort int    `yaml:"listen_port"`

	SuggestPath    string   `yaml:"suggest_path"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// ShutdownTimeout is given in seconds.
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

type ProviderConfig struct {
	Type      string `yaml:"type"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`

	// APIKey is only ever read from the environment.
	APIKey string `yaml:"-"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	LogLevel string         `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenPort:      8080,
			SuggestPath:     "/api/ai/sql/suggest",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10,
		},
		Provider: ProviderConfig{
			Type:      string(provider.LMProviderTypeOpenAI),
			MaxTokens: 1024,
		},
		LogLevel: "info",
	}
}

// Load builds the config from defaults, the YAML file at path (skipped when
// path is empty) and finally the environment. A .env file in the working
// directory is loaded first but never overrides variables that are already set.
func Load(path string) (*Config, error) {
	conf := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(file, conf); err != nil {
			return nil, fmt.Errorf("failed to parse config '%s': %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "err", err)
	}

	if err := conf.applyEnv(); err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HOST"); v != "" {
		c.Server.ListenHost = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT must be an integer, got '%s'", ErrInvalidConfig, v)
		}
		c.Server.ListenPort = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.Provider.Type = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.Provider.Model = v
	}

	t, err := provider.ParseLMProviderType(c.Provider.Type)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.Provider.Type = string(t)
	c.Provider.APIKey = os.Getenv(t.KeyEnv())

	return nil
}

// Validate checks the values that cannot be defaulted. A missing API key is
// not an error here: the server still starts and reports it per request.
func (c *Config) Validate() error {
	if c.Server.ListenPort < 0 || c.Server.ListenPort > 65535 {
		return fmt.Errorf("%w: listen_port out of range: %d", ErrInvalidConfig, c.Server.ListenPort)
	}
	if c.Server.SuggestPath == "" || c.Server.SuggestPath[0] != '/' {
		return fmt.Errorf("%w: suggest_path must start with '/'", ErrInvalidConfig)
	}
	if c.Provider.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive", ErrInvalidConfig)
	}
	if c.Provider.MaxTokens > MaxTokensLimit {
		return fmt.Errorf("%w: max_tokens exceeds %d", ErrInvalidConfig, MaxTokensLimit)
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) ProviderType() provider.LMProviderType {
	return provider.LMProviderType(c.Provider.Type)
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}
