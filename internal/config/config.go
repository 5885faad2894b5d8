package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variable names. The environment always wins over the
// config file so CI pipelines can run without one.
const (
	EnvConfluenceURL      = "CONFLUENCE_URL"
	EnvConfluenceUsername = "CONFLUENCE_USERNAME"
	EnvConfluenceAPIToken = "CONFLUENCE_API_TOKEN"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
)

const (
	DefaultGeminiModel     = "gemini-1.5-pro-latest"
	DefaultMaxOutputTokens = 8192
)

type Config struct {
	Confluence ConfluenceConfig `yaml:"confluence"`
	Gemini     GeminiConfig     `yaml:"gemini"`
}

type ConfluenceConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	APIToken string `yaml:"api_token"`
}

type GeminiConfig struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// Load reads the config file at path, overlays environment variables
// and validates the Confluence settings. A missing file is not an
// error; the environment alone may supply everything.
func Load(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// fall through to environment-only configuration
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvConfluenceURL); v != "" {
		c.Confluence.BaseURL = v
	}
	if v := os.Getenv(EnvConfluenceUsername); v != "" {
		c.Confluence.Username = v
	}
	if v := os.Getenv(EnvConfluenceAPIToken); v != "" {
		c.Confluence.APIToken = v
	}
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		c.Gemini.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Gemini.Model == "" {
		c.Gemini.Model = DefaultGeminiModel
	}
	if c.Gemini.MaxOutputTokens == 0 {
		c.Gemini.MaxOutputTokens = DefaultMaxOutputTokens
	}
}

func (c *Config) validate() error {
	if c.Confluence.BaseURL == "" {
		return fmt.Errorf("confluence.base_url is required (or set %s)", EnvConfluenceURL)
	}
	if c.Confluence.Username == "" {
		return fmt.Errorf("confluence.username is required (or set %s)", EnvConfluenceUsername)
	}
	if c.Confluence.APIToken == "" {
		return fmt.Errorf("confluence.api_token is required (or set %s)", EnvConfluenceAPIToken)
	}
	return nil
}

// RequireGemini fails only when the template-merge path is actually
// exercised; direct conversion never needs the key.
func (c *Config) RequireGemini() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is required for template merging (or set %s)", EnvGeminiAPIKey)
	}
	return nil
}
