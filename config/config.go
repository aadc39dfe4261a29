// Package config loads the repurposer configuration from a JSON or TOML file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"content_repurposer/generator"
)

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderMock     = "mock"

	defaultAPIKeyEnv   = "OPENAI_API_KEY"
	defaultServerAddr  = ":8080"
	defaultLogMode     = "dev"
	defaultStyleDSN    = "file:styles.db"
	defaultRunTimeout  = 300
	defaultLLMTimeouts = 120
)

// Config is the top-level file layout.
type Config struct {
	ServerAddr string         `json:"server_addr,omitempty" toml:"server_addr"`
	LogMode    string         `json:"log_mode,omitempty" toml:"log_mode"`
	Analytical LLMConfig      `json:"analytical" toml:"analytical"`
	Creative   LLMConfig      `json:"creative" toml:"creative"`
	Style      StyleConfig    `json:"style" toml:"style"`
	Workflow   WorkflowConfig `json:"workflow" toml:"workflow"`
	Tracing    TracingConfig  `json:"tracing" toml:"tracing"`
}

// LLMConfig selects one completion backend. DeepSeek and other gateways speak the OpenAI API
// and need base_url.
type LLMConfig struct {
	Provider       string `json:"provider,omitempty" toml:"provider"`
	Model          string `json:"model,omitempty" toml:"model"`
	APIKey         string `json:"api_key,omitempty" toml:"api_key"`
	APIKeyEnv      string `json:"api_key_env,omitempty" toml:"api_key_env"`
	BaseURL        string `json:"base_url,omitempty" toml:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" toml:"timeout_seconds"`
}

type StyleConfig struct {
	DSN      string `json:"dsn,omitempty" toml:"dsn"`
	SeedFile string `json:"seed_file,omitempty" toml:"seed_file"`
}

type WorkflowConfig struct {
	Platforms         []string `json:"platforms,omitempty" toml:"platforms"`
	RunTimeoutSeconds int      `json:"run_timeout_seconds,omitempty" toml:"run_timeout_seconds"`
}

type TracingConfig struct {
	Enabled bool `json:"enabled" toml:"enabled"`
}

// Default returns a configuration with every optional field filled in.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path (".toml" as TOML, anything else as JSON), applies defaults and
// environment keys, and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = defaultServerAddr
	}
	switch strings.ToLower(strings.TrimSpace(c.LogMode)) {
	case "", "dev", "development":
		c.LogMode = defaultLogMode
	case "prod", "production":
		c.LogMode = "prod"
	}
	if c.Style.DSN == "" {
		c.Style.DSN = defaultStyleDSN
	}
	if len(c.Workflow.Platforms) == 0 {
		for _, p := range generator.Platforms() {
			c.Workflow.Platforms = append(c.Workflow.Platforms, p.String())
		}
	}
	if c.Workflow.RunTimeoutSeconds <= 0 {
		c.Workflow.RunTimeoutSeconds = defaultRunTimeout
	}
	for _, llm := range []*LLMConfig{&c.Analytical, &c.Creative} {
		llm.Provider = strings.ToLower(strings.TrimSpace(llm.Provider))
		if llm.APIKeyEnv == "" {
			llm.APIKeyEnv = defaultAPIKeyEnv
		}
		if llm.TimeoutSeconds <= 0 {
			llm.TimeoutSeconds = defaultLLMTimeouts
		}
	}
}

// applyEnv fills missing API keys from the environment.
func (c *Config) applyEnv() {
	for _, llm := range []*LLMConfig{&c.Analytical, &c.Creative} {
		if llm.APIKey == "" && llm.APIKeyEnv != "" {
			llm.APIKey = strings.TrimSpace(os.Getenv(llm.APIKeyEnv))
		}
	}
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.Analytical.validate("analytical"); err != nil {
		return err
	}
	if err := c.Creative.validate("creative"); err != nil {
		return err
	}
	if _, err := c.Platforms(); err != nil {
		return err
	}
	switch c.LogMode {
	case "dev", "prod":
	default:
		return fmt.Errorf("log_mode must be dev, development, prod or production, got %q", c.LogMode)
	}
	if strings.TrimSpace(c.Style.DSN) == "" {
		return errors.New("style.dsn must be set")
	}
	return nil
}

func (l LLMConfig) validate(name string) error {
	switch l.Provider {
	case ProviderMock:
		return nil
	case ProviderOpenAI:
	case ProviderDeepSeek:
		if l.BaseURL == "" {
			return fmt.Errorf("%s: provider deepseek requires base_url (OpenAI-compatible endpoint)", name)
		}
	case "":
		return fmt.Errorf("%s.provider is required (openai, deepseek or mock)", name)
	default:
		return fmt.Errorf("%s: provider %s not supported", name, l.Provider)
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("%s.model is required for provider %s", name, l.Provider)
	}
	if l.APIKey == "" {
		return fmt.Errorf("%s: api key missing; set api_key or export %s", name, l.APIKeyEnv)
	}
	return nil
}

// Settings converts the file form into the generator's backend settings.
func (l LLMConfig) Settings() generator.LLMSettings {
	return generator.LLMSettings{
		Provider:       l.Provider,
		Model:          l.Model,
		APIKey:         l.APIKey,
		BaseURL:        l.BaseURL,
		TimeoutSeconds: l.TimeoutSeconds,
	}
}

// Platforms parses workflow.platforms.
func (c Config) Platforms() ([]generator.Platform, error) {
	out := make([]generator.Platform, 0, len(c.Workflow.Platforms))
	for _, name := range c.Workflow.Platforms {
		p, err := generator.ParsePlatform(name)
		if err != nil {
			return nil, fmt.Errorf("workflow.platforms: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// RunTimeout bounds one whole workflow run.
func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.Workflow.RunTimeoutSeconds) * time.Second
}
