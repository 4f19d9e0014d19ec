// Package config provides the layered configuration of gpt-cli.
//
// Configuration is loaded in order, each layer overriding the previous:
//  1. Built-in defaults
//  2. YAML config file (explicit path, GPT_CLI_CONFIG, ./gpt-cli.yaml,
//     $XDG_CONFIG_HOME/gpt-cli/config.yaml)
//  3. Environment variables (GPT_CLI_* and per-provider credentials)
//  4. File reference resolution (api_key_file)
//  5. Validation
//
// Command-line flags are applied by the caller after Load.
package config

import (
	"strings"
	"time"

	"github.com/anschmieg/gpt-cli/pkg/provider"
)

// DefaultSystem is the system prompt used when none is configured.
const DefaultSystem = "You are an AI assistant called via CLI. Respond concisely and clearly, " +
	"focusing only on the user's prompt. Include only very brief explanations unless explicitly asked."

// DefaultModelRejectionPhrases identify a backend error that means "this
// model is not available here". Matching is case-insensitive against the
// error code and message.
var DefaultModelRejectionPhrases = []string{
	"model_not_supported",
	"model is not supported",
	"requested model is not supported",
	"model not supported",
}

// Config holds all configuration for one gpt-cli invocation.
type Config struct {
	Provider       string        `yaml:"provider"`         // default: "copilot"
	Model          string        `yaml:"model"`            // default: per provider
	Temperature    float64       `yaml:"temperature"`      // default: 0.6
	System         string        `yaml:"system"`           // default: DefaultSystem
	Verbose        bool          `yaml:"verbose"`          // default: false
	Markdown       bool          `yaml:"markdown"`         // default: true
	Stream         bool          `yaml:"stream"`           // default: true
	AutoRetryModel bool          `yaml:"auto_retry_model"` // default: false
	RequestTimeout time.Duration `yaml:"request_timeout"`  // default: 0 (no timeout)

	Providers     map[string]ProviderConfig `yaml:"providers"`
	Retry         RetryConfig               `yaml:"retry"`
	Render        RenderConfig              `yaml:"render"`
	Observability ObservabilityConfig       `yaml:"observability"`
	Debug         DebugConfig               `yaml:"debug"`
}

// ProviderConfig holds credentials and endpoint of one provider.
type ProviderConfig struct {
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"` // _file variant for api_key
	BaseURL    string `yaml:"base_url"`
}

// RetryConfig controls the retry after a model rejection.
type RetryConfig struct {
	ModelRejectionPhrases []string `yaml:"model_rejection_phrases"` // default: DefaultModelRejectionPhrases
}

// RenderConfig controls markdown rendering.
type RenderConfig struct {
	Style    string `yaml:"style"`     // glamour style; empty: auto on a TTY
	WordWrap int    `yaml:"word_wrap"` // default: 0 (glamour default)
}

// ObservabilityConfig holds metrics export settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds the Prometheus textfile export settings.
type MetricsConfig struct {
	File string `yaml:"file"` // empty: disabled
}

// DebugConfig holds debug logging settings. GPTCLI_DEBUG and
// GPTCLI_LOG_LEVEL take precedence.
type DebugConfig struct {
	Categories string `yaml:"categories"`
	Level      string `yaml:"level"`
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Provider:    "copilot",
		Temperature: 0.6,
		System:      DefaultSystem,
		Markdown:    true,
		Stream:      true,
		Providers:   map[string]ProviderConfig{},
		Retry: RetryConfig{
			ModelRejectionPhrases: append([]string(nil), DefaultModelRejectionPhrases...),
		},
	}
}

// ProviderOptions returns the credentials configured for the named
// provider. The caller adds the transport.
func (c *Config) ProviderOptions(name string) provider.Options {
	pc := c.Providers[strings.ToLower(name)]
	return provider.Options{
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
	}
}
