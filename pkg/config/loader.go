package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anschmieg/gpt-cli/pkg/debug"
)

// providerEnv maps provider names to their credential environment
// variables.
var providerEnv = map[string]struct{ key, base string }{
	"openai":  {"OPENAI_API_KEY", "OPENAI_API_BASE"},
	"copilot": {"COPILOT_API_KEY", "COPILOT_API_BASE"},
	"gemini":  {"GEMINI_API_KEY", "GEMINI_API_BASE"},
	"test":    {"TEST_ADAPTER_API_KEY", ""},
}

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, GPT_CLI_CONFIG env, ./gpt-cli.yaml,
//     user config directory)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. GPT_CLI_CONFIG environment variable
// 3. ./gpt-cli.yaml in the current directory
// 4. gpt-cli/config.yaml in the user config directory
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("GPT_CLI_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{"gpt-cli.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "gpt-cli", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
// Provider names are lower-cased.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	normalized := make(map[string]ProviderConfig, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		normalized[strings.ToLower(name)] = pc
	}
	cfg.Providers = normalized
	return nil
}

// applyEnvOverrides maps environment variables to config fields. Malformed
// values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	if v := os.Getenv("GPT_CLI_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("GPT_CLI_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("GPT_CLI_SYSTEM"); v != "" {
		cfg.System = v
	}
	if v := os.Getenv("GPT_CLI_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("GPT_CLI_TEMPERATURE: %w", err))
		} else {
			cfg.Temperature = t
		}
	}
	if v := os.Getenv("GPT_CLI_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("GPT_CLI_REQUEST_TIMEOUT: %w", err))
		} else {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("GPT_CLI_METRICS_FILE"); v != "" {
		cfg.Observability.Metrics.File = v
	}

	boolVars := []struct {
		name   string
		target *bool
	}{
		{"GPT_CLI_VERBOSE", &cfg.Verbose},
		{"GPT_CLI_MARKDOWN", &cfg.Markdown},
		{"GPT_CLI_STREAM", &cfg.Stream},
		{"GPT_CLI_AUTO_RETRY_MODEL", &cfg.AutoRetryModel},
	}
	for _, bv := range boolVars {
		v := os.Getenv(bv.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", bv.name, err))
			continue
		}
		*bv.target = b
	}

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	for name, env := range providerEnv {
		pc := cfg.Providers[name]
		if v := os.Getenv(env.key); v != "" {
			pc.APIKey = v
		}
		if env.base != "" {
			if v := os.Getenv(env.base); v != "" {
				pc.BaseURL = v
			}
		}
		if pc != (ProviderConfig{}) {
			cfg.Providers[name] = pc
		}
	}

	return errors.Join(errs...)
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. The file is only read when the value is still empty.
func resolveFileReferences(cfg *Config) error {
	for name, pc := range cfg.Providers {
		if pc.APIKeyFile == "" || pc.APIKey != "" {
			continue
		}
		val, err := readSecretFile(pc.APIKeyFile)
		if err != nil {
			return fmt.Errorf("providers.%s.api_key_file: %w", name, err)
		}
		pc.APIKey = val
		cfg.Providers[name] = pc
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
