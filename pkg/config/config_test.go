package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate clears every variable Load reads and moves discovery away from
// the developer's real config files.
func isolate(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GPT_CLI_CONFIG", "GPT_CLI_PROVIDER", "GPT_CLI_MODEL", "GPT_CLI_SYSTEM",
		"GPT_CLI_TEMPERATURE", "GPT_CLI_REQUEST_TIMEOUT", "GPT_CLI_METRICS_FILE",
		"GPT_CLI_VERBOSE", "GPT_CLI_MARKDOWN", "GPT_CLI_STREAM", "GPT_CLI_AUTO_RETRY_MODEL",
		"OPENAI_API_KEY", "OPENAI_API_BASE", "COPILOT_API_KEY", "COPILOT_API_BASE",
		"GEMINI_API_KEY", "GEMINI_API_BASE", "TEST_ADAPTER_API_KEY",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Provider != "copilot" {
		t.Errorf("default provider = %q, want \"copilot\"", cfg.Provider)
	}
	if cfg.Temperature != 0.6 {
		t.Errorf("default temperature = %v, want 0.6", cfg.Temperature)
	}
	if !cfg.Markdown || !cfg.Stream {
		t.Errorf("markdown and stream should default to true: %+v", cfg)
	}
	if cfg.AutoRetryModel {
		t.Error("auto_retry_model should default to false")
	}
	if cfg.System != DefaultSystem {
		t.Errorf("default system = %q", cfg.System)
	}
	if len(cfg.Retry.ModelRejectionPhrases) != 4 {
		t.Errorf("default phrases = %q", cfg.Retry.ModelRejectionPhrases)
	}

	// Defaults must not share the package-level phrase slice.
	cfg.Retry.ModelRejectionPhrases[0] = "changed"
	if DefaultModelRejectionPhrases[0] != "model_not_supported" {
		t.Error("Defaults aliased DefaultModelRejectionPhrases")
	}
}

func TestLoadFromYAML(t *testing.T) {
	isolate(t)

	yamlContent := `
provider: Gemini
model: gemini-2.0-pro
temperature: 1.1
markdown: false
auto_retry_model: true
request_timeout: 45s
providers:
  Gemini:
    api_key: g-key
    base_url: http://localhost:9000/v1beta/openai
  copilot:
    base_url: https://copilot.example/v1
retry:
  model_rejection_phrases:
    - unsupported model
render:
  style: dark
  word_wrap: 100
observability:
  metrics:
    file: /tmp/gptcli.prom
debug:
  categories: providers
  level: TRACE
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Provider != "Gemini" || cfg.Model != "gemini-2.0-pro" || cfg.Temperature != 1.1 {
		t.Errorf("top-level fields = %q %q %v", cfg.Provider, cfg.Model, cfg.Temperature)
	}
	if cfg.Markdown {
		t.Error("markdown should be false")
	}
	if !cfg.Stream {
		t.Error("stream should keep its default")
	}
	if !cfg.AutoRetryModel {
		t.Error("auto_retry_model should be true")
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("request_timeout = %v", cfg.RequestTimeout)
	}
	if got := cfg.Retry.ModelRejectionPhrases; len(got) != 1 || got[0] != "unsupported model" {
		t.Errorf("phrases = %q", got)
	}
	if cfg.Render.Style != "dark" || cfg.Render.WordWrap != 100 {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Observability.Metrics.File != "/tmp/gptcli.prom" {
		t.Errorf("metrics file = %q", cfg.Observability.Metrics.File)
	}
	if cfg.Debug.Categories != "providers" || cfg.Debug.Level != "TRACE" {
		t.Errorf("debug = %+v", cfg.Debug)
	}

	opts := cfg.ProviderOptions("GEMINI")
	if opts.APIKey != "g-key" || opts.BaseURL != "http://localhost:9000/v1beta/openai" {
		t.Errorf("gemini options = %+v", opts)
	}
	if got := cfg.ProviderOptions("copilot").BaseURL; got != "https://copilot.example/v1" {
		t.Errorf("copilot base = %q", got)
	}
}

func TestEnvOverride(t *testing.T) {
	isolate(t)

	tmpFile := writeTemp(t, "config-*.yaml", `
provider: openai
model: from-file
providers:
  openai:
    api_key: file-key
`)
	t.Setenv("GPT_CLI_PROVIDER", "test")
	t.Setenv("GPT_CLI_MODEL", "from-env")
	t.Setenv("GPT_CLI_TEMPERATURE", "0.2")
	t.Setenv("GPT_CLI_STREAM", "false")
	t.Setenv("GPT_CLI_VERBOSE", "1")
	t.Setenv("GPT_CLI_AUTO_RETRY_MODEL", "true")
	t.Setenv("GPT_CLI_REQUEST_TIMEOUT", "2m")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("COPILOT_API_BASE", "https://copilot.example")
	t.Setenv("TEST_ADAPTER_API_KEY", "t-key")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Provider != "test" || cfg.Model != "from-env" || cfg.Temperature != 0.2 {
		t.Errorf("env overrides not applied: %q %q %v", cfg.Provider, cfg.Model, cfg.Temperature)
	}
	if cfg.Stream || !cfg.Verbose || !cfg.AutoRetryModel {
		t.Errorf("bool overrides not applied: stream=%v verbose=%v retry=%v", cfg.Stream, cfg.Verbose, cfg.AutoRetryModel)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Errorf("request_timeout = %v", cfg.RequestTimeout)
	}
	if got := cfg.ProviderOptions("openai").APIKey; got != "env-key" {
		t.Errorf("openai key = %q, env should win over file", got)
	}
	if got := cfg.ProviderOptions("copilot").BaseURL; got != "https://copilot.example" {
		t.Errorf("copilot base = %q", got)
	}
	if got := cfg.ProviderOptions("test").APIKey; got != "t-key" {
		t.Errorf("test key = %q", got)
	}
}

func TestEnvOverride_Malformed(t *testing.T) {
	isolate(t)
	t.Setenv("GPT_CLI_TEMPERATURE", "warm")
	t.Setenv("GPT_CLI_STREAM", "maybe")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for malformed env values")
	}
	for _, want := range []string{"GPT_CLI_TEMPERATURE", "GPT_CLI_STREAM"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestFileReference(t *testing.T) {
	isolate(t)

	secretFile := writeTemp(t, "secret-*", "  sk-from-file  \n")
	tmpFile := writeTemp(t, "config-*.yaml", `
providers:
  openai:
    api_key_file: `+secretFile+`
`)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := cfg.ProviderOptions("openai").APIKey; got != "sk-from-file" {
		t.Errorf("api_key = %q, want trimmed file content", got)
	}
}

func TestFileReferenceDoesNotOverrideExplicitValue(t *testing.T) {
	isolate(t)

	secretFile := writeTemp(t, "secret-*", "from-file")
	tmpFile := writeTemp(t, "config-*.yaml", `
providers:
  gemini:
    api_key: explicit
    api_key_file: `+secretFile+`
`)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := cfg.ProviderOptions("gemini").APIKey; got != "explicit" {
		t.Errorf("api_key = %q, want explicit value", got)
	}
}

func TestFileReferenceMissingFile(t *testing.T) {
	isolate(t)

	tmpFile := writeTemp(t, "config-*.yaml", `
providers:
  copilot:
    api_key_file: /nonexistent/secret
`)
	_, err := Load(tmpFile)
	if err == nil || !strings.Contains(err.Error(), "providers.copilot.api_key_file") {
		t.Errorf("err = %v, want field path in error", err)
	}
}

func TestFileDiscovery(t *testing.T) {
	isolate(t)

	// Explicit path.
	explicit := writeTemp(t, "config-*.yaml", "provider: openai\n")
	cfg, err := Load(explicit)
	if err != nil {
		t.Fatalf("Load(explicit) error: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("explicit path: provider = %q", cfg.Provider)
	}

	// GPT_CLI_CONFIG env var.
	t.Setenv("GPT_CLI_CONFIG", writeTemp(t, "envconfig-*.yaml", "provider: gemini\n"))
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(GPT_CLI_CONFIG) error: %v", err)
	}
	if cfg.Provider != "gemini" {
		t.Errorf("GPT_CLI_CONFIG: provider = %q", cfg.Provider)
	}
	t.Setenv("GPT_CLI_CONFIG", "")

	// ./gpt-cli.yaml in the working directory.
	if err := os.WriteFile("gpt-cli.yaml", []byte("provider: test\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(cwd) error: %v", err)
	}
	if cfg.Provider != "test" {
		t.Errorf("cwd file: provider = %q", cfg.Provider)
	}
	os.Remove("gpt-cli.yaml")

	// User config directory.
	userDir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "gpt-cli")
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte("model: from-user-dir\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(user dir) error: %v", err)
	}
	if cfg.Model != "from-user-dir" {
		t.Errorf("user dir: model = %q", cfg.Model)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load("/nonexistent/gpt-cli.yaml"); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"missing provider", func(c *Config) { c.Provider = " " }, "provider is required"},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, "temperature must be between 0 and 2"},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, "temperature must be between 0 and 2"},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, "request_timeout must be >= 0"},
		{"negative wrap", func(c *Config) { c.Render.WordWrap = -1 }, "render.word_wrap"},
		{"empty phrase", func(c *Config) { c.Retry.ModelRejectionPhrases = []string{"ok", ""} }, "retry.model_rejection_phrases[1]"},
		{
			"bad base url",
			func(c *Config) { c.Providers["openai"] = ProviderConfig{BaseURL: "api.openai.com"} },
			"providers.openai.base_url must start with",
		},
		{"valid config", func(c *Config) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidationReportsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Provider = ""
	cfg.Temperature = 9

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	if !strings.Contains(err.Error(), "provider is required") || !strings.Contains(err.Error(), "temperature") {
		t.Errorf("errors should be joined, got %q", err)
	}
}

func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		t.Fatalf("writing temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing temp file: %v", err)
	}
	return f.Name()
}
