// Command gpt-cli sends a prompt to an OpenAI-compatible chat completion
// API and prints the response.
//
//	gpt-cli [flags] <prompt...>
//
// Configuration is layered: defaults, YAML config file, environment
// (a .env file in the working directory is loaded first), then flags.
// See package config for the file and environment variables.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	rdebug "runtime/debug"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/anschmieg/gpt-cli/pkg/config"
	"github.com/anschmieg/gpt-cli/pkg/debug"
	"github.com/anschmieg/gpt-cli/pkg/engine"
	"github.com/anschmieg/gpt-cli/pkg/observability"
	"github.com/anschmieg/gpt-cli/pkg/provider/builtin"
	"github.com/anschmieg/gpt-cli/pkg/render"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, render.IsTerminal(os.Stdout))
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, tty bool) int {
	_ = godotenv.Load()

	cmd := newRootCmd(stdout, tty)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err.Error())
		return 1
	}
	return 0
}

// flags holds the raw command-line values. Only flags the user actually set
// override the loaded configuration.
type flags struct {
	configPath     string
	provider       string
	model          string
	temperature    float64
	system         string
	file           string
	verbose        bool
	markdown       bool
	stream         bool
	noStream       bool
	autoRetryModel bool
	metricsFile    string
}

func newRootCmd(stdout io.Writer, tty bool) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "gpt-cli [flags] <prompt...>",
		Short: "Send a prompt to an OpenAI-compatible chat API",
		Long: `gpt-cli sends a prompt to one of several OpenAI-compatible chat completion
APIs (OpenAI, GitHub Copilot, Google Gemini) and prints the response.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runPrompt(cmd, &f, strings.Join(args, " "), stdout, tty)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	fl.StringVar(&f.provider, "provider", "copilot", "API provider (openai, copilot, gemini, test)")
	fl.StringVar(&f.model, "model", "", "Model name (default: provider specific)")
	fl.Float64Var(&f.temperature, "temperature", 0.6, "Sampling temperature (0.0-2.0)")
	fl.StringVar(&f.system, "system", "", "System prompt")
	fl.StringVar(&f.file, "file", "", "File whose contents are appended to the prompt")
	fl.BoolVar(&f.verbose, "verbose", false, "Enable verbose logging on stderr")
	fl.BoolVar(&f.markdown, "markdown", true, "Render markdown output")
	fl.BoolVar(&f.stream, "stream", true, "Stream the response")
	fl.BoolVar(&f.noStream, "no-stream", false, "Disable streaming")
	fl.BoolVar(&f.autoRetryModel, "auto-retry-model", false, "Retry once without a model when the model is rejected")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func runPrompt(cmd *cobra.Command, f *flags, prompt string, stdout io.Writer, tty bool) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, f, cfg); err != nil {
		return err
	}

	categories := cfg.Debug.Categories
	if cfg.Verbose {
		categories = joinCategories(categories, debug.VerboseCategories)
	}
	debug.Init(categories, cfg.Debug.Level)

	if cfg.Observability.Metrics.File != "" {
		defer func() {
			if err := observability.WriteTextfile(cfg.Observability.Metrics.File); err != nil {
				debug.Log("engine", "writing metrics file failed", "path", cfg.Observability.Metrics.File, "error", err)
			}
		}()
	}

	eng, err := engine.New(builtin.Registry(), engine.Config{
		Out: stdout,
		Renderer: render.NewRenderer(render.Options{
			TTY:      tty,
			Style:    cfg.Render.Style,
			WordWrap: cfg.Render.WordWrap,
		}),
		ModelRejectionPhrases: cfg.Retry.ModelRejectionPhrases,
		RequestTimeout:        cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	temperature := cfg.Temperature
	return eng.Run(cmd.Context(), engine.Request{
		Provider:       cfg.Provider,
		Model:          cfg.Model,
		Temperature:    &temperature,
		System:         cfg.System,
		Prompt:         prompt,
		File:           f.file,
		Verbose:        cfg.Verbose,
		UseMarkdown:    cfg.Markdown,
		AutoRetryModel: cfg.AutoRetryModel,
		Stream:         cfg.Stream,
		Options:        cfg.ProviderOptions(cfg.Provider),
	})
}

// applyFlags copies explicitly set flags onto cfg and re-validates it.
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("provider") {
		cfg.Provider = f.provider
	}
	if fl.Changed("model") {
		cfg.Model = f.model
	}
	if fl.Changed("temperature") {
		cfg.Temperature = f.temperature
	}
	if fl.Changed("system") {
		cfg.System = f.system
	}
	if fl.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if fl.Changed("markdown") {
		cfg.Markdown = f.markdown
	}
	if fl.Changed("stream") {
		cfg.Stream = f.stream
	}
	if f.noStream {
		cfg.Stream = false
	}
	if fl.Changed("auto-retry-model") {
		cfg.AutoRetryModel = f.autoRetryModel
	}
	if fl.Changed("metrics-file") {
		cfg.Observability.Metrics.File = f.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func joinCategories(a, b string) string {
	if a == "" {
		return b
	}
	return a + "," + b
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gpt-cli %s (%s %s/%s)\n", buildVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

func buildVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := rdebug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}
