// Package debug provides category-based debug logging for gpt-cli.
//
// Categories select WHAT is logged (GPTCLI_DEBUG or --verbose), the level
// selects HOW MUCH (GPTCLI_LOG_LEVEL). All output goes to stderr so that
// stdout only carries the model response.
//
//	debug.Log("providers", "request", "url", url, "model", model)
//
// Categories: providers, streaming, engine, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is below slog.LevelDebug. At TRACE, raw SSE payloads are logged.
const LevelTrace = slog.LevelDebug - 4

// VerboseCategories are enabled by the --verbose flag.
const VerboseCategories = "providers,streaming,engine"

// categories is read-only after Init.
var categories map[string]bool

// output receives Raw text. Replaced in tests.
var output io.Writer = os.Stderr

func init() {
	categories = parseCategories(os.Getenv("GPTCLI_DEBUG"))
}

// Init configures categories and the default slog handler. The environment
// wins over the values passed in. Enabling any category without an explicit
// level raises the level to DEBUG, otherwise the enabled output would be
// filtered away.
func Init(configCategories, configLevel string) {
	cats := os.Getenv("GPTCLI_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	level := os.Getenv("GPTCLI_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}
	if level == "" && len(categories) > 0 {
		level = "DEBUG"
	}
	if level == "" {
		level = "WARN"
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE level is active for the given category.
func TraceIsEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// Raw writes plain text without slog formatting, only at TRACE.
func Raw(category string, text string) {
	if !TraceIsEnabled(category) {
		return
	}
	fmt.Fprintln(output, text)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING", "":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Truncate returns s cut to maxLen bytes with "..." appended if it was longer.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
