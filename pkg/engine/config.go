package engine

import (
	"io"
	"os"
	"time"

	"github.com/anschmieg/gpt-cli/pkg/provider"
	"github.com/anschmieg/gpt-cli/pkg/render"
)

// Default models used when the request leaves the model empty.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// Config holds configuration for the engine.
type Config struct {
	// Out receives the response text. Nil means os.Stdout.
	Out io.Writer

	// Renderer renders markdown output. Nil prints markdown raw.
	Renderer *render.Renderer

	// ModelRejectionPhrases identify a "model not supported" error.
	// Matching is case-insensitive against the error code and message.
	ModelRejectionPhrases []string

	// RequestTimeout bounds the whole invocation, fallback and retry
	// included. Zero means no timeout.
	RequestTimeout time.Duration
}

func (c Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Request is one resolved invocation.
type Request struct {
	Provider       string
	Model          string
	Temperature    *float64
	System         string
	Prompt         string
	File           string // path whose contents are appended to the prompt
	Verbose        bool
	UseMarkdown    bool
	AutoRetryModel bool
	Stream         bool

	// Options carries credentials and transport for the adapter.
	Options provider.Options
}

// defaultModel returns the model used when the request omits one.
func defaultModel(providerName string) string {
	if providerName == "gemini" {
		return DefaultGeminiModel
	}
	return DefaultModel
}
