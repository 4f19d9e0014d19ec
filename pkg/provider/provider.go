package provider

import (
	"context"
	"iter"
	"net/http"

	"github.com/anschmieg/gpt-cli/pkg/api"
)

// Provider abstracts a chat completion backend.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the registry key (e.g., "openai", "copilot").
	Name() string

	// Call performs one non-streaming completion.
	Call(ctx context.Context, cfg Config, opts Options) (*api.Result, error)
}

// StreamingProvider is implemented by adapters that can stream text
// fragments. The orchestrator checks for it with a type assertion.
type StreamingProvider interface {
	Provider

	// Stream sends req with streaming enabled and returns the lazy sequence
	// of text fragments. Errors that occur before the first byte of the body
	// is read are returned directly; later failures are yielded by the
	// sequence. The sequence may be consumed once.
	Stream(ctx context.Context, req *api.ChatRequest, opts Options) (iter.Seq2[string, error], error)
}

// Config is the adapter-facing subset of a resolved invocation.
type Config struct {
	Model       string
	System      string
	Prompt      string
	Temperature *float64
}

// Options carries per-call credentials and transport. Adapters validate
// that the fields they require are present before any network call.
type Options struct {
	APIKey  string
	BaseURL string

	// Doer performs the HTTP request. Nil selects the default client.
	Doer Doer
}

// Doer is the single capability the executor needs from an HTTP client.
// *http.Client satisfies it; tests substitute a DoerFunc.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts an ordinary function to the Doer interface.
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do calls f(req).
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// BuildMessages returns the message list for a single-turn call: an
// optional system message (only when non-empty) followed by exactly one
// user message carrying the prompt.
func BuildMessages(cfg Config) []api.ChatMessage {
	msgs := make([]api.ChatMessage, 0, 2)
	if cfg.System != "" {
		msgs = append(msgs, api.ChatMessage{Role: api.RoleSystem, Content: cfg.System})
	}
	return append(msgs, api.ChatMessage{Role: api.RoleUser, Content: cfg.Prompt})
}

// BuildRequest returns the chat request for cfg. The Stream flag is left
// false; the executor sets it per call.
func BuildRequest(cfg Config) *api.ChatRequest {
	return &api.ChatRequest{
		Model:       cfg.Model,
		Messages:    BuildMessages(cfg),
		Temperature: cfg.Temperature,
	}
}
