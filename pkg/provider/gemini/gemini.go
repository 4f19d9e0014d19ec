// Package gemini adapts Google Gemini's OpenAI compatibility layer.
package gemini

import (
	"github.com/anschmieg/gpt-cli/pkg/provider"
	"github.com/anschmieg/gpt-cli/pkg/provider/openaicompat"
)

const (
	// Name is the registry key.
	Name = "gemini"

	// DefaultBaseURL is the OpenAI-compatible root of the Gemini API.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"

	chatPath = "/chat/completions"
)

// Provider implements provider.StreamingProvider for Gemini.
type Provider struct {
	*openaicompat.Adapter
}

var _ provider.StreamingProvider = (*Provider)(nil)

// New creates the Gemini adapter.
func New() *Provider {
	return &Provider{
		Adapter: openaicompat.NewAdapter(openaicompat.Descriptor{
			Name:           Name,
			DisplayName:    "Gemini",
			KeyEnv:         "GEMINI_API_KEY",
			BaseEnv:        "GEMINI_API_BASE",
			DefaultBaseURL: DefaultBaseURL,
			BuildURL:       BuildURL,
		}),
	}
}

// BuildURL strips trailing slashes and appends /chat/completions only if it
// is not already present. The version segment is part of the base.
func BuildURL(base string) string {
	return openaicompat.AppendPath(base, chatPath)
}
