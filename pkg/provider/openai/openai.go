// Package openai adapts the OpenAI Chat Completions API.
package openai

import (
	"github.com/anschmieg/gpt-cli/pkg/provider"
	"github.com/anschmieg/gpt-cli/pkg/provider/openaicompat"
)

const (
	// Name is the registry key.
	Name = "openai"

	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "https://api.openai.com"

	chatPath = "/v1/chat/completions"
)

// Provider implements provider.StreamingProvider for OpenAI.
type Provider struct {
	*openaicompat.Adapter
}

var _ provider.StreamingProvider = (*Provider)(nil)

// New creates the OpenAI adapter.
func New() *Provider {
	return &Provider{
		Adapter: openaicompat.NewAdapter(openaicompat.Descriptor{
			Name:           Name,
			DisplayName:    "OpenAI",
			KeyEnv:         "OPENAI_API_KEY",
			BaseEnv:        "OPENAI_API_BASE",
			DefaultBaseURL: DefaultBaseURL,
			BuildURL:       BuildURL,
		}),
	}
}

// BuildURL strips trailing slashes and appends /v1/chat/completions unless
// the base already ends with it.
func BuildURL(base string) string {
	return openaicompat.AppendPath(base, chatPath)
}
