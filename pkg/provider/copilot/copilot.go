// Package copilot adapts GitHub Copilot's OpenAI-compatible endpoint.
//
// Copilot has no public default base URL, so one must always be configured.
// Users paste base URLs in several shapes (host only, host plus /v1, or the
// full endpoint); BuildURL accepts all of them without doubling /v1.
package copilot

import (
	"strings"

	"github.com/anschmieg/gpt-cli/pkg/provider"
	"github.com/anschmieg/gpt-cli/pkg/provider/openaicompat"
)

// Name is the registry key.
const Name = "copilot"

const (
	versionSegment = "/v1"
	completionPath = "/chat/completions"
)

// Provider implements provider.StreamingProvider for Copilot.
type Provider struct {
	*openaicompat.Adapter
}

var _ provider.StreamingProvider = (*Provider)(nil)

// New creates the Copilot adapter.
func New() *Provider {
	return &Provider{
		Adapter: openaicompat.NewAdapter(openaicompat.Descriptor{
			Name:        Name,
			DisplayName: "Copilot",
			KeyEnv:      "COPILOT_API_KEY",
			BaseEnv:     "COPILOT_API_BASE",
			BuildURL:    BuildURL,
		}),
	}
}

// BuildURL returns base unchanged if it already ends with
// /v1/chat/completions, appends /chat/completions if it has a /v1 path
// segment, and appends /v1/chat/completions otherwise. Hosts such as
// v1.example.com and segments such as /v1beta do not count as /v1.
func BuildURL(base string) string {
	base = openaicompat.TrimBase(base)
	switch {
	case strings.HasSuffix(base, versionSegment+completionPath):
		return base
	case strings.HasSuffix(base, versionSegment) || strings.Contains(base, versionSegment+"/"):
		return base + completionPath
	default:
		return base + versionSegment + completionPath
	}
}
