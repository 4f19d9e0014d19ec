// Package mock provides the "test" adapter: it never touches the network
// and returns canned output, so the orchestration path can be exercised
// without credentials for a real backend.
package mock

import (
	"context"
	"iter"
	"strings"

	"github.com/anschmieg/gpt-cli/pkg/api"
	"github.com/anschmieg/gpt-cli/pkg/provider"
)

// Name is the registry key.
const Name = "test"

// Chunks are the fragments produced by Stream. Call returns their
// concatenation.
var Chunks = []string{"chunk-1", "chunk-2"}

// Provider implements provider.StreamingProvider with canned output. An API
// key is still required so that credential plumbing is covered.
type Provider struct{}

var _ provider.StreamingProvider = (*Provider)(nil)

// New creates the test adapter.
func New() *Provider {
	return &Provider{}
}

// Name returns the registry key.
func (p *Provider) Name() string {
	return Name
}

// Call returns the concatenated chunks.
func (p *Provider) Call(_ context.Context, _ provider.Config, opts provider.Options) (*api.Result, error) {
	if err := requireKey(opts); err != nil {
		return nil, err
	}
	return &api.Result{Text: strings.Join(Chunks, "")}, nil
}

// Stream yields each chunk in order.
func (p *Provider) Stream(ctx context.Context, _ *api.ChatRequest, opts provider.Options) (iter.Seq2[string, error], error) {
	if err := requireKey(opts); err != nil {
		return nil, err
	}
	return func(yield func(string, error) bool) {
		for _, c := range Chunks {
			if err := ctx.Err(); err != nil {
				yield("", api.NewNetworkError(err))
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}, nil
}

func requireKey(opts provider.Options) error {
	if strings.TrimSpace(opts.APIKey) == "" {
		return api.NewConfigError(api.CodeMissingAPIKey, "TEST_ADAPTER_API_KEY required")
	}
	return nil
}
