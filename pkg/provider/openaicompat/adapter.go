package openaicompat

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/anschmieg/gpt-cli/pkg/api"
	"github.com/anschmieg/gpt-cli/pkg/provider"
)

// Descriptor captures everything that differs between OpenAI-compatible
// backends.
type Descriptor struct {
	// Name is the registry key, e.g. "copilot".
	Name string

	// DisplayName is used in error messages, e.g. "Copilot".
	DisplayName string

	// KeyEnv and BaseEnv name the environment variables a user sets to
	// supply the key and base URL. They only appear in error messages.
	KeyEnv  string
	BaseEnv string

	// DefaultBaseURL is used when Options.BaseURL is empty. An empty
	// default makes the base URL mandatory.
	DefaultBaseURL string

	// BuildURL turns the resolved base URL into the endpoint URL.
	BuildURL func(base string) string
}

// Adapter implements provider.StreamingProvider for one Descriptor on top
// of the shared Client.
type Adapter struct {
	desc Descriptor
}

var _ provider.StreamingProvider = (*Adapter)(nil)

// NewAdapter creates an Adapter. It panics on an incomplete descriptor,
// which is a programming error caught at startup.
func NewAdapter(desc Descriptor) *Adapter {
	if desc.Name == "" || desc.BuildURL == nil {
		panic("openaicompat: descriptor requires Name and BuildURL")
	}
	if desc.DisplayName == "" {
		desc.DisplayName = desc.Name
	}
	return &Adapter{desc: desc}
}

// Name returns the registry key.
func (a *Adapter) Name() string {
	return a.desc.Name
}

// Endpoint validates opts and returns the full chat completions URL.
// Missing credentials fail here, before any network call.
func (a *Adapter) Endpoint(opts provider.Options) (string, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return "", api.NewConfigError(api.CodeMissingAPIKey,
			fmt.Sprintf("%s API key is required (set %s)", a.desc.DisplayName, a.desc.KeyEnv))
	}

	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = a.desc.DefaultBaseURL
	}
	if base == "" {
		return "", api.NewConfigError(api.CodeMissingBaseURL,
			fmt.Sprintf("%s base URL is required (set %s)", a.desc.DisplayName, a.desc.BaseEnv))
	}
	return a.desc.BuildURL(base), nil
}

// Call performs a non-streaming completion.
func (a *Adapter) Call(ctx context.Context, cfg provider.Config, opts provider.Options) (*api.Result, error) {
	client, err := a.client(opts)
	if err != nil {
		return nil, err
	}
	text, err := client.Complete(ctx, provider.BuildRequest(cfg))
	if err != nil {
		return nil, err
	}
	return &api.Result{Text: text}, nil
}

// Stream performs a streaming completion of req.
func (a *Adapter) Stream(ctx context.Context, req *api.ChatRequest, opts provider.Options) (iter.Seq2[string, error], error) {
	client, err := a.client(opts)
	if err != nil {
		return nil, err
	}
	return client.Stream(ctx, req)
}

func (a *Adapter) client(opts provider.Options) (*Client, error) {
	url, err := a.Endpoint(opts)
	if err != nil {
		return nil, err
	}
	return NewClient(url, opts.APIKey, opts.Doer), nil
}

// TrimBase removes trailing slashes from a base URL.
func TrimBase(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

// AppendPath appends path to base unless base already ends with it.
// Applying it twice yields the same URL.
func AppendPath(base, path string) string {
	base = TrimBase(base)
	if strings.HasSuffix(base, path) {
		return base
	}
	return base + path
}
