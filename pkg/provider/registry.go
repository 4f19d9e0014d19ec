package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/anschmieg/gpt-cli/pkg/api"
)

// Registry maps provider names to adapters. Names are matched
// case-insensitively. The set is fixed at startup; there is no dynamic
// loading of adapters.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds p under its lower-cased name. A nil provider, an empty
// name, or a duplicate name is rejected so that a broken adapter fails at
// startup rather than on first use.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("registering provider: provider is nil")
	}
	name := strings.ToLower(strings.TrimSpace(p.Name()))
	if name == "" {
		return fmt.Errorf("registering provider: name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("registering provider: %q already registered", name)
	}
	r.providers[name] = p
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(providers ...Provider) {
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the adapter for name. An unknown name yields a
// ProviderError with code unknown_provider listing the known names.
func (r *Registry) Lookup(name string) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	r.mu.RLock()
	p, ok := r.providers[key]
	r.mu.RUnlock()

	if !ok {
		return nil, api.NewConfigError(api.CodeUnknownProvider,
			fmt.Sprintf("unknown provider %q (available: %s)", name, strings.Join(r.Names(), ", ")))
	}
	return p, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
