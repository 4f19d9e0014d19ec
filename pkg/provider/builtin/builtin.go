// Package builtin assembles the registry of adapters shipped with gpt-cli.
package builtin

import (
	"github.com/anschmieg/gpt-cli/pkg/provider"
	"github.com/anschmieg/gpt-cli/pkg/provider/copilot"
	"github.com/anschmieg/gpt-cli/pkg/provider/gemini"
	"github.com/anschmieg/gpt-cli/pkg/provider/mock"
	"github.com/anschmieg/gpt-cli/pkg/provider/openai"
)

// Registry returns a new registry holding the openai, copilot, gemini and
// test adapters.
func Registry() *provider.Registry {
	r := provider.NewRegistry()
	r.MustRegister(
		openai.New(),
		copilot.New(),
		gemini.New(),
		mock.New(),
	)
	return r
}
