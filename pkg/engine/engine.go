package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/anschmieg/gpt-cli/pkg/api"
	"github.com/anschmieg/gpt-cli/pkg/config"
	"github.com/anschmieg/gpt-cli/pkg/debug"
	"github.com/anschmieg/gpt-cli/pkg/observability"
	"github.com/anschmieg/gpt-cli/pkg/provider"
	"github.com/anschmieg/gpt-cli/pkg/render"
)

// Fallback reasons recorded in gptcli_fallbacks_total.
const (
	fallbackStreamError = "stream_error"
	fallbackEmptyStream = "empty_stream"
)

// Engine runs invocations against the adapters of a registry.
type Engine struct {
	registry *provider.Registry
	cfg      Config
}

// New creates a new Engine. The registry must not be nil.
func New(registry *provider.Registry, cfg Config) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("engine: registry must not be nil")
	}
	if len(cfg.ModelRejectionPhrases) == 0 {
		cfg.ModelRejectionPhrases = config.DefaultModelRejectionPhrases
	}
	return &Engine{registry: registry, cfg: cfg}, nil
}

// Run executes one invocation and writes the response to the configured
// output. Configuration errors are returned before any network call.
func (e *Engine) Run(ctx context.Context, req Request) error {
	p, err := e.registry.Lookup(req.Provider)
	if err != nil {
		return err
	}

	pcfg, err := resolve(p.Name(), req)
	if err != nil {
		return err
	}

	if e.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RequestTimeout)
		defer cancel()
	}

	if req.Verbose {
		debug.Log("engine", "resolved request",
			"provider", p.Name(), "model", pcfg.Model, "stream", req.Stream,
			"markdown", req.UseMarkdown, "auto_retry_model", req.AutoRetryModel)
	}

	// rejected is set once the backend has refused pcfg.Model, so the
	// model-less retry is the only request left to make.
	var shown partial
	var rejected bool
	if req.Stream {
		if sp, ok := p.(provider.StreamingProvider); ok {
			var reason string
			shown, reason, err = e.stream(ctx, sp, pcfg, req)
			if reason == "" {
				return nil
			}
			observability.FallbacksTotal.WithLabelValues(p.Name(), reason).Inc()
			debug.Log("engine", "streaming failed, falling back to non-streaming",
				"provider", p.Name(), "reason", reason, "error", err)
			rejected = req.AutoRetryModel && shown.text == "" && e.isModelRejection(err)
		} else {
			debug.Log("engine", "provider does not stream, using non-streaming call", "provider", p.Name())
		}
	}

	var result *api.Result
	if !rejected {
		result, err = e.call(ctx, p, pcfg, req.Options)
		if err != nil {
			if !req.AutoRetryModel || !e.isModelRejection(err) {
				return err
			}
			rejected = true
		}
	}

	if rejected {
		observability.RetriesTotal.WithLabelValues(p.Name()).Inc()
		debug.Log("engine", "model rejected, retrying without model", "provider", p.Name(), "model", pcfg.Model)

		pcfg.Model = ""
		result, err = e.call(ctx, p, pcfg, req.Options)
		if err != nil {
			return fmt.Errorf("%w (after retry)", err)
		}
	}

	return e.write(result, req.UseMarkdown, shown)
}

// resolve applies request defaults and builds the adapter-facing config.
func resolve(providerName string, req Request) (provider.Config, error) {
	cfg := provider.Config{
		Model:       req.Model,
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
	}
	if cfg.System == "" {
		cfg.System = config.DefaultSystem
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel(providerName)
	}
	if req.File != "" {
		data, err := os.ReadFile(req.File)
		if err != nil {
			return provider.Config{}, api.NewConfigError("", fmt.Sprintf("reading --file %s: %v", req.File, err))
		}
		cfg.Prompt = appendFile(cfg.Prompt, string(data))
	}
	return cfg, nil
}

// appendFile appends contents to prompt inside a fenced block. The fence
// is switched to ~~~~ when the contents already contain backtick fences.
func appendFile(prompt, contents string) string {
	fence := "```"
	if strings.Contains(contents, "```") {
		fence = "~~~~"
	}

	var sb strings.Builder
	if prompt != "" {
		sb.WriteString(prompt)
		sb.WriteString("\n\n")
	}
	sb.WriteString(fence)
	sb.WriteByte('\n')
	sb.WriteString(render.EnsureNewline(contents))
	sb.WriteString(fence)
	return sb.String()
}

// partial is the output a failed stream already printed.
type partial struct {
	text    string // fragments as received, before rendering
	newline bool   // printed output ends with a newline
}

// stream performs the streaming attempt. It returns an empty reason when
// the stream completed with at least one fragment; otherwise the reason
// and error explain why the caller should fall back, and partial holds
// whatever was printed before the failure.
func (e *Engine) stream(ctx context.Context, sp provider.StreamingProvider, pcfg provider.Config, req Request) (partial, string, error) {
	name := sp.Name()
	start := time.Now()

	chatReq := provider.BuildRequest(pcfg)
	chatReq.Stream = true

	seq, err := sp.Stream(ctx, chatReq, req.Options)
	if err != nil {
		e.record(name, pcfg.Model, observability.ModeStream, start, err)
		return partial{}, fallbackStreamError, err
	}

	w := e.cfg.out()
	markdown := req.UseMarkdown && e.cfg.Renderer.Enabled()
	var buf render.FragmentBuffer
	var received strings.Builder
	var fragments int
	var wrote, lastNewline bool

	emit := func(s string) {
		if s == "" {
			return
		}
		if markdown {
			s = e.cfg.Renderer.Render(s)
		}
		if _, werr := io.WriteString(w, s); werr == nil {
			wrote = true
			lastNewline = strings.HasSuffix(s, "\n")
		}
	}

	var streamErr error
	for frag, err := range seq {
		if err != nil {
			streamErr = err
			break
		}
		fragments++
		received.WriteString(frag)
		observability.StreamFragmentsTotal.WithLabelValues(name).Inc()
		if debug.TraceIsEnabled("streaming") {
			debug.Trace("streaming", "fragment", "provider", name, "text", debug.Truncate(frag, 80))
		}
		if !markdown {
			emit(frag)
			continue
		}
		for _, f := range buf.Add(frag) {
			emit(f)
		}
	}
	if markdown {
		emit(buf.Flush())
	}

	var shown partial
	if wrote {
		shown = partial{text: received.String(), newline: lastNewline}
	}

	if streamErr == nil && fragments == 0 {
		streamErr = api.NewProtocolError("stream produced no content")
		e.record(name, pcfg.Model, observability.ModeStream, start, streamErr)
		return shown, fallbackEmptyStream, streamErr
	}
	e.record(name, pcfg.Model, observability.ModeStream, start, streamErr)
	if streamErr != nil {
		return shown, fallbackStreamError, streamErr
	}
	if wrote && !lastNewline {
		_, _ = io.WriteString(w, "\n")
	}
	return partial{}, "", nil
}

// call performs one non-streaming completion with metrics and logging.
func (e *Engine) call(ctx context.Context, p provider.Provider, pcfg provider.Config, opts provider.Options) (*api.Result, error) {
	start := time.Now()
	result, err := p.Call(ctx, pcfg, opts)
	e.record(p.Name(), pcfg.Model, observability.ModeComplete, start, err)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &api.Result{}
	}
	return result, nil
}

func (e *Engine) record(name, model, mode string, start time.Time, err error) {
	duration := time.Since(start)
	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
	}
	observability.ProviderRequestsTotal.WithLabelValues(name, model, mode, status).Inc()
	observability.ProviderLatency.WithLabelValues(name, mode).Observe(duration.Seconds())
	debug.Log("providers", "provider call",
		"provider", name, "model", model, "mode", mode, "status", status,
		"duration_ms", duration.Milliseconds(), "error", err)
}

// isModelRejection reports whether err means the backend does not serve
// the requested model.
func (e *Engine) isModelRejection(err error) bool {
	n := api.Normalize(err)
	code := strings.ToLower(n.Code)
	msg := strings.ToLower(n.Message)

	var pe *api.ProviderError
	if errors.As(err, &pe) && pe.Original != nil {
		orig := api.Normalize(pe.Original)
		code += " " + strings.ToLower(orig.Code)
		msg += " " + strings.ToLower(orig.Message)
	}

	for _, phrase := range e.cfg.ModelRejectionPhrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p == "" {
			continue
		}
		if strings.Contains(code, p) || strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// write prints the result. Without markdown the plain text is preferred;
// with markdown the markdown is preferred and rendered. Either falls back
// to the other field when empty. When a failed stream already printed the
// start of the result, only the rest is written.
func (e *Engine) write(result *api.Result, useMarkdown bool, shown partial) error {
	text, other := result.Text, result.Markdown
	if useMarkdown {
		text, other = other, text
	}
	if text == "" {
		text = other
	}

	w := e.cfg.out()
	if shown.text != "" {
		rest, ok := strings.CutPrefix(text, shown.text)
		if !ok {
			rest, ok = strings.CutPrefix(render.EnsureNewline(text), shown.text)
		}
		switch {
		case ok && rest == "":
			if !shown.newline {
				_, err := io.WriteString(w, "\n")
				return err
			}
			return nil
		case ok:
			text = rest
		case !shown.newline:
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}

	var out string
	if useMarkdown {
		out = e.cfg.Renderer.Render(text)
	} else {
		out = render.EnsureNewline(text)
	}
	if out == "" {
		out = "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}
