// Package mockserver provides a deterministic OpenAI-compatible Chat
// Completions backend. Responses are chosen by inspecting the last user
// message, so tests and local runs can reach every client code path
// (streaming, fallback, model rejection, malformed responses) without a
// real provider.
//
// Scenarios, matched case-insensitively against the last user message:
//
//	"count from 1 to 5"  "1, 2, 3, 4, 5"
//	"echo: <text>"       <text>
//	"markdown"           a heading, a list and a fenced code block
//	"trigger error"      HTTP 500 with an OpenAI error body
//	"no stream"          streaming requests fail with HTTP 400
//	"empty stream"       streaming requests end without content
//	"bad shape"          non-streaming content is a number
//	anything else        "Hello, nice day!"
//
// A request for a model listed in Options.RejectedModels is answered with
// HTTP 400 and code model_not_supported.
package mockserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/anschmieg/gpt-cli/pkg/api"
	"github.com/anschmieg/gpt-cli/pkg/debug"
	"github.com/anschmieg/gpt-cli/pkg/provider/openaicompat"
)

// DefaultModel is reported when a request omits the model.
const DefaultModel = "mock-model"

// RejectedModel is rejected with model_not_supported unless
// Options.RejectedModels says otherwise.
const RejectedModel = "unsupported-model"

// MarkdownReply is the answer to the "markdown" scenario.
const MarkdownReply = "# Mock Title\n\n- first\n- second\n\n```go\nfmt.Println(\"hi\")\n```\n"

// Options configures the mock backend.
type Options struct {
	// APIKey, when set, must be presented as a Bearer token.
	APIKey string

	// RejectedModels are answered with model_not_supported. Nil means
	// []string{RejectedModel}.
	RejectedModels []string

	// FramesPerWrite batches that many SSE frames into each write. Values
	// below 1 mean one frame per write.
	FramesPerWrite int

	// Logger receives one DEBUG entry per request. Nil means slog.Default().
	Logger *slog.Logger
}

// Server is the mock backend handler.
type Server struct {
	opts    Options
	mux     *http.ServeMux
	handler http.Handler
}

// New creates the mock backend.
func New(opts Options) *Server {
	if opts.RejectedModels == nil {
		opts.RejectedModels = []string{RejectedModel}
	}
	if opts.FramesPerWrite < 1 {
		opts.FramesPerWrite = 1
	}

	s := &Server{opts: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	s.mux.HandleFunc("GET /v1/models", s.handleModels)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	s.handler = Chain(Recovery(), RequestID(), Logging(opts.Logger))(s.mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if s.opts.APIKey != "" && r.Header.Get("Authorization") != "Bearer "+s.opts.APIKey {
		writeError(w, http.StatusUnauthorized, "invalid_api_key", "Incorrect API key provided")
		return
	}

	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid request")
		return
	}
	debug.Log("mock", "chat completion", "model", req.Model, "stream", req.Stream,
		"request_id", RequestIDFromContext(r.Context()))

	if slices.Contains(s.opts.RejectedModels, req.Model) {
		writeError(w, http.StatusBadRequest, "model_not_supported", "The requested model is not supported")
		return
	}

	prompt := strings.ToLower(lastUserMessage(&req))
	if strings.Contains(prompt, "trigger error") {
		writeError(w, http.StatusInternalServerError, "server_error", "internal mock failure")
		return
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	if req.Stream {
		s.handleStreaming(w, model, &req)
		return
	}

	var content any = replyText(&req)
	if strings.Contains(prompt, "bad shape") {
		content = 42
	}
	writeJSON(w, http.StatusOK, openaicompat.ChatCompletionResponse{
		ID:     "chatcmpl-mock-text",
		Object: "chat.completion",
		Model:  model,
		Choices: []openaicompat.ChatChoice{{
			Message:      openaicompat.ChatContent{Role: "assistant", Content: content},
			FinishReason: ptr("stop"),
		}},
		Usage: &openaicompat.ChatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	})
}

func (s *Server) handleStreaming(w http.ResponseWriter, model string, req *api.ChatRequest) {
	prompt := strings.ToLower(lastUserMessage(req))
	if strings.Contains(prompt, "no stream") {
		writeError(w, http.StatusBadRequest, "stream_unsupported", "streaming is not available for this request")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var tokens []string
	if !strings.Contains(prompt, "empty stream") {
		tokens = Tokens(replyText(req))
	}

	frames := make([]string, 0, len(tokens)+3)
	frames = append(frames, chunkFrame(model, map[string]any{"role": "assistant"}, nil))
	for _, tok := range tokens {
		frames = append(frames, chunkFrame(model, map[string]any{"content": tok}, nil))
	}
	frames = append(frames, chunkFrame(model, map[string]any{}, ptr("stop")))
	frames = append(frames, "data: [DONE]\n\n")

	for start := 0; start < len(frames); start += s.opts.FramesPerWrite {
		end := min(start+s.opts.FramesPerWrite, len(frames))
		fmt.Fprint(w, strings.Join(frames[start:end], ""))
		flusher.Flush()
	}
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": DefaultModel, "object": "model", "owned_by": "gpt-cli-mock"},
		},
	})
}

// replyText picks the answer for the last user message.
func replyText(req *api.ChatRequest) string {
	msg := lastUserMessage(req)
	lower := strings.ToLower(msg)
	switch {
	case strings.HasPrefix(lower, "echo:"):
		return strings.TrimSpace(msg[len("echo:"):])
	case strings.Contains(lower, "count from 1 to 5"):
		return "1, 2, 3, 4, 5"
	case strings.Contains(lower, "markdown"):
		return MarkdownReply
	}
	return "Hello, nice day!"
}

// Tokens splits text into the fragments the mock streams: words and the
// whitespace that follows them. Joining the result yields text.
func Tokens(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' || text[i] == '\n' {
			out = append(out, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func chunkFrame(model string, delta map[string]any, finishReason *string) string {
	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{map[string]any{
			"index":         0,
			"delta":         delta,
			"finish_reason": finishReason,
		}},
	}
	data, _ := json.Marshal(chunk)
	return "data: " + string(data) + "\n\n"
}

func lastUserMessage(req *api.ChatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == api.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
			"code":    code,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func ptr[T any](v T) *T {
	return &v
}
