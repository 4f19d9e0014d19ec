// Package api defines the value types shared by every gpt-cli layer.
//
// This package performs no I/O. It holds the chat wire types sent to
// OpenAI-compatible backends, the adapter result, and the error model:
//
//   - [ChatMessage], [ChatRequest]: request body of a chat completion call
//   - [Result]: what an adapter returns for a non-streaming call
//   - [ProviderError]: the single error type surfaced by provider calls
//   - [Normalize]: turns any failure value into a stable message and code
//
// A ProviderError is constructed only where a provider call fails. Callers
// classify failures with errors.As and the Code field, never by parsing the
// message text.
package api
