// Package engine implements the orchestration of one gpt-cli invocation.
// The Engine resolves request defaults, looks up the adapter by name,
// attempts a streaming call when requested and supported, falls back to a
// non-streaming call when the stream fails, retries once without a model
// when the backend rejects it, and writes the result to the output.
package engine
