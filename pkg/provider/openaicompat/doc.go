// Package openaicompat implements the shared request path for every
// OpenAI-compatible Chat Completions backend: request execution, SSE
// parsing, and HTTP error mapping.
//
// Provider adapters (openai, copilot, gemini) are thin [Descriptor] values
// wrapped in an [Adapter]; they differ only in default base URL and in how
// the endpoint path is appended.
package openaicompat
