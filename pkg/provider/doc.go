// Package provider defines the contract between the orchestrator and the
// chat backends. Each adapter (openai, copilot, gemini, test) turns a
// [Config] plus per-call [Options] into an HTTP request against an
// OpenAI-compatible endpoint; backend details such as URL layout and
// default base URLs stay inside the adapter.
//
// Adapters never read the process environment. Credentials and endpoints
// arrive through Options, so the same adapter value can serve many calls.
package provider
