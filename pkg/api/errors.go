package api

import (
	"fmt"
)

// Error codes produced locally. HTTP failures carry whatever code the
// backend reported instead.
const (
	CodeConfig          = "config_error"
	CodeMissingAPIKey   = "missing_api_key"
	CodeMissingBaseURL  = "missing_base_url"
	CodeUnknownProvider = "unknown_provider"
	CodeNetwork         = "network_error"
	CodeInvalidResponse = "invalid_response"
)

// ProviderError is the error returned by every failed provider call.
// Message is always non-empty. Status is the HTTP status when the failure
// came from a backend response, zero otherwise. Original keeps the value the
// error was derived from (parsed JSON body, transport error) for diagnostics.
type ProviderError struct {
	Code     string
	Message  string
	Status   int
	Original any
}

// Error implements the error interface. Only the message is returned so
// that user-facing output reads "Error: <message>".
func (e *ProviderError) Error() string {
	return e.Message
}

// Unwrap exposes the original value when it is itself an error.
func (e *ProviderError) Unwrap() error {
	if err, ok := e.Original.(error); ok {
		return err
	}
	return nil
}

// NewProviderError normalizes v and wraps the result, keeping v as Original.
func NewProviderError(v any) *ProviderError {
	n := Normalize(v)
	return &ProviderError{
		Code:     n.Code,
		Message:  n.Message,
		Original: v,
	}
}

// NewConfigError creates a ProviderError for a local configuration problem
// detected before any network call.
func NewConfigError(code, message string) *ProviderError {
	if code == "" {
		code = CodeConfig
	}
	return &ProviderError{Code: code, Message: message}
}

// NewNetworkError wraps a transport failure (connection refused, DNS, TLS,
// cancelled context).
func NewNetworkError(err error) *ProviderError {
	return &ProviderError{
		Code:     CodeNetwork,
		Message:  fmt.Sprintf("backend connection error: %s", err.Error()),
		Original: err,
	}
}

// NewProtocolError creates a ProviderError for a 2xx response whose body
// does not have the expected shape.
func NewProtocolError(message string) *ProviderError {
	return &ProviderError{Code: CodeInvalidResponse, Message: message}
}
