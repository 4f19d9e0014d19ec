package openaicompat

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/anschmieg/gpt-cli/pkg/api"
	"github.com/anschmieg/gpt-cli/pkg/debug"
)

// MaxErrorBodySize bounds how much of a failed response is read.
const MaxErrorBodySize = 1 << 20

// MapHTTPError converts a non-2xx response into a ProviderError. The body is
// decoded as JSON when possible; truncated or sloppy JSON objects are
// repaired first. When no JSON can be recovered the error is built from the
// status line and raw body text. The response body is not closed.
func MapHTTPError(resp *http.Response) *api.ProviderError {
	var data []byte
	if resp.Body != nil {
		data, _ = io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
	}

	payload, ok := DecodeErrorBody(data)
	if !ok {
		payload = map[string]any{
			"status":     resp.StatusCode,
			"statusText": statusText(resp),
			"body":       string(data),
		}
	}

	pe := api.NewProviderError(payload)
	pe.Status = resp.StatusCode

	debug.Log("providers", "backend error",
		"status", resp.StatusCode,
		"code", pe.Code,
		"message", debug.Truncate(pe.Message, 200),
	)
	return pe
}

// statusText returns the reason phrase the server sent, or the standard
// one when the status line carries none.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// DecodeErrorBody parses an error response body. Any valid JSON value other
// than null is accepted as is. Otherwise a repair is attempted and accepted
// only if it yields an object, so plain-text bodies are not turned into
// quoted strings.
func DecodeErrorBody(data []byte) (any, bool) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, false
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed, parsed != nil
	}

	if !strings.HasPrefix(text, "{") {
		return nil, false
	}
	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
