package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/anschmieg/gpt-cli/pkg/api"
	"github.com/anschmieg/gpt-cli/pkg/debug"
	"github.com/anschmieg/gpt-cli/pkg/observability"
	"github.com/anschmieg/gpt-cli/pkg/provider"
)

// MaxResponseBodySize bounds a non-streaming response body.
const MaxResponseBodySize = 10 << 20

// defaultDoer is shared by clients created without an explicit Doer. It has
// no timeout: streams may legitimately outlive any fixed deadline, so the
// request context controls the lifetime instead.
var defaultDoer provider.Doer = &http.Client{
	Transport: observability.NewRoundTripper(http.DefaultTransport),
}

// Client performs one chat completion call against a fully built endpoint
// URL. Adapters resolve the URL and key, then delegate to Complete or Stream.
type Client struct {
	doer   provider.Doer
	url    string
	apiKey string
}

// NewClient creates a Client. A nil doer selects the default HTTP client.
func NewClient(url, apiKey string, doer provider.Doer) *Client {
	if doer == nil {
		doer = defaultDoer
	}
	return &Client{doer: doer, url: url, apiKey: apiKey}
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string {
	return c.url
}

// Complete performs a non-streaming call and returns
// choices[0].message.content. A non-string content is a protocol error.
func (c *Client) Complete(ctx context.Context, req *api.ChatRequest) (string, error) {
	reqCopy := *req
	reqCopy.Stream = false

	httpResp, err := c.post(ctx, &reqCopy)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	var chatResp ChatCompletionResponse
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, MaxResponseBodySize)).Decode(&chatResp); err != nil {
		return "", api.NewProtocolError(fmt.Sprintf("invalid response shape from provider: %s", err.Error()))
	}
	if len(chatResp.Choices) == 0 {
		return "", api.NewProtocolError("invalid response shape from provider: no choices")
	}

	content, ok := chatResp.Choices[0].Message.Content.(string)
	if !ok {
		return "", api.NewProtocolError("invalid response shape from provider: content is not a string")
	}
	return content, nil
}

// Stream performs a streaming call. Failures up to and including the
// response status are returned directly; the 2xx body is handed to
// ParseSSEStream untouched and owned by the returned sequence.
func (c *Client) Stream(ctx context.Context, req *api.ChatRequest) (iter.Seq2[string, error], error) {
	reqCopy := *req
	reqCopy.Stream = true

	httpResp, err := c.post(ctx, &reqCopy)
	if err != nil {
		return nil, err
	}
	return ParseSSEStream(httpResp.Body), nil
}

// post sends the request and returns a 2xx response. On any other status
// the body is consumed, closed, and mapped to a ProviderError.
func (c *Client) post(ctx context.Context, chatReq *api.ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewConfigError("", fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewConfigError("", fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	requestID := api.NewRequestID()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("X-Request-ID", requestID)
	if chatReq.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	debug.Log("providers", "POST",
		"url", c.url,
		"model", chatReq.Model,
		"stream", chatReq.Stream,
		"request_id", requestID,
	)
	debug.Raw("providers", string(body))

	httpResp, err := c.doer.Do(httpReq)
	if err != nil {
		return nil, api.NewNetworkError(err)
	}
	if httpResp.Body == nil {
		httpResp.Body = http.NoBody
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, MapHTTPError(httpResp)
	}
	return httpResp, nil
}
