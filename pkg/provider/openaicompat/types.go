package openaicompat

// Chat Completions response types. Content fields are decoded as any so that
// the executor can tell a missing or non-string content apart from an empty
// string.

// ChatCompletionResponse is the non-streaming response body.
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *ChatUsage   `json:"usage,omitempty"`
}

// ChatChoice is one choice of a non-streaming response.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatContent `json:"message"`
	FinishReason *string     `json:"finish_reason"`
}

// ChatContent is the message or delta object of a choice.
type ChatContent struct {
	Role    string `json:"role,omitempty"`
	Content any    `json:"content"`
}

// ChatUsage contains token usage statistics.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionChunk is one SSE payload of a streaming response. Some
// servers echo the full message instead of a delta, so both are decoded.
type ChatCompletionChunk struct {
	ID      string            `json:"id"`
	Choices []ChatChunkChoice `json:"choices"`
}

// ChatChunkChoice is one choice of a streaming chunk.
type ChatChunkChoice struct {
	Index   int          `json:"index"`
	Delta   *ChatContent `json:"delta,omitempty"`
	Message *ChatContent `json:"message,omitempty"`
}
