package api

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of the conversation sent to the backend.
// Order is significant.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the JSON body of a chat completion call. Model is omitted
// from the wire when empty so the backend picks its default.
type ChatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// Result is the outcome of a non-streaming provider call. Markdown is set
// only by adapters that return pre-formatted text; the orchestrator falls
// back to Text when it is empty.
type Result struct {
	Text     string `json:"text,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}
