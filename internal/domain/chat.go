package domain

import "context"

// Chat message roles as understood by the completion endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a structured request from the model asking the engine to
// perform an external action before finalizing an answer. Arguments is
// the raw JSON string exactly as the model produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatMessage is one turn in a completion exchange.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCallID string     // set on tool-role result messages
	ToolCalls  []ToolCall // set on assistant messages requesting tools
}

// ToolChoice controls whether the search tool is advertised to the model.
type ToolChoice string

const (
	// ToolChoiceNone advertises no tools.
	ToolChoiceNone ToolChoice = ""
	// ToolChoiceAuto advertises the search tool, model decides.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceRequired forces the model to call the search tool.
	ToolChoiceRequired ToolChoice = "required"
)

// ChatRequest is one request to the completion endpoint.
type ChatRequest struct {
	LLM        LLMConfig
	Messages   []ChatMessage
	ToolChoice ToolChoice // ToolChoiceNone omits the tool schema entirely
}

// CompletionClient talks to an OpenAI-compatible chat completion endpoint.
type CompletionClient interface {
	Complete(ctx context.Context, req ChatRequest) (ChatMessage, error)
}

// WebResult is one parsed search-provider hit.
type WebResult struct {
	Title   string
	URL     string
	Snippet string
}

// WebSearcher runs unauthenticated web searches and bounded page fetches.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]WebResult, error)
	FetchPage(ctx context.Context, url string, maxChars int) (string, error)
}
