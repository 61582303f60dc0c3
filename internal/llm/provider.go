package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for LLM interaction.
// Consumers call Generate with a Request and receive text and/or
// structured tool-call requests.
type Provider interface {
	// Generate sends the conversation to the LLM and returns its reply.
	// When the request carries tool declarations, the response may contain
	// ToolCalls the caller is expected to execute and answer via RoleTool
	// messages on the next turn.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history.
	Messages []Message

	// Tools is the set of function declarations the model may call.
	Tools []ToolDecl

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Message is one entry of the conversation. It is a tagged variant:
// a task/user message (RoleUser, Content), a model turn (RoleAssistant,
// Content and/or ToolCalls), or a tool result (RoleTool, ToolResult).
// Providers are responsible for encoding each variant into their own
// wire dialect and must round-trip model turns faithfully, otherwise
// the model loses track of calls it already issued.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolResult *ToolResult
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// TaskMessage builds a user message carrying the task description.
func TaskMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// ModelTurn builds an assistant message from a provider response.
func ModelTurn(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// ToolResultMessage builds a message answering one tool call.
func ToolResultMessage(res ToolResult) Message {
	return Message{Role: RoleTool, ToolResult: &res}
}

// ToolDecl declares a callable function to the model.
type ToolDecl struct {
	// Name is the function name the model uses to call it. Snake-case.
	Name string

	// Description tells the model what the function does and when to use it.
	Description string

	// Parameters is the JSON Schema for the function's arguments.
	Parameters map[string]any
}

// ToolCall is a model-issued request to invoke a declared function.
type ToolCall struct {
	// ID correlates this call with its result. Some providers omit it;
	// adapters synthesize one so correlation always works.
	ID string

	// Name is the declared function name.
	Name string

	// Arguments is the raw JSON argument object supplied by the model.
	Arguments json.RawMessage
}

// ToolResult is the locally computed answer to one ToolCall.
type ToolResult struct {
	CallID  string
	Name    string
	Content json.RawMessage
	IsError bool
}

// Response holds the LLM's output for one turn.
type Response struct {
	// Text is the model's free-text output, possibly empty on pure
	// tool-call turns.
	Text string

	// ToolCalls are the function calls the model requested this turn,
	// in the order the model issued them.
	ToolCalls []ToolCall

	// Usage reports token consumption for this request.
	Usage Usage

	// CostUSD is the billed cost of this request, derived from the
	// pricing table. Zero when the model is not in the table.
	CostUSD float64

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "tool_use", "max_tokens"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
