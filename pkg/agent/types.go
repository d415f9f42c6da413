package agent

import "fmt"

// Message roles used in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Agent is the immutable configuration handed to the runner: who the
// assistant is, which model backs it and which tools it may call.
type Agent struct {
	Name         string   `json:"name"`
	Instructions string   `json:"instructions"`
	Model        ModelRef `json:"model"`
	Tools        []string `json:"tools,omitempty"`
}

// ModelRef binds a model name to the provider client that serves it.
type ModelRef struct {
	Name     string      `json:"name"`
	Provider LLMProvider `json:"-"`
}

// Validate checks that the agent can be run.
func (a Agent) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("agent name cannot be empty")
	}
	if a.Model.Name == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if a.Model.Provider == nil {
		return fmt.Errorf("model provider is required")
	}
	return nil
}

// Message is one entry of a conversation history.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall represents a tool invocation
type ToolCall struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates another usage report.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// RunResult is the outcome of a single run.
type RunResult struct {
	FinalOutput string     `json:"final_output"`
	Usage       TokenUsage `json:"usage"`
	Turns       int        `json:"turns"`

	history []Message
}

// ToInputList returns the full conversation after the run: the input
// followed by every message the run produced. The result is suitable as
// input for the next run.
func (r RunResult) ToInputList() []Message {
	return cloneMessages(r.history)
}

func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m
		if len(m.ToolCalls) > 0 {
			out[i].ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		}
	}
	return out
}
