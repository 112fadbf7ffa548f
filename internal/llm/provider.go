/*
Package llm talks to hosted chat-completion models. Every call forces the
model to answer through one caller-supplied function so that the reply is a
JSON argument string rather than free text.
*/
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Role identifies the author of a Message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one entry of the conversation sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Tool is the function the model is forced to call.
type Tool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// ParametersMap returns the parameter schema as a plain JSON object.
func (t Tool) ParametersMap() (map[string]any, error) {
	if t.Parameters == nil {
		return map[string]any{"type": "object"}, nil
	}
	raw, err := json.Marshal(t.Parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s parameters: %w", t.Name, err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s parameters: %w", t.Name, err)
	}
	return out, nil
}

// ToolRequest is a single forced-function completion request.
type ToolRequest struct {
	Messages []Message
	Tool     Tool
}

// ToolCall is a function call emitted by the model. Arguments is the raw
// JSON string exactly as the provider returned it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Completion is the first choice of a model reply.
type Completion struct {
	Model        string
	FinishReason string
	ToolCalls    []ToolCall
}

// Provider is a hosted model. Implementations pin the tool choice to
// req.Tool.Name so no other tool can be selected.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req ToolRequest) (*Completion, error)
}

// StatusError is a non-2xx reply from a provider's HTTP API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}
