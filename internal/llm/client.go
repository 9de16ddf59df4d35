package llm

import (
	"context"
	"encoding/json"
)

type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	Provider() string
	Model() string
}

type ChatRequest struct {
	Messages       []Message
	Tools          []*ToolDefinition
	ResponseSchema *OutputSchema
	Temperature    float32
	MaxTokens      int
}

type ChatResponse struct {
	Message    Message
	StopReason StopReason
	Usage      Usage
}

type ToolDefinition struct {
	Type     string
	Function *FunctionDef
}

type FunctionDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// OutputSchema constrains a completion to a JSON document matching Schema.
// Callers treat a non-conforming reply as ErrMalformedResponse, never as
// best-effort text.
type OutputSchema struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Strict      bool
}
