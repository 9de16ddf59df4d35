package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"standin/internal/llm"
	"standin/internal/prompt"
)

// Evaluation is the critic's verdict on a draft reply. Immutable once
// produced.
type Evaluation struct {
	IsAcceptable bool   `json:"is_acceptable"`
	Feedback     string `json:"feedback"`
}

// evaluationSchema is the structured-output contract: exactly the two
// verdict fields, nothing else.
var evaluationSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"is_acceptable": {
			"type": "boolean",
			"description": "Whether the reply meets the persona and quality rules"
		},
		"feedback": {
			"type": "string",
			"description": "Explanation of the verdict"
		}
	},
	"required": ["is_acceptable", "feedback"],
	"additionalProperties": false
}`)

// Evaluator judges a draft reply with a second model invocation constrained
// to a structured verdict.
type Evaluator struct {
	client  llm.Client
	prompts *prompt.Builder
}

func NewEvaluator(client llm.Client, prompts *prompt.Builder) *Evaluator {
	return &Evaluator{client: client, prompts: prompts}
}

// Evaluate returns the verdict for a draft reply. A response that does not
// decode into exactly the two verdict fields is an error, never silently
// treated as acceptance: the quality gate's correctness depends on that.
func (ev *Evaluator) Evaluate(ctx context.Context, reply, message string, history []llm.Message) (*Evaluation, error) {
	resp, err := ev.client.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: ev.prompts.EvaluatorSystem()},
			{Role: llm.RoleUser, Content: ev.prompts.EvaluatorUser(reply, message, history)},
		},
		ResponseSchema: &llm.OutputSchema{
			Name:        "evaluation",
			Description: "Quality verdict for the agent's latest reply",
			Schema:      evaluationSchema,
			Strict:      true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation call failed: %w", err)
	}

	verdict, err := decodeEvaluation(resp.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}

	return verdict, nil
}

func decodeEvaluation(content string) (*Evaluation, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.DisallowUnknownFields()

	var verdict Evaluation
	if err := dec.Decode(&verdict); err != nil {
		return nil, err
	}

	// Reject trailing garbage after the verdict object.
	if dec.More() {
		return nil, fmt.Errorf("unexpected trailing content after verdict")
	}

	return &verdict, nil
}
