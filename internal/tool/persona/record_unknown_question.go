package persona

import (
	"context"
	"encoding/json"
	"fmt"

	"standin/internal/notify"
	"standin/internal/tool"
)

// QuestionSink persists a question the persona could not answer.
type QuestionSink interface {
	Record(ctx context.Context, question string) error
}

// RecordUnknownQuestionTool logs a question the persona could not answer and
// notifies the operator about the knowledge gap.
type RecordUnknownQuestionTool struct {
	sink     QuestionSink
	notifier notify.Notifier
}

func NewRecordUnknownQuestionTool(sink QuestionSink, notifier notify.Notifier) *RecordUnknownQuestionTool {
	return &RecordUnknownQuestionTool{sink: sink, notifier: notifier}
}

func (t *RecordUnknownQuestionTool) Name() string {
	return "record_unknown_question"
}

func (t *RecordUnknownQuestionTool) Description() string {
	return "Always use this tool to record any question that couldn't be answered as you didn't know the answer"
}

func (t *RecordUnknownQuestionTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question that couldn't be answered",
			},
		},
		"required":             []string{"question"},
		"additionalProperties": false,
	}
}

type recordUnknownQuestionParams struct {
	Question string `json:"question"`
}

func (t *RecordUnknownQuestionTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var p recordUnknownQuestionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &tool.Result{
			Success: false,
			Error:   fmt.Sprintf("invalid parameters: %v", err),
		}, nil
	}

	if p.Question == "" {
		return &tool.Result{
			Success: false,
			Error:   "question is required",
		}, nil
	}

	if err := t.sink.Record(ctx, p.Question); err != nil {
		return &tool.Result{
			Success: false,
			Error:   fmt.Sprintf("failed to log question: %v", err),
		}, nil
	}

	// The store is the system of record; a failed push is not worth
	// failing the call over once the question is logged.
	body := fmt.Sprintf("Recording question that couldn't be answered: %s", p.Question)
	_ = t.notifier.Send(ctx, "Unknown question", body)

	return &tool.Result{
		Success: true,
		Output:  "Question recorded for review.",
	}, nil
}
