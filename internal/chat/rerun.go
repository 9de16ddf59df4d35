package chat

import (
	"context"
	"fmt"
	"time"

	"standin/internal/llm"
	"standin/internal/prompt"
)

// RerunController regenerates a rejected reply exactly once. The corrective
// pass is answer-only: no tools, and its output is final whether or not it
// would itself pass evaluation.
type RerunController struct {
	client      llm.Client
	prompts     *prompt.Builder
	temperature float32
}

func NewRerunController(client llm.Client, prompts *prompt.Builder, temperature float32) *RerunController {
	return &RerunController{client: client, prompts: prompts, temperature: temperature}
}

// Rerun replays the conversation once with the rejection feedback folded
// into the system prompt and returns the corrected reply.
func (r *RerunController) Rerun(ctx context.Context, draft, message string, history []llm.Message, feedback string) (string, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: r.prompts.RerunSystem(draft, feedback),
	})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{
		Role:      llm.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	})

	resp, err := r.client.Chat(ctx, &llm.ChatRequest{
		Messages:    messages,
		Temperature: r.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("rerun call failed: %w", err)
	}

	return resp.Message.Content, nil
}
