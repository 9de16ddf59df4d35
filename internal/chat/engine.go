// Package chat drives the persona conversation: the tool-call exchange with
// the reasoning model, the evaluation gate, and the single corrective rerun.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"standin/internal/llm"
	"standin/internal/logger"
	"standin/internal/tool"
)

// DefaultMaxRounds bounds the tool-call loop against a model that keeps
// issuing tool calls and never produces a text reply.
const DefaultMaxRounds = 8

// ErrRoundLimit is returned when the tool-call loop exceeds its bound.
// Fatal for the turn.
var ErrRoundLimit = errors.New("tool-call round limit exceeded")

// Draft is the outcome of one engine run: the reply text awaiting
// evaluation, plus the tool calls dispatched on the way there.
type Draft struct {
	Reply     string
	ToolCalls []*tool.CallResult
}

// Engine drives the multi-round exchange with the reasoning model and
// dispatches requested tool calls until a draft reply emerges.
//
// States: awaiting model -> (tool calls pending -> awaiting model)* -> draft ready.
type Engine struct {
	client      llm.Client
	registry    *tool.Registry
	executor    *tool.Executor
	maxRounds   int
	temperature float32
	log         *logger.Logger
}

func NewEngine(client llm.Client, registry *tool.Registry, maxRounds int, temperature float32, log *logger.Logger) *Engine {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Engine{
		client:      client,
		registry:    registry,
		executor:    tool.NewExecutor(registry),
		maxRounds:   maxRounds,
		temperature: temperature,
		log:         log,
	}
}

// SetExecutionMode selects sequential or parallel tool dispatch.
func (e *Engine) SetExecutionMode(mode tool.ExecutionMode) {
	e.executor.SetMode(mode)
}

// Run produces a draft reply for the given user message. The conversation
// sent upstream is [system] + history + [user]; every tool call in a model
// response gets exactly one tool-role result message, correlated by call ID,
// before the next invocation.
func (e *Engine) Run(ctx context.Context, systemPrompt string, history []llm.Message, message string) (*Draft, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: systemPrompt,
	})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{
		Role:      llm.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	})

	allToolCalls := make([]*tool.CallResult, 0)

	for round := 0; round < e.maxRounds; round++ {
		e.log.Debug("Round %d: calling model...", round+1)

		resp, err := e.client.Chat(ctx, &llm.ChatRequest{
			Messages:    messages,
			Tools:       e.registry.Definitions(),
			Temperature: e.temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}

		messages = append(messages, resp.Message)

		if resp.StopReason != llm.StopReasonToolCalls {
			e.log.Reply(resp.Message.Content)
			return &Draft{
				Reply:     resp.Message.Content,
				ToolCalls: allToolCalls,
			}, nil
		}

		e.log.Info("Executing %d tool call(s)...", len(resp.Message.ToolCalls))
		for _, tc := range resp.Message.ToolCalls {
			e.log.ToolCall(tc.Function.Name, tc.Function.Arguments)
		}

		results := e.executor.Execute(ctx, resp.Message.ToolCalls)
		allToolCalls = append(allToolCalls, results...)

		for _, tr := range results {
			e.log.ToolResult(tr.ToolName, tr.Result.Success, toolOutput(tr.Result), tr.EndTime.Sub(tr.StartTime))
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: tr.CallID,
				Content:    toolOutput(tr.Result),
				Name:       tr.ToolName,
				Timestamp:  tr.EndTime,
			})
		}
	}

	e.log.Error("Round limit (%d) exceeded without a final reply", e.maxRounds)
	return nil, fmt.Errorf("%w (limit %d)", ErrRoundLimit, e.maxRounds)
}

// toolOutput flattens a tool result into the content the model sees. A
// failed side effect still yields text so the conversation can continue.
func toolOutput(r *tool.Result) string {
	if r.Success {
		return r.Output
	}
	return fmt.Sprintf("Tool failed: %s", r.Error)
}
