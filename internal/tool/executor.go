package tool

import (
	"context"
	"sync"
	"time"

	"standin/internal/llm"
)

type ExecutionMode string

const (
	ExecutionModeSequential ExecutionMode = "sequential"
	ExecutionModeParallel   ExecutionMode = "parallel"
)

// Executor dispatches tool calls requested by the model. Per-tool failures
// never surface as errors: they fold into a failed Result so the
// conversation can continue. Results always come back in request order.
type Executor struct {
	registry *Registry
	mode     ExecutionMode
}

func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry: registry,
		mode:     ExecutionModeSequential,
	}
}

func (e *Executor) SetMode(mode ExecutionMode) {
	e.mode = mode
}

// Execute dispatches tool calls based on the configured mode
func (e *Executor) Execute(ctx context.Context, toolCalls []*llm.ToolCall) []*CallResult {
	if e.mode == ExecutionModeParallel {
		return e.executeParallel(ctx, toolCalls)
	}
	return e.executeSequential(ctx, toolCalls)
}

func (e *Executor) executeSequential(ctx context.Context, toolCalls []*llm.ToolCall) []*CallResult {
	results := make([]*CallResult, len(toolCalls))
	for i, tc := range toolCalls {
		results[i] = e.executeOne(ctx, tc)
	}
	return results
}

// executeParallel runs all calls concurrently. The declared tools are
// independent, so ordering only matters for the result slice.
func (e *Executor) executeParallel(ctx context.Context, toolCalls []*llm.ToolCall) []*CallResult {
	results := make([]*CallResult, len(toolCalls))

	var wg sync.WaitGroup
	for i, tc := range toolCalls {
		wg.Add(1)
		go func(idx int, call *llm.ToolCall) {
			defer wg.Done()
			results[idx] = e.executeOne(ctx, call)
		}(i, tc)
	}
	wg.Wait()

	return results
}

// EmptyOutputPlaceholder is returned when a tool produces no output.
// This ensures LLM APIs (which require non-empty content) don't fail with 400 errors.
const EmptyOutputPlaceholder = "(Tool executed successfully with no output)"

func (e *Executor) executeOne(ctx context.Context, tc *llm.ToolCall) *CallResult {
	startTime := time.Now()

	t, err := e.registry.Get(tc.Function.Name)
	if err != nil {
		// An unknown tool name means the model stepped outside its declared
		// schema. Report it back as a failed result rather than crashing
		// the conversation.
		return &CallResult{
			ToolName:  tc.Function.Name,
			CallID:    tc.ID,
			Result:    &Result{Success: false, Error: err.Error()},
			StartTime: startTime,
			EndTime:   time.Now(),
		}
	}

	result, err := t.Execute(ctx, []byte(tc.Function.Arguments))
	if err != nil {
		return &CallResult{
			ToolName:  tc.Function.Name,
			CallID:    tc.ID,
			Params:    []byte(tc.Function.Arguments),
			Result:    &Result{Success: false, Error: err.Error()},
			StartTime: startTime,
			EndTime:   time.Now(),
		}
	}

	if result.Output == "" {
		result.Output = EmptyOutputPlaceholder
	}

	return &CallResult{
		ToolName:  tc.Function.Name,
		CallID:    tc.ID,
		Params:    []byte(tc.Function.Arguments),
		Result:    result,
		StartTime: startTime,
		EndTime:   time.Now(),
	}
}
