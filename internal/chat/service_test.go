package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"standin/internal/llm"
	"standin/internal/profile"
	"standin/internal/tool"
)

func newTestService(t *testing.T, answer, eval *fakeClient, tools ...tool.Tool) *Service {
	t.Helper()

	registry := tool.NewRegistry()
	for _, tl := range tools {
		if err := registry.Register(tl); err != nil {
			t.Fatalf("Failed to register tool: %v", err)
		}
	}

	p, err := profile.New("Jane Doe", "## Summary:\nStaff engineer. Knows Python and Go.")
	if err != nil {
		t.Fatalf("profile.New failed: %v", err)
	}

	return New(answer, eval, registry, p, quietLogger(), nil)
}

func acceptVerdict() *llm.ChatResponse {
	return textResponse(`{"is_acceptable": true, "feedback": "Good reply."}`)
}

func rejectVerdict(feedback string) *llm.ChatResponse {
	return textResponse(`{"is_acceptable": false, "feedback": "` + feedback + `"}`)
}

func TestChat_AcceptedDraftReturnedVerbatim(t *testing.T) {
	answer := &fakeClient{responses: []*llm.ChatResponse{textResponse("He works mainly in Python and Go.")}}
	eval := &fakeClient{responses: []*llm.ChatResponse{acceptVerdict()}}
	svc := newTestService(t, answer, eval)

	reply, err := svc.Chat(context.Background(), "What programming languages does he know?", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if reply != "He works mainly in Python and Go." {
		t.Errorf("Accepted draft must be returned unmodified, got %q", reply)
	}
	if len(answer.requests) != 1 {
		t.Errorf("Expected 1 answering invocation, got %d", len(answer.requests))
	}
}

func TestChat_RejectedDraftTriggersSingleRerun(t *testing.T) {
	answer := &fakeClient{responses: []*llm.ChatResponse{
		textResponse("I am an AI assistant with no name."),
		textResponse("I'm Jane Doe, happy to talk about my work."),
	}}
	eval := &fakeClient{responses: []*llm.ChatResponse{rejectVerdict("Breaks persona.")}}
	svc := newTestService(t, answer, eval)

	reply, err := svc.Chat(context.Background(), "Who are you?", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if reply != "I'm Jane Doe, happy to talk about my work." {
		t.Errorf("Expected the corrective reply, got %q", reply)
	}

	// Exactly two answering calls: the draft and one corrective pass. The
	// corrective output is final even if it would itself be rejected.
	if len(answer.requests) != 2 {
		t.Fatalf("Expected 2 answering invocations, got %d", len(answer.requests))
	}
	if len(eval.requests) != 1 {
		t.Errorf("Expected exactly 1 evaluation, got %d", len(eval.requests))
	}

	rerunReq := answer.requests[1]
	if len(rerunReq.Tools) != 0 {
		t.Error("Rerun must not re-enter the tool loop")
	}
	system := rerunReq.Messages[0].Content
	if !strings.Contains(system, "Breaks persona.") || !strings.Contains(system, "I am an AI assistant with no name.") {
		t.Errorf("Rerun system prompt must carry the draft and the feedback, got %q", system)
	}
}

func TestChat_ToolsFireOncePerMessageDespiteRerun(t *testing.T) {
	recording := &countingTool{name: "record_unknown_question"}
	answer := &fakeClient{responses: []*llm.ChatResponse{
		toolCallResponse(toolCall("call-1", "record_unknown_question", `{"question":"What's the capital of France?"}`)),
		textResponse("That's outside what I can speak to."),
		textResponse("I'd rather talk about my work. Ask me anything about it!"),
	}}
	eval := &fakeClient{responses: []*llm.ChatResponse{rejectVerdict("Too curt.")}}
	svc := newTestService(t, answer, eval, recording)

	reply, err := svc.Chat(context.Background(), "What's the capital of France?", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if reply != "I'd rather talk about my work. Ask me anything about it!" {
		t.Errorf("Expected corrective reply, got %q", reply)
	}
	if len(recording.arguments) != 1 {
		t.Errorf("Tool side effects must fire exactly once per message, got %d", len(recording.arguments))
	}
}

func TestChat_OffDomainQuestionLogsUnknownQuestion(t *testing.T) {
	recording := &countingTool{name: "record_unknown_question"}
	answer := &fakeClient{responses: []*llm.ChatResponse{
		toolCallResponse(toolCall("call-1", "record_unknown_question", `{"question":"What's the capital of France?"}`)),
		textResponse("I can only speak to Jane's career, but I've noted your question."),
	}}
	eval := &fakeClient{responses: []*llm.ChatResponse{acceptVerdict()}}
	svc := newTestService(t, answer, eval, recording)

	reply, err := svc.Chat(context.Background(), "What's the capital of France?", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if reply != "I can only speak to Jane's career, but I've noted your question." {
		t.Errorf("Unexpected reply: %q", reply)
	}
	if len(recording.arguments) != 1 {
		t.Fatalf("Expected exactly one unknown-question record, got %d", len(recording.arguments))
	}
	if !strings.Contains(recording.arguments[0], "What's the capital of France?") {
		t.Errorf("Recorded question missing text: %q", recording.arguments[0])
	}
}

func TestChat_EvaluationFailureIsFatal(t *testing.T) {
	answer := &fakeClient{responses: []*llm.ChatResponse{textResponse("draft")}}
	eval := &fakeClient{responses: []*llm.ChatResponse{textResponse("not a structured verdict")}}
	svc := newTestService(t, answer, eval)

	_, err := svc.Chat(context.Background(), "hello", nil)
	if !errors.Is(err, llm.ErrMalformedResponse) {
		t.Fatalf("Malformed verdicts must be fatal, got %v", err)
	}

	// The draft never leaks: a broken quality gate means no reply at all.
	if len(answer.requests) != 1 {
		t.Errorf("No rerun should happen after a fatal evaluation, got %d answering calls", len(answer.requests))
	}
}

func TestChat_ConfiguredParallelDispatch(t *testing.T) {
	recording := &countingTool{name: "record_unknown_question"}
	answer := &fakeClient{responses: []*llm.ChatResponse{
		toolCallResponse(toolCall("call-1", "record_unknown_question", `{"question":"first"}`)),
		textResponse("Noted."),
	}}
	eval := &fakeClient{responses: []*llm.ChatResponse{acceptVerdict()}}

	registry := tool.NewRegistry()
	if err := registry.Register(recording); err != nil {
		t.Fatalf("Failed to register tool: %v", err)
	}
	p, err := profile.New("Jane Doe", "## Summary:\nStaff engineer.")
	if err != nil {
		t.Fatalf("profile.New failed: %v", err)
	}
	svc := New(answer, eval, registry, p, quietLogger(), &Config{
		ExecutionMode: tool.ExecutionModeParallel,
	})

	reply, err := svc.Chat(context.Background(), "something off-domain", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "Noted." {
		t.Errorf("Unexpected reply: %q", reply)
	}
	if len(recording.arguments) != 1 {
		t.Errorf("Expected 1 tool execution under parallel dispatch, got %d", len(recording.arguments))
	}
}

func TestChat_RerunFailurePropagates(t *testing.T) {
	answer := &fakeClient{responses: []*llm.ChatResponse{textResponse("draft")}}
	eval := &fakeClient{responses: []*llm.ChatResponse{rejectVerdict("No good.")}}
	svc := newTestService(t, answer, eval)

	// The second answering call finds no scripted response and errors.
	_, err := svc.Chat(context.Background(), "hello", nil)
	if err == nil {
		t.Fatal("Expected rerun failure to propagate")
	}
}
