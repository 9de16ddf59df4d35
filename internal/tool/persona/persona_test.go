package persona

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// fakeNotifier records sent notifications and can be scripted to fail
type fakeNotifier struct {
	titles []string
	bodies []string
	err    error
}

func (f *fakeNotifier) Send(ctx context.Context, title, body string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	return nil
}

// fakeSink records logged questions and can be scripted to fail
type fakeSink struct {
	questions []string
	err       error
}

func (f *fakeSink) Record(ctx context.Context, question string) error {
	if f.err != nil {
		return f.err
	}
	f.questions = append(f.questions, question)
	return nil
}

func TestRecordUserDetails_Success(t *testing.T) {
	notifier := &fakeNotifier{}
	tl := NewRecordUserDetailsTool(notifier)

	result, err := tl.Execute(context.Background(), json.RawMessage(`{"email":"a@b.com","name":"Ada","notes":"wants to discuss a role"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got error: %s", result.Error)
	}

	if len(notifier.bodies) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifier.bodies))
	}
	body := notifier.bodies[0]
	if !strings.Contains(body, "a@b.com") || !strings.Contains(body, "Ada") {
		t.Errorf("Notification missing details: %q", body)
	}
}

func TestRecordUserDetails_DefaultsForOptionalFields(t *testing.T) {
	notifier := &fakeNotifier{}
	tl := NewRecordUserDetailsTool(notifier)

	result, err := tl.Execute(context.Background(), json.RawMessage(`{"email":"a@b.com"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got error: %s", result.Error)
	}

	if !strings.Contains(notifier.bodies[0], "Name not provided") {
		t.Errorf("Expected placeholder name in notification, got %q", notifier.bodies[0])
	}
}

func TestRecordUserDetails_MissingEmail(t *testing.T) {
	tl := NewRecordUserDetailsTool(&fakeNotifier{})

	result, err := tl.Execute(context.Background(), json.RawMessage(`{"name":"Ada"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Error("Expected failure when email is missing")
	}
}

func TestRecordUserDetails_NotifierFailureDoesNotError(t *testing.T) {
	tl := NewRecordUserDetailsTool(&fakeNotifier{err: errors.New("push service down")})

	result, err := tl.Execute(context.Background(), json.RawMessage(`{"email":"a@b.com"}`))
	if err != nil {
		t.Fatalf("Execute must not propagate sink failures: %v", err)
	}
	if result.Success {
		t.Error("Expected failed result when notifier is down")
	}
	if !strings.Contains(result.Error, "push service down") {
		t.Errorf("Expected underlying cause in result, got %q", result.Error)
	}
}

func TestRecordUnknownQuestion_Success(t *testing.T) {
	sink := &fakeSink{}
	notifier := &fakeNotifier{}
	tl := NewRecordUnknownQuestionTool(sink, notifier)

	result, err := tl.Execute(context.Background(), json.RawMessage(`{"question":"What's the capital of France?"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got error: %s", result.Error)
	}

	if len(sink.questions) != 1 || sink.questions[0] != "What's the capital of France?" {
		t.Errorf("Expected question logged once, got %v", sink.questions)
	}
	if len(notifier.bodies) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifier.bodies))
	}
}

func TestRecordUnknownQuestion_SinkFailureDoesNotError(t *testing.T) {
	tl := NewRecordUnknownQuestionTool(&fakeSink{err: errors.New("database locked")}, &fakeNotifier{})

	result, err := tl.Execute(context.Background(), json.RawMessage(`{"question":"anything"}`))
	if err != nil {
		t.Fatalf("Execute must not propagate sink failures: %v", err)
	}
	if result.Success {
		t.Error("Expected failed result when the sink is unavailable")
	}
}

func TestRecordUnknownQuestion_NotifierFailureTolerated(t *testing.T) {
	sink := &fakeSink{}
	tl := NewRecordUnknownQuestionTool(sink, &fakeNotifier{err: errors.New("push service down")})

	result, err := tl.Execute(context.Background(), json.RawMessage(`{"question":"anything"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	// Once the question is stored, a lost push does not fail the call.
	if !result.Success {
		t.Errorf("Expected success when only the notifier fails, got %s", result.Error)
	}
	if len(sink.questions) != 1 {
		t.Errorf("Expected question logged, got %v", sink.questions)
	}
}

func TestTools_InvalidParameters(t *testing.T) {
	details := NewRecordUserDetailsTool(&fakeNotifier{})
	result, err := details.Execute(context.Background(), json.RawMessage(`not json`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Error("Expected failure for malformed parameters")
	}

	unknown := NewRecordUnknownQuestionTool(&fakeSink{}, &fakeNotifier{})
	result, err = unknown.Execute(context.Background(), json.RawMessage(`{"question":""}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Error("Expected failure for empty question")
	}
}
