// Package persona implements the side-effect tools the reasoning model may
// invoke mid-conversation.
package persona

import (
	"context"
	"encoding/json"
	"fmt"

	"standin/internal/notify"
	"standin/internal/tool"
)

// RecordUserDetailsTool captures a visitor's contact details and forwards
// them as a notification.
type RecordUserDetailsTool struct {
	notifier notify.Notifier
}

func NewRecordUserDetailsTool(notifier notify.Notifier) *RecordUserDetailsTool {
	return &RecordUserDetailsTool{notifier: notifier}
}

func (t *RecordUserDetailsTool) Name() string {
	return "record_user_details"
}

func (t *RecordUserDetailsTool) Description() string {
	return "Use this tool to record that a user is interested in being in touch and provided an email address"
}

func (t *RecordUserDetailsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"email": map[string]any{
				"type":        "string",
				"description": "The email address of this user",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "The user's name, if they provided it",
			},
			"notes": map[string]any{
				"type":        "string",
				"description": "Any additional information about the conversation that's worth recording to give context",
			},
		},
		"required":             []string{"email"},
		"additionalProperties": false,
	}
}

type recordUserDetailsParams struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

func (t *RecordUserDetailsTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var p recordUserDetailsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &tool.Result{
			Success: false,
			Error:   fmt.Sprintf("invalid parameters: %v", err),
		}, nil
	}

	if p.Email == "" {
		return &tool.Result{
			Success: false,
			Error:   "email is required",
		}, nil
	}

	name := p.Name
	if name == "" {
		name = "Name not provided"
	}
	notes := p.Notes
	if notes == "" {
		notes = "not provided"
	}

	body := fmt.Sprintf("Recording interest from %s with email %s and notes %s", name, p.Email, notes)
	if err := t.notifier.Send(ctx, "New contact request", body); err != nil {
		// A lost notification still counts as a failed side effect the
		// model should hear about, but the conversation continues.
		return &tool.Result{
			Success: false,
			Error:   fmt.Sprintf("notification failed: %v", err),
		}, nil
	}

	return &tool.Result{
		Success: true,
		Output:  "Contact details recorded.",
	}, nil
}
