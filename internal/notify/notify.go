// Package notify delivers push notifications about conversation events.
package notify

import "context"

// Notifier sends an operator-facing notification. Callers tolerate failures:
// a lost notification must never abort the conversation that produced it.
type Notifier interface {
	Send(ctx context.Context, title, body string) error
}

// Null discards all notifications. Used when no push service is configured.
type Null struct{}

func (Null) Send(ctx context.Context, title, body string) error {
	return nil
}
