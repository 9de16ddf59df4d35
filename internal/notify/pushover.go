package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultEndpoint = "https://api.pushover.net/1/messages.json"

// Pushover sends notifications through the Pushover message API.
type Pushover struct {
	token    string
	user     string
	endpoint string
	client   *http.Client
}

// NewPushover creates a Pushover notifier with the given application token
// and user key.
func NewPushover(token, user string) *Pushover {
	return &Pushover{
		token:    token,
		user:     user,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SetEndpoint overrides the API endpoint. Used in tests.
func (p *Pushover) SetEndpoint(endpoint string) {
	p.endpoint = endpoint
}

func (p *Pushover) Send(ctx context.Context, title, body string) error {
	form := url.Values{}
	form.Set("token", p.token)
	form.Set("user", p.user)
	form.Set("title", title)
	form.Set("message", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send pushover message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pushover returned status %d", resp.StatusCode)
	}

	return nil
}
