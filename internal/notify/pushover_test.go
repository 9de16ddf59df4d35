package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPushover_Send(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("Failed to parse form: %v", err)
		}
		form = map[string]string{
			"token":   r.PostFormValue("token"),
			"user":    r.PostFormValue("user"),
			"title":   r.PostFormValue("title"),
			"message": r.PostFormValue("message"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := NewPushover("app-token", "user-key")
	p.SetEndpoint(server.URL)

	if err := p.Send(context.Background(), "New contact", "Recording interest from Ada"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	want := map[string]string{
		"token":   "app-token",
		"user":    "user-key",
		"title":   "New contact",
		"message": "Recording interest from Ada",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("Form field %s = %q, want %q", k, form[k], v)
		}
	}
}

func TestPushover_SendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	p := NewPushover("bad-token", "user-key")
	p.SetEndpoint(server.URL)

	if err := p.Send(context.Background(), "title", "body"); err == nil {
		t.Fatal("Expected error for non-2xx response")
	}
}

func TestNull_Send(t *testing.T) {
	var n Null
	if err := n.Send(context.Background(), "title", "body"); err != nil {
		t.Fatalf("Null notifier must never fail: %v", err)
	}
}
