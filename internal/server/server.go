// Package server implements the HTTP chat transport.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"standin/internal/chat"
	"standin/internal/llm"
	"standin/internal/logger"
)

// ChatService processes one user turn. Implemented by chat.Service.
type ChatService interface {
	Chat(ctx context.Context, message string, history []llm.Message) (string, error)
}

// Server is the HTTP chat transport. It holds no conversation state: the
// caller resupplies history on every request.
type Server struct {
	address        string
	port           int
	svc            ChatService
	requestTimeout time.Duration
	log            *logger.Logger
	httpServer     *http.Server
}

func NewServer(address string, port int, svc ChatService, requestTimeout time.Duration, log *logger.Logger) *Server {
	return &Server{
		address:        address,
		port:           port,
		svc:            svc,
		requestTimeout: requestTimeout,
		log:            log,
	}
}

// ChatRequest is the wire form of one turn.
type ChatRequest struct {
	Message string        `json:"message"`
	History []HistoryTurn `json:"history,omitempty"`
}

// HistoryTurn is one prior turn. Only user and assistant roles are
// accepted; tool traffic never round-trips through the caller.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse carries the released reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Start begins serving HTTP requests and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	addr := net.JoinHostPort(s.address, strconv.Itoa(s.port))
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Listening on http://%s", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	history, err := convertHistory(req.History)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	reply, err := s.svc.Chat(ctx, req.Message, history)
	if err != nil {
		// Fatal for the turn: the user gets one generic apology, the
		// cause stays in the log.
		s.log.Error("chat turn failed: %v", err)
		s.writeJSON(w, ChatResponse{Reply: chat.Apology})
		return
	}

	s.writeJSON(w, ChatResponse{Reply: reply})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// writeJSON encodes v as JSON to w. Errors here typically mean the client
// disconnected mid-response, which is not actionable.
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("failed to write JSON response: %v", err)
	}
}

func convertHistory(turns []HistoryTurn) ([]llm.Message, error) {
	history := make([]llm.Message, 0, len(turns))
	for i, t := range turns {
		role := llm.Role(t.Role)
		if role != llm.RoleUser && role != llm.RoleAssistant {
			return nil, fmt.Errorf("history[%d]: unsupported role %q", i, t.Role)
		}
		history = append(history, llm.Message{Role: role, Content: t.Content})
	}
	return history, nil
}
