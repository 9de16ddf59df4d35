package chat

import (
	"context"
	"time"

	"standin/internal/llm"
	"standin/internal/logger"
	"standin/internal/profile"
	"standin/internal/prompt"
	"standin/internal/tool"
)

// Apology is the only text a user sees when a turn fails fatally. Internal
// detail goes to the log, never to the user.
const Apology = "I'm sorry, something went wrong on my end while preparing a reply. Please try again in a moment."

// Config tunes the chat service.
type Config struct {
	MaxRounds     int
	Temperature   float32
	ExecutionMode tool.ExecutionMode
}

// Service is the `chat(message, history) -> reply` entry point: engine run,
// evaluation gate, at most one corrective rerun. Stateless between calls;
// the caller resupplies history each turn.
type Service struct {
	engine    *Engine
	evaluator *Evaluator
	rerun     *RerunController
	prompts   *prompt.Builder
	log       *logger.Logger
}

// New wires a Service. answerClient drives the conversation and the rerun;
// evalClient judges drafts (they may be the same client).
func New(answerClient, evalClient llm.Client, registry *tool.Registry, p profile.Profile, log *logger.Logger, cfg *Config) *Service {
	if cfg == nil {
		cfg = &Config{}
	}

	prompts := prompt.NewBuilder(p)

	engine := NewEngine(answerClient, registry, cfg.MaxRounds, cfg.Temperature, log)
	if cfg.ExecutionMode != "" {
		engine.SetExecutionMode(cfg.ExecutionMode)
	}

	return &Service{
		engine:    engine,
		evaluator: NewEvaluator(evalClient, prompts),
		rerun:     NewRerunController(answerClient, prompts, cfg.Temperature),
		prompts:   prompts,
		log:       log,
	}
}

// Chat processes one user message and returns the released reply. Side
// effects (tool dispatch) happen exactly once per message: the rerun path
// never re-enters the tool loop. Any returned error is fatal for the turn;
// the transport replies with Apology.
func (s *Service) Chat(ctx context.Context, message string, history []llm.Message) (string, error) {
	start := time.Now()
	s.log.TurnStart(message)

	draft, err := s.engine.Run(ctx, s.prompts.System(), history, message)
	if err != nil {
		return "", err
	}

	verdict, err := s.evaluator.Evaluate(ctx, draft.Reply, message, history)
	if err != nil {
		return "", err
	}
	s.log.Verdict(verdict.IsAcceptable, verdict.Feedback)

	reply := draft.Reply
	rerun := false

	if !verdict.IsAcceptable {
		rerun = true
		corrected, err := s.rerun.Rerun(ctx, draft.Reply, message, history, verdict.Feedback)
		if err != nil {
			return "", err
		}
		// The corrected reply is final; no second evaluation, no second rerun.
		reply = corrected
		s.log.Reply(corrected)
	}

	s.log.TurnEnd(time.Since(start), len(draft.ToolCalls), rerun)
	return reply, nil
}
