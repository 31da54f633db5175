package orchestator

import (
	"context"
	"strings"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/agentx"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx/memorysrv"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
)

// Orchestrator serves chat turns and session reads over the agent and the
// session service
type Orchestrator struct {
	agent          *agentx.Agent
	sessionService *memorysrv.SessionService
	provider       string
	backend        string
}

// Config holds orchestrator configuration
type Config struct {
	Agent          *agentx.Agent
	SessionService *memorysrv.SessionService
	Provider       string // reported by Stats
	Backend        string // reported by Stats
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(config Config) *Orchestrator {
	return &Orchestrator{
		agent:          config.Agent,
		sessionService: config.SessionService,
		provider:       config.Provider,
		backend:        config.Backend,
	}
}

// HandleChat runs one turn. A request without a session id starts a new
// session whose id is returned in the response.
func (o *Orchestrator) HandleChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := o.validateRequest(req); err != nil {
		return nil, err
	}
	if o.agent == nil {
		return nil, NewNotConfiguredError("agent")
	}

	sessionID := memoryx.SessionID(strings.TrimSpace(req.SessionID))
	if sessionID == "" {
		sessionID = memoryx.NewSessionID()
		logx.WithField("session_id", sessionID).Debug("Generated new session ID")
	}

	eval, err := o.agent.EvaluateTurn(ctx, sessionID, req.Message)
	if err != nil {
		return nil, err
	}

	return &ChatResponse{
		Response:  eval.OutputMessage.Content,
		SessionID: string(sessionID),
		Model:     eval.Model,
		Usage: &UsageInfo{
			PromptTokens:     eval.TokenUsage.PromptTokens,
			CompletionTokens: eval.TokenUsage.CompletionTokens,
			TotalTokens:      eval.TokenUsage.TotalTokens,
		},
	}, nil
}

func (o *Orchestrator) validateRequest(req ChatRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return NewMissingMessageError()
	}
	return nil
}

// ListSessions lists sessions, most recently updated first
func (o *Orchestrator) ListSessions(ctx context.Context, limit, offset int) (*SessionList, error) {
	if o.sessionService == nil {
		return nil, NewNotConfiguredError("session_service")
	}
	if limit < 0 || offset < 0 {
		return nil, NewInvalidRequestError("limit and offset cannot be negative")
	}

	sessions, err := o.sessionService.ListSessions(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	return &SessionList{
		Sessions: sessions,
		Count:    len(sessions),
		Limit:    memorysrv.EffectiveLimit(limit),
		Offset:   offset,
	}, nil
}

// GetSessionWithMessages gets a session with all messages. Unknown
// sessions have no messages.
func (o *Orchestrator) GetSessionWithMessages(ctx context.Context, sessionID string) (*SessionMessages, error) {
	if o.sessionService == nil {
		return nil, NewNotConfiguredError("session_service")
	}

	swm, err := o.sessionService.GetSessionWithMessages(ctx, memoryx.SessionID(sessionID))
	if err != nil {
		return nil, err
	}

	return &SessionMessages{
		SessionID: sessionID,
		Session:   swm.Session,
		Messages:  swm.Messages,
	}, nil
}

// Health checks that the orchestrator is wired and the store answers
func (o *Orchestrator) Health(ctx context.Context) error {
	if o.agent == nil {
		return NewNotConfiguredError("agent")
	}
	if o.sessionService == nil {
		return NewNotConfiguredError("session_service")
	}

	if _, err := o.sessionService.ListSessions(ctx, 1, 0); err != nil {
		return err
	}
	return nil
}

// Stats returns orchestrator statistics
func (o *Orchestrator) Stats(ctx context.Context) map[string]any {
	return map[string]any{
		"provider": o.provider,
		"backend":  o.backend,
		"healthy":  o.Health(ctx) == nil,
	}
}
