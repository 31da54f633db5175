package agentx

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx/memorysrv"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
)

// Agent runs conversation turns against a model, keeping every turn in the
// session store
type Agent struct {
	client   *llm.Client
	sessions *memorysrv.SessionService
	options  []llm.Option
}

// AgentOption configures an Agent
type AgentOption func(*Agent)

// WithOptions adds LLM options to the agent
func WithOptions(options ...llm.Option) AgentOption {
	return func(a *Agent) {
		a.options = append(a.options, options...)
	}
}

// New creates a new agent
func New(client *llm.Client, sessions *memorysrv.SessionService, opts ...AgentOption) *Agent {
	agent := &Agent{
		client:   client,
		sessions: sessions,
	}

	for _, opt := range opts {
		opt(agent)
	}

	logx.WithField("option_count", len(agent.options)).Debug("Agent initialized")
	return agent
}

// ProcessTurn appends userText to the session, asks the model for a reply
// with the full history and appends the reply.
//
// A storage failure aborts the turn. A generation failure leaves the user
// message persisted and appends nothing else. Turns on the same session run
// one at a time.
func (a *Agent) ProcessTurn(ctx context.Context, sessionID memoryx.SessionID, userText string) (llm.Message, error) {
	eval, err := a.EvaluateTurn(ctx, sessionID, userText)
	if err != nil {
		return llm.Message{}, err
	}
	return eval.OutputMessage, nil
}

// EvaluateTurn is ProcessTurn returning what was sent and received
func (a *Agent) EvaluateTurn(ctx context.Context, sessionID memoryx.SessionID, userText string) (*TurnEvaluation, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyInput()
	}

	log := logx.WithField("session_id", sessionID)
	log.Info("Starting turn")

	mem, err := a.sessions.GetSessionMemory(sessionID)
	if err != nil {
		return nil, err
	}

	unlock := a.sessions.LockSession(sessionID)
	defer unlock()

	if err := mem.Add(ctx, llm.NewUserMessage(userText)); err != nil {
		log.WithError(err).Error("Failed to add user message to memory")
		return nil, fmt.Errorf("failed to add user message: %w", err)
	}

	messages, err := mem.Messages(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to retrieve messages from memory")
		return nil, fmt.Errorf("failed to retrieve messages: %w", err)
	}
	log.WithField("message_count", len(messages)).Debug("Retrieved messages from memory")

	response, err := a.client.Chat(ctx, messages, a.options...)
	if err != nil {
		log.WithError(err).Error("LLM call failed")
		return nil, ErrGenerationFailed(err)
	}

	reply := llm.NewAssistantMessage(response.Message.Content)
	if strings.TrimSpace(reply.Content) == "" {
		log.Warn("LLM returned an empty reply")
		return nil, ErrEmptyReply(a.providerName())
	}

	if err := mem.Add(ctx, reply); err != nil {
		log.WithError(err).Error("Failed to add assistant response to memory")
		return nil, fmt.Errorf("failed to add assistant response: %w", err)
	}

	log.WithFields(logx.Fields{
		"model":       response.Model,
		"token_usage": response.Usage.TotalTokens,
	}).Info("Turn completed")

	return &TurnEvaluation{
		SessionID:     sessionID,
		UserInput:     userText,
		InputMessages: messages,
		OutputMessage: reply,
		Model:         response.Model,
		TokenUsage:    response.Usage,
	}, nil
}

// History returns the full conversation of a session
func (a *Agent) History(ctx context.Context, sessionID memoryx.SessionID) ([]llm.Message, error) {
	return a.sessions.GetHistory(ctx, sessionID)
}

// RunConversation runs a complete conversation with multiple turns
func (a *Agent) RunConversation(ctx context.Context, sessionID memoryx.SessionID, userInputs []string) ([]llm.Message, error) {
	logx.WithField("turn_count", len(userInputs)).Info("Starting conversation")
	var responses []llm.Message

	for i, input := range userInputs {
		logx.WithFields(logx.Fields{
			"turn":  i + 1,
			"total": len(userInputs),
		}).Debug("Processing conversation turn")

		response, err := a.ProcessTurn(ctx, sessionID, input)
		if err != nil {
			logx.WithFields(logx.Fields{
				"turn":  i + 1,
				"total": len(userInputs),
			}).WithError(err).Error("Conversation turn failed")
			return responses, err
		}
		responses = append(responses, response)
	}

	logx.Info("Conversation completed successfully")
	return responses, nil
}

func (a *Agent) providerName() string {
	if p := a.client.Provider(); p != nil {
		return p.Name()
	}
	return ""
}

// TurnEvaluation describes one completed turn
type TurnEvaluation struct {
	SessionID     memoryx.SessionID `json:"session_id"`
	UserInput     string            `json:"user_input"`
	InputMessages []llm.Message     `json:"input_messages"` // history sent to the model
	OutputMessage llm.Message       `json:"output_message"`
	Model         string            `json:"model,omitempty"`
	TokenUsage    llm.Usage         `json:"token_usage"`
}
