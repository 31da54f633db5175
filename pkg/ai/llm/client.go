package llm

import (
	"context"
	"time"

	"github.com/Abraxas-365/chatkeep/pkg/logx"
)

// Provider is a remote text generation backend
type Provider interface {
	// Chat sends the conversation and returns a single reply
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (*Response, error)

	// Name returns the provider identifier
	Name() string
}

// ChatOptions are the per-call generation settings
type ChatOptions struct {
	Model        string
	Temperature  *float64
	MaxTokens    int
	SystemPrompt string
	Timeout      time.Duration
}

// Option configures a chat call
type Option func(*ChatOptions)

// WithModel selects the model
func WithModel(model string) Option {
	return func(o *ChatOptions) {
		o.Model = model
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) Option {
	return func(o *ChatOptions) {
		o.Temperature = &t
	}
}

// WithMaxTokens caps the reply length
func WithMaxTokens(n int) Option {
	return func(o *ChatOptions) {
		o.MaxTokens = n
	}
}

// WithSystemPrompt sends an instruction ahead of the conversation.
// The prompt is never stored in session history.
func WithSystemPrompt(prompt string) Option {
	return func(o *ChatOptions) {
		o.SystemPrompt = prompt
	}
}

// WithTimeout bounds a single call; zero means no bound
func WithTimeout(d time.Duration) Option {
	return func(o *ChatOptions) {
		o.Timeout = d
	}
}

// Client calls a Provider with a set of default options
type Client struct {
	provider Provider
	defaults []Option
}

// NewClient creates a client over provider
func NewClient(provider Provider, defaults ...Option) *Client {
	return &Client{
		provider: provider,
		defaults: defaults,
	}
}

// Provider returns the underlying provider
func (c *Client) Provider() Provider {
	return c.provider
}

// Chat sends messages to the provider. Per-call options override defaults.
func (c *Client) Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error) {
	if c.provider == nil {
		return nil, ErrProviderNotConfigured()
	}

	var options ChatOptions
	for _, opt := range c.defaults {
		opt(&options)
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	logx.WithFields(logx.Fields{
		"provider":      c.provider.Name(),
		"model":         options.Model,
		"message_count": len(messages),
	}).Debug("Sending chat request")

	start := time.Now()
	resp, err := c.provider.Chat(ctx, messages, options)
	if err != nil {
		logx.WithFields(logx.Fields{
			"provider": c.provider.Name(),
			"duration": time.Since(start),
		}).WithError(err).Warn("Chat request failed")
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"provider":          c.provider.Name(),
		"duration":          time.Since(start),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}).Debug("Chat response received")

	return resp, nil
}
