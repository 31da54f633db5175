package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 1024
)

// AnthropicProvider implements llm.Provider for the Messages API
type AnthropicProvider struct {
	client       anthropic.Client
	defaultModel string
}

type providerConfig struct {
	baseURL      string
	defaultModel string
}

// ProviderOption configures the provider
type ProviderOption func(*providerConfig)

// WithBaseURL overrides the API endpoint
func WithBaseURL(url string) ProviderOption {
	return func(c *providerConfig) {
		c.baseURL = url
	}
}

// WithDefaultModel sets the model used when a call names none
func WithDefaultModel(model string) ProviderOption {
	return func(c *providerConfig) {
		c.defaultModel = model
	}
}

// NewAnthropicProvider creates a provider authenticated with apiKey
func NewAnthropicProvider(apiKey string, opts ...ProviderOption) *AnthropicProvider {
	cfg := providerConfig{defaultModel: DefaultModel}
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}

	logx.WithField("base_url", cfg.baseURL).Debug("Anthropic provider initialized")

	return &AnthropicProvider{
		client:       anthropic.NewClient(clientOpts...),
		defaultModel: cfg.defaultModel,
	}
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Chat sends the conversation and concatenates the text blocks of the reply
func (p *AnthropicProvider) Chat(ctx context.Context, messages []llm.Message, opts llm.ChatOptions) (*llm.Response, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  toAnthropicMessages(messages),
	}

	if opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: opts.SystemPrompt},
		}
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}

	response, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var content strings.Builder
	for _, block := range response.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(b.Text)
		}
	}

	in, out := int(response.Usage.InputTokens), int(response.Usage.OutputTokens)
	return &llm.Response{
		Message: llm.NewAssistantMessage(content.String()),
		Model:   string(response.Model),
		Usage: llm.Usage{
			PromptTokens:     in,
			CompletionTokens: out,
			TotalTokens:      in + out,
		},
	}, nil
}

func toAnthropicMessages(messages []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case llm.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out
}
