package openai

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GeminiBaseURL is Google's OpenAI-compatible endpoint for Gemini models
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// DefaultModel is used when neither the provider nor the call names a model
const DefaultModel = "gpt-4o-mini"

// OpenAIProvider implements llm.Provider over the chat completions API
type OpenAIProvider struct {
	client       openai.Client
	name         string
	defaultModel string
}

type providerConfig struct {
	name         string
	baseURL      string
	defaultModel string
	maxRetries   int
}

// ProviderOption configures the provider
type ProviderOption func(*providerConfig)

// WithBaseURL points the client at an OpenAI-compatible endpoint
func WithBaseURL(url string) ProviderOption {
	return func(c *providerConfig) {
		c.baseURL = url
	}
}

// WithName overrides the provider name reported in logs
func WithName(name string) ProviderOption {
	return func(c *providerConfig) {
		c.name = name
	}
}

// WithDefaultModel sets the model used when a call names none
func WithDefaultModel(model string) ProviderOption {
	return func(c *providerConfig) {
		c.defaultModel = model
	}
}

// WithMaxRetries sets SDK-level retries. The default is 0: retry policy
// belongs to the caller.
func WithMaxRetries(n int) ProviderOption {
	return func(c *providerConfig) {
		c.maxRetries = n
	}
}

// NewOpenAIProvider creates a provider authenticated with apiKey
func NewOpenAIProvider(apiKey string, opts ...ProviderOption) *OpenAIProvider {
	cfg := providerConfig{
		name:         "openai",
		defaultModel: DefaultModel,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.maxRetries),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}

	logx.WithFields(logx.Fields{
		"provider": cfg.name,
		"base_url": cfg.baseURL,
	}).Debug("OpenAI-compatible provider initialized")

	return &OpenAIProvider{
		client:       openai.NewClient(clientOpts...),
		name:         cfg.name,
		defaultModel: cfg.defaultModel,
	}
}

// NewGeminiProvider creates a provider for Gemini through its OpenAI-compatible API
func NewGeminiProvider(apiKey string, opts ...ProviderOption) *OpenAIProvider {
	base := []ProviderOption{
		WithName("gemini"),
		WithBaseURL(GeminiBaseURL),
		WithDefaultModel("gemini-2.5-flash"),
	}
	return NewOpenAIProvider(apiKey, append(base, opts...)...)
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Chat sends the conversation and returns the first choice
func (p *OpenAIProvider) Chat(ctx context.Context, messages []llm.Message, opts llm.ChatOptions) (*llm.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model(opts)),
		Messages: toOpenAIMessages(messages, opts.SystemPrompt),
	}

	if opts.Temperature != nil {
		params.Temperature = openai.Float(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", p.name, err)
	}

	if len(completion.Choices) == 0 {
		return nil, llm.ErrNoChoices(p.name)
	}

	return &llm.Response{
		Message: llm.NewAssistantMessage(completion.Choices[0].Message.Content),
		Model:   completion.Model,
		Usage: llm.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

func (p *OpenAIProvider) model(opts llm.ChatOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return p.defaultModel
}

func toOpenAIMessages(messages []llm.Message, systemPrompt string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)

	if systemPrompt != "" {
		out = append(out, openai.SystemMessage(systemPrompt))
	}

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case llm.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		}
	}

	return out
}
