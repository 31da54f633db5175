package providers

import (
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm"
	aianthropic "github.com/Abraxas-365/chatkeep/pkg/ai/providers/anthropic"
	aiopenai "github.com/Abraxas-365/chatkeep/pkg/ai/providers/openai"
	"github.com/Abraxas-365/chatkeep/pkg/config"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
)

// FromConfig builds the provider named by cfg.Provider
func FromConfig(cfg config.LLMConfig) (llm.Provider, error) {
	if cfg.APIKey == "" {
		logx.WithField("provider", cfg.Provider).Warn("⚠️ No API key configured. Generation requests will fail.")
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		var opts []aiopenai.ProviderOption
		if cfg.BaseURL != "" {
			opts = append(opts, aiopenai.WithBaseURL(cfg.BaseURL))
		}
		return aiopenai.NewGeminiProvider(cfg.APIKey, opts...), nil

	case config.ProviderOpenAI:
		var opts []aiopenai.ProviderOption
		if cfg.BaseURL != "" {
			opts = append(opts, aiopenai.WithBaseURL(cfg.BaseURL))
		}
		return aiopenai.NewOpenAIProvider(cfg.APIKey, opts...), nil

	case config.ProviderAnthropic:
		var opts []aianthropic.ProviderOption
		if cfg.BaseURL != "" {
			opts = append(opts, aianthropic.WithBaseURL(cfg.BaseURL))
		}
		return aianthropic.NewAnthropicProvider(cfg.APIKey, opts...), nil
	}

	return nil, llm.ErrUnsupportedProvider(cfg.Provider)
}

// ChatOptions turns the generation settings into client defaults
func ChatOptions(cfg config.LLMConfig) []llm.Option {
	opts := []llm.Option{
		llm.WithModel(cfg.Model),
		llm.WithTemperature(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.SystemPrompt != "" {
		opts = append(opts, llm.WithSystemPrompt(cfg.SystemPrompt))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, llm.WithTimeout(cfg.Timeout))
	}
	return opts
}

// NewClient builds a client for cfg with its generation settings as defaults
func NewClient(cfg config.LLMConfig) (*llm.Client, error) {
	provider, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(provider, ChatOptions(cfg)...), nil
}
