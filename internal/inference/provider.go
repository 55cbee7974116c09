package inference

import (
	"context"
	"fmt"
	"time"
)

type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGemini    ProviderName = "gemini"
)

const (
	defaultMaxTokens = 256
	defaultDialect   = "SQL"
	defaultCacheTTL  = 5 * time.Minute
	generateTimeout  = 30 * time.Second
)

var defaultModels = map[ProviderName]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderGemini:    "gemini-2.0-flash",
}

// Options configures the backend that answers autocomplete requests.
type Options struct {
	Provider  ProviderName
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int64
	Dialect   string
	// Schema is table and column context included in every prompt.
	Schema   string
	CacheTTL time.Duration
}

// Provider turns a rendered prompt into raw model output.
type Provider interface {
	Name() ProviderName
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// NewProvider builds the backend named by opts.Provider.
func NewProvider(ctx context.Context, opts Options) (Provider, error) {
	if opts.Model == "" {
		opts.Model = defaultModels[opts.Provider]
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	switch opts.Provider {
	case ProviderOpenAI:
		return newOpenAIProvider(opts), nil
	case ProviderAnthropic:
		return newAnthropicProvider(opts), nil
	case ProviderGemini:
		return newGeminiProvider(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown inference provider %q", opts.Provider)
	}
}
