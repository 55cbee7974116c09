package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func newAnthropicProvider(opts Options) *anthropicProvider {
	clientOptions := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.APIKey != "" {
		clientOptions = append(clientOptions, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(opts.BaseURL))
	}
	return &anthropicProvider{
		client:    anthropic.NewClient(clientOptions...),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}
}

func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

func (p *anthropicProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
