package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openaiProvider struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func newOpenAIProvider(opts Options) *openaiProvider {
	clientOptions := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.APIKey != "" {
		clientOptions = append(clientOptions, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(opts.BaseURL))
	}
	return &openaiProvider{
		client:    openai.NewClient(clientOptions...),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}
}

func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

func (p *openaiProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(p.maxTokens),
		Temperature: openai.Float(0),
	})
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return "", fmt.Errorf("openai: status %d: %w", apierr.StatusCode, err)
		}
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
