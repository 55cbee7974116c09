package inference

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type geminiProvider struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func newGeminiProvider(ctx context.Context, opts Options) (*geminiProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	return &geminiProvider{
		client:    client,
		model:     opts.Model,
		maxTokens: int32(opts.MaxTokens),
	}, nil
}

func (p *geminiProvider) Name() ProviderName {
	return ProviderGemini
}

func (p *geminiProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	temperature := float32(0)
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       &temperature,
		MaxOutputTokens:   p.maxTokens,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return resp.Text(), nil
}
