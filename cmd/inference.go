package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zerosync-co/ghosttext/internal/config"
	"github.com/zerosync-co/ghosttext/internal/inference"
)

func inferenceOptions(cfg *config.Config) (inference.Options, error) {
	opts := inference.Options{
		Provider:  inference.ProviderName(cfg.Inference.Provider),
		Model:     cfg.Inference.Model,
		APIKey:    cfg.Inference.APIKey,
		BaseURL:   cfg.Inference.BaseURL,
		MaxTokens: cfg.Inference.MaxTokens,
		Dialect:   cfg.Inference.Dialect,
		CacheTTL:  cfg.Inference.CacheTTL,
	}
	if path := cfg.Inference.SchemaFile; path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.WorkingDir, path)
		}
		schema, err := os.ReadFile(path)
		if err != nil {
			return opts, fmt.Errorf("failed to read schema file: %w", err)
		}
		opts.Schema = string(schema)
	}
	return opts, nil
}

func newInferenceService(ctx context.Context, cfg *config.Config, log *slog.Logger) (*inference.Service, error) {
	opts, err := inferenceOptions(cfg)
	if err != nil {
		return nil, err
	}
	if opts.APIKey == "" {
		slog.Warn("No API key configured, suggestions will fail", "provider", opts.Provider)
	}
	provider, err := inference.NewProvider(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference provider: %w", err)
	}
	return inference.NewService(provider, opts, log), nil
}
