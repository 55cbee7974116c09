// Package inference answers SQL autocomplete requests with a language model.
package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/zerosync-co/ghosttext/internal/suggest"
	"golang.org/x/sync/singleflight"
)

// Service renders prompts, calls the provider and caches parsed answers.
type Service struct {
	provider Provider
	dialect  string
	schema   string
	log      *slog.Logger

	cache     *ttlcache.Cache[string, string]
	flight    singleflight.Group
	closeOnce sync.Once
}

func NewService(provider Provider, opts Options, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	dialect := opts.Dialect
	if dialect == "" {
		dialect = defaultDialect
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	cache := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()

	return &Service{
		provider: provider,
		dialect:  dialect,
		schema:   opts.Schema,
		log:      log.With("component", "inference", "provider", provider.Name()),
		cache:    cache,
	}
}

// Complete returns the continuation for req. Identical requests are served
// from the cache and concurrent duplicates share one provider call. A
// caller whose ctx ends stops waiting; the shared call keeps running for the
// others and still fills the cache.
func (s *Service) Complete(ctx context.Context, req suggest.Request) (string, error) {
	key := cacheKey(req)
	if item := s.cache.Get(key); item != nil {
		s.log.Debug("cache hit", "version", req.Version)
		return item.Value(), nil
	}

	ch := s.flight.DoChan(key, func() (any, error) {
		// Shared by every caller with this key; it outlives the caller
		// that started it.
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generateTimeout)
		defer cancel()
		text, err := s.generate(gctx, req)
		if err == nil {
			s.cache.Set(key, text, ttlcache.DefaultTTL)
		}
		return text, err
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Service) generate(ctx context.Context, req suggest.Request) (string, error) {
	system, prompt, err := renderPrompt(promptData{
		Dialect: s.dialect,
		Schema:  s.schema,
		Prefix:  req.Prefix,
		Suffix:  req.Suffix,
	})
	if err != nil {
		return "", err
	}

	start := time.Now()
	raw, err := s.provider.Generate(ctx, system, prompt)
	if err != nil {
		return "", fmt.Errorf("generate suggestion: %w", err)
	}
	text := ParseSuggestion(raw, req.Prefix)
	s.log.Debug("generated suggestion", "version", req.Version, "duration", time.Since(start), "length", len(text))
	return text, nil
}

// Close stops the cache expiration loop.
func (s *Service) Close() {
	s.closeOnce.Do(s.cache.Stop)
}

func cacheKey(req suggest.Request) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(req.ContextID)))
	h.Write([]byte{0})
	h.Write([]byte(req.Prefix))
	h.Write([]byte{0})
	h.Write([]byte(req.Suffix))
	return hex.EncodeToString(h.Sum(nil))
}
