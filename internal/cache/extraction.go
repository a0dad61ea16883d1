// Package cache memoizes initial extractions in Redis for the server
// mode. Extraction is idempotent for identical prompts, so serving a
// cached candidate set is behavior-preserving and saves a provider call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"specforge.app/specforge/internal/model"
	"specforge.app/specforge/internal/provider"
)

const keyPrefix = "specforge:extract:"

type ExtractionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(url string, ttl time.Duration) (*ExtractionCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &ExtractionCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (c *ExtractionCache) Close() error {
	return c.client.Close()
}

func (c *ExtractionCache) get(ctx context.Context, key string) (model.FieldSet, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(ctx, "extraction cache read failed", "error", err)
		}
		return nil, false
	}
	var fields model.FieldSet
	if err := json.Unmarshal(raw, &fields); err != nil {
		slog.WarnContext(ctx, "extraction cache entry corrupt", "error", err)
		return nil, false
	}
	return fields, true
}

func (c *ExtractionCache) put(ctx context.Context, key string, fields model.FieldSet) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "extraction cache write failed", "error", err)
	}
}

// CachedProvider wraps a provider and memoizes first-pass extractions.
// Calls with prior answers bypass the cache; their input is session-bound.
type CachedProvider struct {
	provider.Provider
	cache *ExtractionCache
}

func Wrap(p provider.Provider, cache *ExtractionCache) *CachedProvider {
	return &CachedProvider{Provider: p, cache: cache}
}

func (p *CachedProvider) Extract(ctx context.Context, prompt string, history []model.Exchange) (model.FieldSet, error) {
	if len(history) > 0 {
		return p.Provider.Extract(ctx, prompt, history)
	}

	key := cacheKey(p.Provider.Name(), prompt)
	if fields, ok := p.cache.get(ctx, key); ok {
		slog.DebugContext(ctx, "extraction cache hit")
		return fields, nil
	}

	fields, err := p.Provider.Extract(ctx, prompt, history)
	if err != nil {
		return nil, err
	}
	p.cache.put(ctx, key, fields)
	return fields, nil
}

func cacheKey(providerName, prompt string) string {
	sum := sha256.Sum256([]byte(providerName + "\x00" + prompt))
	return keyPrefix + hex.EncodeToString(sum[:])
}
