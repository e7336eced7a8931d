// Package cache fronts the search engine with a Redis-backed query cache.
// Identical in-flight queries are collapsed through singleflight so a cold
// key triggers at most one engine evaluation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/nkoenen/fieldsearch/internal/search"
	"github.com/nkoenen/fieldsearch/pkg/config"
	pkgredis "github.com/nkoenen/fieldsearch/pkg/redis"
)

const keyPrefix = "fieldsearch:"

type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, query string, opts search.Options) (*search.Response, bool) {
	key := c.buildKey(query, opts)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			c.misses.Add(1)
			return nil, false
		}
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	var resp search.Response
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &resp, true
}

func (c *QueryCache) Set(ctx context.Context, query string, opts search.Options, resp *search.Response) {
	key := c.buildKey(query, opts)
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response for (query, opts) or computes,
// stores, and returns it. The second return value reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	opts search.Options,
	computeFn func() (*search.Response, error),
) (*search.Response, bool, error) {
	if resp, ok := c.Get(ctx, query, opts); ok {
		return resp, true, nil
	}
	key := c.buildKey(query, opts)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if resp, ok := c.Get(ctx, query, opts); ok {
			return resp, nil
		}
		resp, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, opts, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*search.Response), false, nil
}

// Invalidate deletes every cached response, for use after an index rebuild.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + "*"
	deleted, err := c.client.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(query string, opts search.Options) string {
	raw := fmt.Sprintf("%s:top_k=%d:boost=%s:%g",
		normalizeQuery(query), opts.TopK, opts.BoostField, opts.BoostStrength)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// normalizeQuery collapses token order and case so that reorderings of the
// same query share one cache entry. Filter tokens sort together with text
// tokens; the DSL is order-insensitive, so this is lossless.
func normalizeQuery(query string) string {
	tokens := strings.Fields(strings.ToLower(query))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
