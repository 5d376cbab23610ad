// Package querycache caches search index responses in a key-value store.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/index"
)

const cacheKeyPrefix = "facetdex:query:"

// Compile-time check.
var _ index.Backend = (*CachedSearcher)(nil)

// store is the consumer interface for the query cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSearcher serves repeated queries from a key-value store.
// Store failures are logged and bypassed; they never fail a search.
type CachedSearcher struct {
	inner      index.Backend
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner index.Backend,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSearcher {
	return &CachedSearcher{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Search returns a cached response or calls the inner searcher.
// Point-in-time pages are never cached; their view ids are single use.
func (c *CachedSearcher) Search(ctx context.Context, req *index.Request) (*index.Response, error) {
	if req.PointInTime != "" {
		return c.inner.Search(ctx, req)
	}
	key := cacheKey(req)

	if res, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return res, nil
	}

	c.incCache("miss")

	res, err := c.inner.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	c.putToCache(ctx, key, res)
	return res, nil
}

// OpenPointInTime delegates to the inner backend.
func (c *CachedSearcher) OpenPointInTime(ctx context.Context, indexName string, keepAlive time.Duration) (string, error) {
	return c.inner.OpenPointInTime(ctx, indexName, keepAlive)
}

// ClosePointInTime delegates to the inner backend.
func (c *CachedSearcher) ClosePointInTime(ctx context.Context, id string) error {
	return c.inner.ClosePointInTime(ctx, id)
}

func (c *CachedSearcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey covers the target index and the exact serialized body.
func cacheKey(req *index.Request) string {
	h := sha256.New()
	h.Write([]byte(req.Index))
	h.Write([]byte{0})
	h.Write(req.Body)
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedSearcher) getFromCache(ctx context.Context, key string) (*index.Response, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached query", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var res index.Response
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("Failed to parse cached query", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &res, true
}

func (c *CachedSearcher) putToCache(ctx context.Context, key string, res *index.Response) {
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("Failed to encode query response", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache query", zap.String("key", key), zap.Error(err))
	}
}
