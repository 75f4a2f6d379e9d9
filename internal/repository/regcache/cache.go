// Package regcache caches version-set resolutions in a key-value store.
package regcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/verdex/internal/db"
	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/registry"
	"github.com/kailas-cloud/verdex/internal/projection"
)

const (
	cacheKeyPrefix = "verdex:reg_cache:"
	genKeyPrefix   = "verdex:reg_gen:"
)

// store is the consumer interface for the resolver cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// CachedResolver decorates a version resolver with a TTL cache. Schema
// registrations bump a per-doc-type generation counter, so stale entries die
// immediately instead of waiting out their TTL.
type CachedResolver struct {
	inner      projection.Resolver
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner projection.Resolver,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// ActiveVersions returns a cached resolution or calls the inner resolver.
func (c *CachedResolver) ActiveVersions(ctx context.Context, docType, tag string, ident domain.Identity) ([]registry.FieldVersion, error) {
	gen, ok := c.generation(ctx, docType)
	if !ok {
		// Counter unreachable: resolve directly rather than risk serving a
		// stale set under an unknown generation.
		return c.inner.ActiveVersions(ctx, docType, tag, ident)
	}

	key := c.cacheKey(docType, tag, ident, gen)
	if versions, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return versions, nil
	}
	c.incCache("miss")

	versions, err := c.inner.ActiveVersions(ctx, docType, tag, ident)
	if err != nil {
		return nil, err
	}
	c.putToCache(ctx, key, versions)
	return versions, nil
}

// Invalidate bumps the doc type's generation, orphaning every cached entry.
func (c *CachedResolver) Invalidate(ctx context.Context, docType string) error {
	if _, err := c.store.IncrBy(ctx, genKeyPrefix+docType, 1); err != nil {
		return fmt.Errorf("invalidate %s: %w", docType, err)
	}
	return nil
}

func (c *CachedResolver) generation(ctx context.Context, docType string) (int64, bool) {
	data, err := c.store.Get(ctx, genKeyPrefix+docType)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, true
		}
		c.logger.Warn("Failed to read cache generation", zap.String("doc_type", docType), zap.Error(err))
		return 0, false
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		c.logger.Warn("Malformed cache generation", zap.String("doc_type", docType), zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (c *CachedResolver) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedResolver) cacheKey(docType, tag string, ident domain.Identity, gen int64) string {
	payload := strings.Join([]string{
		docType, tag, ident.UserID, strings.Join(ident.Groups, ","),
		strconv.FormatInt(gen, 10),
	}, "|")
	h := sha256.Sum256([]byte(payload))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedResolver) getFromCache(ctx context.Context, key string) ([]registry.FieldVersion, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached versions", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	var versions []registry.FieldVersion
	if err := json.Unmarshal(data, &versions); err != nil {
		c.logger.Warn("Malformed cached versions", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return versions, true
}

func (c *CachedResolver) putToCache(ctx context.Context, key string, versions []registry.FieldVersion) {
	data, err := json.Marshal(versions)
	if err != nil {
		c.logger.Warn("Failed to encode versions for cache", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache versions", zap.String("key", key), zap.Error(err))
	}
}
