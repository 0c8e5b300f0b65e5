package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-brand-guard/internal/common/metrics"
	"rag-brand-guard/internal/models"
)

const cacheKeyPrefix = "rag:backend:"

// CachedClient serves repeated requests from redis. Redis failures are
// logged and the request goes to the backend.
type CachedClient struct {
	next   Querier
	rdb    redis.Cmdable
	ttl    time.Duration
	logger Logger
}

func NewCachedClient(next Querier, rdb redis.Cmdable, ttl time.Duration, log Logger) *CachedClient {
	return &CachedClient{next: next, rdb: rdb, ttl: ttl, logger: log}
}

// CacheKey hashes the request body, so the enhanced query and the full
// retrieval config both take part.
func CacheKey(req models.BackendRequest) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedClient) Query(ctx context.Context, req models.BackendRequest) (*models.BackendResponse, error) {
	key := CacheKey(req)

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached models.BackendResponse
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			metrics.BackendCacheLookups.WithLabelValues("hit").Inc()
			c.logger.Debug("backend cache hit", map[string]interface{}{"key": key})
			return cached.Sanitize(), nil
		}
		metrics.BackendCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"key": key})
	case stderrors.Is(err, redis.Nil):
		metrics.BackendCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.BackendCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("backend cache unavailable", map[string]interface{}{"key": key, "error": err.Error()})
	}

	resp, err := c.next.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return resp, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to store backend answer", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return resp, nil
}
