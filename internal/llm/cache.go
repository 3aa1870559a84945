package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const cacheKeyPrefix = "helpdesk:classify:"

// ResultCache stores serialized classification results.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache adapts a go-redis client to ResultCache.
func NewRedisCache(client *redis.Client) ResultCache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachedClassifier returns a stored result for an issue text seen within the
// TTL. Cache failures are logged and bypassed.
type CachedClassifier struct {
	next   Classifier
	cache  ResultCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedClassifier wraps next with cache.
func NewCachedClassifier(next Classifier, cache ResultCache, ttl time.Duration, logger *zap.Logger) *CachedClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClassifier{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedClassifier) Classify(ctx context.Context, issue string) (*domain.ClassificationResult, error) {
	if strings.TrimSpace(issue) == "" {
		return nil, ErrEmptyIssue
	}
	key := CacheKey(issue)

	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("classification cache read failed", zap.Error(err))
	} else if ok {
		var cached domain.ClassificationResult
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			c.logger.Debug("classification cache hit", zap.String("key", key))
			return &cached, nil
		}
		c.logger.Warn("classification cache entry unreadable", zap.String("key", key))
	}

	result, err := c.next.Classify(ctx, issue)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := c.cache.Set(ctx, key, string(payload), c.ttl); err != nil {
			c.logger.Warn("classification cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

// CacheKey hashes the issue text after folding case and whitespace.
func CacheKey(issue string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(issue)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
