package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shaiso/content-worker/internal/domain"
	"github.com/shaiso/content-worker/internal/pipeline"
)

const (
	// DefaultCacheTTL — сколько хранится список ключевых слов категории.
	DefaultCacheTTL = time.Hour

	cacheKeyPrefix = "content-worker:keywords:"
)

// CachedCrawler кэширует результат KeywordCrawler в Redis.
//
// Недоступность Redis не ломает пайплайн: ошибки кэша логируются,
// и запрос уходит в обёрнутый crawler.
type CachedCrawler struct {
	next   pipeline.KeywordCrawler
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedCrawler создаёт CachedCrawler.
func NewCachedCrawler(next pipeline.KeywordCrawler, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedCrawler {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedCrawler{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// CrawlKeywords возвращает ключевые слова из кэша или из обёрнутого crawler.
func (c *CachedCrawler) CrawlKeywords(ctx context.Context, category domain.TrendCategory) ([]string, error) {
	key := cacheKey(category)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var keywords []string
		if err := json.Unmarshal(cached, &keywords); err == nil && len(keywords) > 0 {
			c.logger.Debug("keyword cache hit", "key", key, "count", len(keywords))
			return keywords, nil
		}
		c.logger.Warn("corrupted keyword cache entry", "key", key)
	case errors.Is(err, redis.Nil):
		c.logger.Debug("keyword cache miss", "key", key)
	default:
		c.logger.Warn("keyword cache unavailable", "error", err)
	}

	keywords, err := c.next.CrawlKeywords(ctx, category)
	if err != nil {
		return nil, err
	}

	// Пустой список не кэшируется
	if len(keywords) == 0 {
		return keywords, nil
	}

	data, err := json.Marshal(keywords)
	if err == nil {
		err = c.rdb.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("failed to cache keywords", "key", key, "error", err)
	}

	return keywords, nil
}

func cacheKey(category domain.TrendCategory) string {
	return cacheKeyPrefix + strings.Join(category.Levels(), ">")
}
