package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/logger"
	"github.com/LJTian/TechNewsHub/internal/metrics"
)

const feedCachePrefix = "technews:feed:"

// CacheRecorder 记录缓存命中情况
type CacheRecorder interface {
	IncFeedCache(result string)
}

// FeedCache 以 feed URL 为 key 缓存统一后的条目，实现 collector.FeedCache
type FeedCache struct {
	rdb      *redis.Client
	ttl      time.Duration
	recorder CacheRecorder
}

func NewFeedCache(rdb *redis.Client, ttl time.Duration, recorder CacheRecorder) *FeedCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &FeedCache{rdb: rdb, ttl: ttl, recorder: recorder}
}

func feedCacheKey(url string) string {
	return feedCachePrefix + collector.HashLink(url)
}

func (c *FeedCache) GetFeed(ctx context.Context, url string) ([]collector.NewsItem, bool) {
	bs, err := c.rdb.Get(ctx, feedCacheKey(url)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Debug("feed cache get failed", "url", url, "err", err)
		}
		c.record(metrics.ResultMiss)
		return nil, false
	}
	items, err := decodeItems(bs)
	if err != nil {
		c.record(metrics.ResultMiss)
		return nil, false
	}
	c.record(metrics.ResultHit)
	return items, true
}

func (c *FeedCache) SetFeed(ctx context.Context, url string, items []collector.NewsItem) {
	bs, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, feedCacheKey(url), bs, c.ttl).Err(); err != nil {
		logger.Warn("feed cache set failed", "url", url, "err", err)
	}
}

func decodeItems(bs []byte) ([]collector.NewsItem, error) {
	var items []collector.NewsItem
	if err := json.Unmarshal(bs, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *FeedCache) record(result string) {
	if c.recorder != nil {
		c.recorder.IncFeedCache(result)
	}
}
