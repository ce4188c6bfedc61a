package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/TechNewsHub/internal/logger"
)

const (
	feedsDefaultConcurrency = 8
	feedsDefaultTimeout     = 15 * time.Second
)

// FeedCache 按 feed URL 缓存统一后的条目；实现位于 storage 包
type FeedCache interface {
	GetFeed(ctx context.Context, url string) ([]NewsItem, bool)
	SetFeed(ctx context.Context, url string, items []NewsItem)
}

// RSSFeedsFetcher 并发拉取固定 feed 列表，单个 feed 失败不影响其它
type RSSFeedsFetcher struct {
	Concurrency int
	Timeout     time.Duration
	Cache       FeedCache // 可为 nil
}

// FetchMany 结果与 urls 一一对应，顺序保持不变
func (r *RSSFeedsFetcher) FetchMany(ctx context.Context, urls []string) []FeedResult {
	return r.fetchAll(ctx, urls, true)
}

// Refresh 跳过缓存读取，重新拉取并回写缓存；供定时预热使用
func (r *RSSFeedsFetcher) Refresh(ctx context.Context, urls []string) []FeedResult {
	return r.fetchAll(ctx, urls, false)
}

func (r *RSSFeedsFetcher) fetchAll(ctx context.Context, urls []string, readCache bool) []FeedResult {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = feedsDefaultConcurrency
	}

	results := make([]FeedResult, len(urls))
	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, concurrency)
	)
	for i, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, feedURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			items, err := r.fetchOne(ctx, feedURL, readCache)
			if err != nil {
				logger.Warn("fetch feed failed", "url", feedURL, "err", err)
				results[idx] = FeedResult{URL: feedURL, Err: err}
				return
			}
			results[idx] = FeedResult{URL: feedURL, Items: items}
		}(i, u)
	}
	wg.Wait()
	return results
}

func (r *RSSFeedsFetcher) fetchOne(ctx context.Context, feedURL string, readCache bool) ([]NewsItem, error) {
	if readCache && r.Cache != nil {
		if items, ok := r.Cache.GetFeed(ctx, feedURL); ok {
			return items, nil
		}
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = feedsDefaultTimeout
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	feed, err := newFeedParser().ParseURLWithContext(feedURL, fctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	items := itemsFromFeed(feed, SourceFeeds)
	if r.Cache != nil {
		r.Cache.SetFeed(ctx, feedURL, items)
	}
	return items, nil
}

// Flatten 合并所有成功的 feed 结果
func Flatten(results []FeedResult) []NewsItem {
	var out []NewsItem
	for _, res := range results {
		out = append(out, res.Items...)
	}
	return out
}

// DefaultFeedURLs 内置的技术新闻 feed 列表
var DefaultFeedURLs = []string{
	"https://rss.itmedia.co.jp/rss/2.0/itmedia_all.xml",
	"https://rss.itmedia.co.jp/rss/2.0/itmedia_enterprise.xml",
	"https://www.gizmodo.jp/index.xml",
	"https://k-tai.watch.impress.co.jp/rss/index.xml",
	"https://forest.watch.impress.co.jp/rss/index.xml",
	"https://www.engadget.com/rss.xml",
	"https://jp.techcrunch.com/feed/",
	"https://www.cnet.com/rss/all/",
	"https://www.zdnet.com/news/rss.xml",
	"https://feeds.feedburner.com/TechCrunch",
	"https://www.wired.com/feed/rss",
	"https://feeds.arstechnica.com/arstechnica/index",
	"https://www.theverge.com/rss/index.xml",
	"https://feeds.feedburner.com/venturebeat/SZYF",
	"https://www.techradar.com/rss",
	"https://www.digitaltrends.com/feed/",
	"https://www.slashgear.com/feed/",
	"https://www.techspot.com/rss.xml",
}

// MergeFeedURLs 按顺序合并多个 feed 列表，去掉空白和重复项
func MergeFeedURLs(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, u := range list {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}

// SplitFeedList 解析 EXTRA_RSS_FEEDS：逗号或换行分隔
func SplitFeedList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	return MergeFeedURLs(parts)
}
