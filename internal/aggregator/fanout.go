package aggregator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/logger"
	"github.com/LJTian/TechNewsHub/internal/metrics"
	"github.com/LJTian/TechNewsHub/internal/query"
)

// sourceLists 各来源的原始结果（未去重）
type sourceLists struct {
	search []collector.NewsItem
	feeds  []collector.NewsItem
	social []collector.NewsItem
}

// fetchAll 并发调用所有来源并等待全部结束；单个来源失败只贡献空列表
func (s *Service) fetchAll(ctx context.Context, keyword string, strict bool) sourceLists {
	var (
		wg  sync.WaitGroup
		out sourceLists
		ok  [3]bool
	)

	run := func(slot int, name string, fn func() ([]collector.NewsItem, error), dst *[]collector.NewsItem) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := safeCall(fn)
			if err != nil {
				s.metrics.IncSourceFetch(name, metrics.ResultFailure)
				logger.Warn("source fetch failed", "source", name, "keyword", keyword, "err", err)
				return
			}
			s.metrics.IncSourceFetch(name, metrics.ResultSuccess)
			logger.Debug("source fetched", "source", name, "count", len(items))
			*dst = items
			ok[slot] = true
		}()
	}

	if s.search != nil {
		run(0, string(collector.SourceSearch), func() ([]collector.NewsItem, error) {
			return s.fetchSearch(ctx, keyword)
		}, &out.search)
	}
	if s.feeds != nil {
		run(1, string(collector.SourceFeeds), func() ([]collector.NewsItem, error) {
			return s.fetchFeeds(ctx, keyword, strict)
		}, &out.feeds)
	}
	if s.social != nil {
		run(2, string(collector.SourceSocial), func() ([]collector.NewsItem, error) {
			return s.social.Fetch(ctx, keyword)
		}, &out.social)
	}
	wg.Wait()

	if (s.search != nil || s.feeds != nil || s.social != nil) && !ok[0] && !ok[1] && !ok[2] {
		logger.Warn("all sources failed", "keyword", keyword)
	}
	return out
}

// fetchSearch 对每个时间窗口修饰各检索一次，按窗口顺序拼接；全部窗口失败才算失败
func (s *Service) fetchSearch(ctx context.Context, keyword string) ([]collector.NewsItem, error) {
	windows := s.cfg.SearchWindows
	if len(windows) == 0 {
		windows = []string{""}
	}

	results := make([][]collector.NewsItem, len(windows))
	errs := make([]error, len(windows))
	var wg sync.WaitGroup
	for i, w := range windows {
		wg.Add(1)
		go func(idx int, modifier string) {
			defer wg.Done()
			q := strings.TrimSpace(keyword + " " + modifier)
			results[idx], errs[idx] = safeCall(func() ([]collector.NewsItem, error) {
				return s.search.Fetch(ctx, q)
			})
		}(i, w)
	}
	wg.Wait()

	var (
		out    []collector.NewsItem
		failed int
	)
	for i := range windows {
		if errs[i] != nil {
			failed++
			logger.Debug("search window failed", "window", windows[i], "err", errs[i])
			continue
		}
		out = append(out, results[i]...)
	}
	if failed == len(windows) {
		return nil, fmt.Errorf("search: all %d windows failed: %w", failed, errs[0])
	}
	return out, nil
}

// fetchFeeds 固定 feed 不支持检索，拉取后用关键词匹配过滤
func (s *Service) fetchFeeds(ctx context.Context, keyword string, strict bool) ([]collector.NewsItem, error) {
	urls := s.FeedURLs(ctx)
	if len(urls) == 0 {
		return nil, nil
	}

	results := s.feeds.FetchMany(ctx, urls)
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed == len(results) {
		return nil, fmt.Errorf("feeds: all %d feeds failed", failed)
	}
	return query.Parse(keyword, strict).Filter(collector.Flatten(results)), nil
}

// FeedURLs 配置中的 feed 列表，再并入登记表中启用的 feed
func (s *Service) FeedURLs(ctx context.Context) []string {
	if s.registry == nil {
		return s.cfg.FeedURLs
	}
	extra, err := s.registry.ActiveFeedURLs(ctx)
	if err != nil {
		logger.Warn("load registered feeds failed", "err", err)
		return s.cfg.FeedURLs
	}
	return collector.MergeFeedURLs(s.cfg.FeedURLs, extra)
}

// safeCall 把来源里的 panic 转成 error
func safeCall(fn func() ([]collector.NewsItem, error)) (items []collector.NewsItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
