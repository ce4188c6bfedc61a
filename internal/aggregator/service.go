package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/logger"
	"github.com/LJTian/TechNewsHub/internal/metrics"
	"github.com/LJTian/TechNewsHub/internal/processor"
	"github.com/LJTian/TechNewsHub/internal/query"
	"github.com/LJTian/TechNewsHub/internal/ranking"
)

// ErrPipeline 合并、排序阶段出现意外错误时返回
var ErrPipeline = errors.New("aggregate pipeline failed")

// FeedRegistry 提供额外登记的 feed 地址，实现位于 storage 包
type FeedRegistry interface {
	ActiveFeedURLs(ctx context.Context) ([]string, error)
}

// Enricher 为排序后的结果补全预览图
type Enricher interface {
	Enrich(ctx context.Context, items []collector.NewsItem)
}

type Config struct {
	DefaultKeyword string
	SearchWindows  []string // 追加到关键词后的时间修饰，例如 when:1d
	FeedURLs       []string
	WindowDays     int
	Limit          int
}

// Service 聚合入口：并发拉取、合并去重、按选项排序
type Service struct {
	cfg        Config
	search     collector.Fetcher
	feeds      collector.FeedListFetcher
	social     collector.Fetcher
	registry   FeedRegistry
	enricher   Enricher
	deduper    *processor.Deduper
	popularity *ranking.PopularityScorer
	metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Service)

func WithSearch(f collector.Fetcher) Option { return func(s *Service) { s.search = f } }

func WithFeeds(f collector.FeedListFetcher) Option { return func(s *Service) { s.feeds = f } }

// WithSocial 传 nil 即关闭社交来源
func WithSocial(f collector.Fetcher) Option { return func(s *Service) { s.social = f } }

func WithRegistry(r FeedRegistry) Option { return func(s *Service) { s.registry = r } }

func WithEnricher(e Enricher) Option { return func(s *Service) { s.enricher = e } }

func WithDeduper(d *processor.Deduper) Option { return func(s *Service) { s.deduper = d } }

func WithPopularity(p *ranking.PopularityScorer) Option { return func(s *Service) { s.popularity = p } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(cfg Config, opts ...Option) *Service {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = ranking.DefaultWindowDays
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	s := &Service{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.deduper == nil {
		s.deduper = processor.NewDeduper(processor.DefaultThresholds(), s.metrics)
	}
	if s.popularity == nil {
		s.popularity = ranking.NewPopularityScorer(ranking.DefaultWeights(), ranking.WithClock(s.now))
	}
	return s
}

// Aggregate 单个来源失败不影响结果；只有调用方取消 ctx 或后续处理出错时返回 error
func (s *Service) Aggregate(ctx context.Context, keyword string, opts Options) ([]collector.NewsItem, error) {
	start := time.Now()
	opts = opts.normalize(s.cfg.WindowDays, s.cfg.Limit)

	if keyword == "" {
		keyword = s.cfg.DefaultKeyword
	}
	// 精确短语只交给来源和关键词匹配，计分仍用原始关键词
	fetchKeyword := keyword
	if opts.Strict {
		fetchKeyword = query.StrictKeyword(keyword)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lists := s.fetchAll(ctx, fetchKeyword, opts.Strict)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := s.order(lists, keyword, opts)
	if err != nil {
		logger.Error("aggregate failed", "keyword", keyword, "sort", opts.Sort, "err", err)
		return nil, err
	}
	if s.enricher != nil {
		s.enricher.Enrich(ctx, items)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveAggregate(opts.Sort, elapsed.Seconds(), len(items))
	logger.Info("aggregate done", "keyword", keyword, "sort", opts.Sort, "lang", opts.Lang,
		"search", len(lists.search), "feeds", len(lists.feeds), "social", len(lists.social),
		"items", len(items), "elapsed", elapsed)
	return items, nil
}

// order 纯计算阶段，panic 统一转成 ErrPipeline
func (s *Service) order(lists sourceLists, keyword string, opts Options) (out []collector.NewsItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrPipeline, r)
		}
	}()

	now := s.now()
	switch opts.Sort {
	case SortPopularity:
		merged := collector.FilterLang(s.deduper.Merge(lists.search, lists.feeds, lists.social), opts.Lang)
		return ranking.Items(s.popularity.PopularArticles(merged, opts.Limit, opts.WindowDays)), nil

	case SortRelevance:
		var ranked []collector.NewsItem
		if opts.Mix == MixBalanced {
			ranked = collector.FilterLang(dropRepeatedIDs(Interleave(lists.search, lists.feeds, lists.social)), opts.Lang)
		} else {
			merged := collector.FilterLang(s.deduper.Merge(lists.search, lists.feeds, lists.social), opts.Lang)
			ranked = ranking.Items(ranking.SortByRelevance(merged, keyword, now))
		}
		return truncate(ranking.DiversityShuffle(ranked, opts.Variate, now), opts.Limit), nil

	default:
		merged := collector.FilterLang(s.deduper.Merge(lists.search, lists.feeds, lists.social), opts.Lang)
		return truncate(ranking.SortByRecency(merged), opts.Limit), nil
	}
}

// Interleave 按 检索:feed:社交 = 1:2:3 轮流取条目，直到三路都取完
func Interleave(search, feeds, social []collector.NewsItem) []collector.NewsItem {
	type lane struct {
		items []collector.NewsItem
		per   int
		pos   int
	}
	lanes := []*lane{{items: search, per: 1}, {items: feeds, per: 2}, {items: social, per: 3}}

	out := make([]collector.NewsItem, 0, len(search)+len(feeds)+len(social))
	for len(out) < cap(out) {
		for _, l := range lanes {
			end := min(l.pos+l.per, len(l.items))
			out = append(out, l.items[l.pos:end]...)
			l.pos = end
		}
	}
	return out
}

// dropRepeatedIDs 多个时间窗口的检索结果会重复，按 ID 保留第一次出现
func dropRepeatedIDs(items []collector.NewsItem) []collector.NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]collector.NewsItem, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

func truncate(items []collector.NewsItem, limit int) []collector.NewsItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
