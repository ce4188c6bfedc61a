package app

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LJTian/TechNewsHub/internal/aggregator"
	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/config"
	"github.com/LJTian/TechNewsHub/internal/metrics"
	"github.com/LJTian/TechNewsHub/internal/processor"
	"github.com/LJTian/TechNewsHub/internal/ranking"
	"github.com/LJTian/TechNewsHub/internal/scheduler"
	"github.com/LJTian/TechNewsHub/internal/storage"
)

// App cmd/api 与 cmd/collect 共用的组件
type App struct {
	Service  *aggregator.Service
	Feeds    *collector.RSSFeedsFetcher // mock 模式下为 nil
	Store    *storage.Store
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Build 按配置组装来源、去重、排序与可选的存储后端
func Build(cfg *config.Config) (*App, error) {
	reg := prometheus.NewRegistry()
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	weights, err := ranking.LoadWeights(cfg.RankingFile)
	if err != nil {
		return nil, err
	}

	feeds := &collector.RSSFeedsFetcher{
		Concurrency: cfg.FeedConcurrency,
		Timeout:     cfg.FetchTimeout,
	}
	if store.Redis != nil {
		feeds.Cache = storage.NewFeedCache(store.Redis, cfg.FeedCacheTTL, m)
	}

	search := &collector.GoogleNewsFetcher{
		BaseURL: cfg.SearchBaseURL,
		HL:      cfg.SearchHL,
		GL:      cfg.SearchGL,
		CEID:    cfg.SearchCEID,
		Timeout: cfg.FetchTimeout,
	}

	th := processor.Thresholds{
		TitleSubstring:   cfg.Dedup.TitleSubstring,
		TitleOverlap:     cfg.Dedup.TitleOverlap,
		SummaryOverlap:   cfg.Dedup.SummaryOverlap,
		MinSuffixTitle:   cfg.Dedup.MinSuffixTitle,
		MinSummaryTokens: cfg.Dedup.MinSummaryTokens,
	}

	opts := []aggregator.Option{
		aggregator.WithMetrics(m),
		aggregator.WithDeduper(processor.NewDeduper(th, m)),
		aggregator.WithPopularity(ranking.NewPopularityScorer(weights)),
	}
	aggCfg := aggregator.Config{
		DefaultKeyword: cfg.DefaultKeyword,
		SearchWindows:  cfg.SearchWindows,
		FeedURLs:       collector.MergeFeedURLs(cfg.Feeds, collector.DefaultFeedURLs),
		WindowDays:     cfg.WindowDays,
		Limit:          cfg.ResultLimit,
	}

	// mock 模式下 JSON 文件是唯一来源，不拉 feed 也不预热
	if cfg.UseMock {
		aggCfg.SearchWindows = nil
		aggCfg.FeedURLs = nil
		svc := aggregator.New(aggCfg, append(opts, aggregator.WithSearch(&collector.MockFetcher{Path: cfg.MockDataPath}))...)
		return &App{Service: svc, Store: store, Metrics: m, Registry: reg}, nil
	}

	opts = append(opts, aggregator.WithSearch(search), aggregator.WithFeeds(feeds))
	if cfg.SocialActive() {
		opts = append(opts, aggregator.WithSocial(&collector.XPostsFetcher{
			BearerToken: cfg.XBearerToken,
			MaxResults:  cfg.XResultLimit,
			MediaOnly:   cfg.XMediaOnly,
			Lang:        cfg.SearchHL,
		}))
	}
	if store.DB != nil {
		opts = append(opts, aggregator.WithRegistry(store))
	}
	if cfg.ImageEnrich {
		opts = append(opts, aggregator.WithEnricher(&collector.ImageEnricher{MaxItems: cfg.ImageEnrichLimit}))
	}

	svc := aggregator.New(aggCfg, opts...)

	return &App{
		Service:  svc,
		Feeds:    feeds,
		Store:    store,
		Metrics:  m,
		Registry: reg,
	}, nil
}

// WarmScheduler 没有 feed 缓存也没有登记表时预热没有意义，返回 nil
func (a *App) WarmScheduler(spec string) (*scheduler.Scheduler, error) {
	var recorder scheduler.FetchRecorder
	if a.Store.DB != nil {
		recorder = a.Store
	}
	if a.Feeds == nil || (a.Feeds.Cache == nil && recorder == nil) {
		return nil, nil
	}
	return scheduler.New(spec, a.Service, a.Feeds, recorder)
}

func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
}

func (a *App) Close() {
	a.Store.Close()
}
