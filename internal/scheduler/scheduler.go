package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/logger"
)

// FeedURLSource 当前生效的 feed 列表
type FeedURLSource interface {
	FeedURLs(ctx context.Context) []string
}

// FeedRefresher 跳过缓存重新拉取并回写缓存
type FeedRefresher interface {
	Refresh(ctx context.Context, urls []string) []collector.FeedResult
}

// FetchRecorder 记录每个 feed 的拉取情况，可为 nil
type FetchRecorder interface {
	RecordFetch(ctx context.Context, url string, items int, fetchErr error, at time.Time) error
}

// Scheduler 定时预热 feed 缓存，请求到来时直接命中缓存
type Scheduler struct {
	cron      *cron.Cron
	urls      FeedURLSource
	refresher FeedRefresher
	recorder  FetchRecorder
	timeout   time.Duration
	now       func() time.Time
}

func New(spec string, urls FeedURLSource, refresher FeedRefresher, recorder FetchRecorder) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	s := &Scheduler{
		cron:      c,
		urls:      urls,
		refresher: refresher,
		recorder:  recorder,
		timeout:   5 * time.Minute,
		now:       time.Now,
	}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮预热，避免与启动后的首批请求争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.runOnce()
	})
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发预热
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	urls := s.urls.FeedURLs(ctx)
	logger.Info("start feed warm job", "feeds", len(urls))

	results := s.refresher.Refresh(ctx, urls)
	var ok, failed, items int
	at := s.now()
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			ok++
			items += len(r.Items)
		}
		if s.recorder == nil {
			continue
		}
		if err := s.recorder.RecordFetch(ctx, r.URL, len(r.Items), r.Err, at); err != nil {
			logger.Warn("record feed fetch failed", "url", r.URL, "err", err)
		}
	}
	logger.Info("feed warm job done", "ok", ok, "failed", failed, "items", items)
}
