package collector

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/LJTian/TechNewsHub/internal/logger"
)

const (
	googleNewsBaseURL = "https://news.google.com/rss/search"
	googleNewsTimeout = 15 * time.Second
)

// GoogleNewsFetcher 通过 Google News 检索 RSS 按关键词拉取新闻
type GoogleNewsFetcher struct {
	BaseURL string
	HL      string // 界面语言，例如 ja
	GL      string // 地区，例如 JP
	CEID    string // 例如 JP:ja
	Timeout time.Duration
}

func (g *GoogleNewsFetcher) Name() string {
	return "google_news"
}

// SearchURL 拼出检索地址；keyword 可以带 when:1d 之类的时间修饰
func (g *GoogleNewsFetcher) SearchURL(keyword string) string {
	base := g.BaseURL
	if base == "" {
		base = googleNewsBaseURL
	}
	hl, gl, ceid := g.HL, g.GL, g.CEID
	if hl == "" {
		hl = "ja"
	}
	if gl == "" {
		gl = "JP"
	}
	if ceid == "" {
		ceid = gl + ":" + hl
	}
	q := url.Values{}
	q.Set("q", keyword)
	q.Set("hl", hl)
	q.Set("gl", gl)
	q.Set("ceid", ceid)
	return base + "?" + q.Encode()
}

func (g *GoogleNewsFetcher) Fetch(ctx context.Context, keyword string) ([]NewsItem, error) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = googleNewsTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	feed, err := newFeedParser().ParseURLWithContext(g.SearchURL(keyword), ctx)
	if err != nil {
		return nil, fmt.Errorf("google news: %w", err)
	}
	items := itemsFromFeed(feed, SourceSearch)
	logger.Debug("google news fetched", "keyword", keyword, "count", len(items))
	return items, nil
}
