package collector

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/LJTian/TechNewsHub/internal/logger"
)

const (
	imageEnrichParallelism = 5
	imageEnrichTimeout     = 10 * time.Second
	imageEnrichUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ImageEnricher 对缺少预览图的条目抓取原文页面的 og:image，没有时取正文首图
type ImageEnricher struct {
	MaxItems int // 最多补全多少条，<=0 表示不做
}

// Enrich 原地填充 PreviewImageURL；抓取失败的条目保持不变
func (e *ImageEnricher) Enrich(ctx context.Context, items []NewsItem) {
	if e == nil || e.MaxItems <= 0 {
		return
	}

	targets := make(map[string][]int)
	for i := range items {
		if len(targets) >= e.MaxItems {
			break
		}
		if items[i].PreviewImageURL != "" || !isHTTPURL(items[i].Link) {
			continue
		}
		targets[items[i].Link] = append(targets[items[i].Link], i)
	}
	if len(targets) == 0 {
		return
	}

	c := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(imageEnrichUserAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(imageEnrichTimeout)
	_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: imageEnrichParallelism})

	var (
		mu    sync.Mutex
		found = make(map[string]string)
	)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnHTML("html", func(el *colly.HTMLElement) {
		raw := pageImage(el.DOM)
		if raw == "" {
			return
		}
		img := el.Request.AbsoluteURL(raw)
		if img == "" {
			return
		}
		key := el.Request.Ctx.Get("link")
		mu.Lock()
		found[key] = img
		mu.Unlock()
	})
	c.OnError(func(r *colly.Response, err error) {
		logger.Debug("image enrich failed", "url", r.Request.URL.String(), "err", err)
	})

	for link := range targets {
		rctx := colly.NewContext()
		rctx.Put("link", link)
		_ = c.Request("GET", link, nil, rctx, nil)
	}
	c.Wait()

	for link, idxs := range targets {
		img, ok := found[link]
		if !ok {
			continue
		}
		for _, i := range idxs {
			items[i].PreviewImageURL = img
		}
	}
}

// pageImage 依次取 og:image、twitter:image、第一个 img
func pageImage(doc *goquery.Selection) string {
	for _, sel := range []string{`meta[property="og:image"]`, `meta[name="twitter:image"]`} {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	var img string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		img = strings.TrimSpace(s.AttrOr("src", ""))
		return img == ""
	})
	return img
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
