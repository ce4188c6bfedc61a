package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// MockFetcher 从本地 JSON 文件读取条目，代替实时来源用于离线调试。
// 文件内容是条目数组，不按关键词过滤
type MockFetcher struct {
	Path string
}

type mockItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	PubDate   string `json:"pubDate"`
	Link      string `json:"link"`
	SourceURL string `json:"sourceUrl"`
	Image     string `json:"previewImageUrl"`
}

// markdownLink 匹配 [text](url) 形式的链接
var markdownLink = regexp.MustCompile(`(?i)\[[^\]]*\]\((https?://[^)]+)\)`)

func (m *MockFetcher) Name() string {
	return "mock"
}

func (m *MockFetcher) Fetch(ctx context.Context, _ string) ([]NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bs, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, fmt.Errorf("mock: read %s: %w", m.Path, err)
	}
	var raw []mockItem
	if err := json.Unmarshal(bs, &raw); err != nil {
		return nil, fmt.Errorf("mock: unmarshal %s: %w", m.Path, err)
	}

	out := make([]NewsItem, 0, len(raw))
	for i, it := range raw {
		// 旧数据里 summary 是标题，content 才是正文
		title := strings.TrimSpace(it.Title)
		if title == "" {
			title = strings.TrimSpace(it.Summary)
		}
		summary := htmlToText(it.Content)
		if summary == "" && title != strings.TrimSpace(it.Summary) {
			summary = strings.TrimSpace(it.Summary)
		}
		link := NormalizeSourceURL(it.SourceURL)
		if link == "" {
			link = strings.TrimSpace(it.Link)
		}
		id := strings.TrimSpace(it.ID)
		if id == "" {
			id = StableID(SourceSearch, "", link, title, i)
		}
		out = append(out, NewsItem{
			ID:              id,
			Title:           title,
			Link:            link,
			PublishedAt:     it.PubDate,
			Summary:         summary,
			PreviewImageURL: strings.TrimSpace(it.Image),
			Source:          SourceSearch,
		})
	}
	return out, nil
}

// NormalizeSourceURL 把 Markdown 链接 [text](url) 还原成 url
func NormalizeSourceURL(s string) string {
	s = strings.TrimSpace(s)
	if m := markdownLink.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
