package collector

import "context"

// Source 标识条目来自哪一路数据源，去重时用于决定保留哪一条
type Source string

const (
	SourceSearch Source = "search" // 关键词检索源（Google News）
	SourceFeeds  Source = "feeds"  // 固定 RSS 列表
	SourceSocial Source = "social" // X 帖子
)

// NewsItem 各数据源统一后的条目结构，在适配器边界一次性构造
type NewsItem struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Link            string `json:"link"`
	PublishedAt     string `json:"pubDate"` // 保留源格式，可能无法解析
	Summary         string `json:"contentSnippet"`
	PreviewImageURL string `json:"previewImageUrl,omitempty"`
	Source          Source `json:"source"`
}

// Fetcher 抽象按关键词拉取的数据源
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, keyword string) ([]NewsItem, error)
}

// FeedResult 单个 feed 的拉取结果，失败时 Err 非空且 Items 为空
type FeedResult struct {
	URL   string
	Items []NewsItem
	Err   error
}

// FeedListFetcher 抽象固定 feed 列表的批量拉取，每个 URL 独立失败
type FeedListFetcher interface {
	FetchMany(ctx context.Context, urls []string) []FeedResult
}
