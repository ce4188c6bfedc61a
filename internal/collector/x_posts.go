package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/TechNewsHub/internal/logger"
)

const (
	xSearchURL         = "https://api.x.com/2/tweets/search/recent"
	xDefaultMaxResults = 20
	xMaxResponseBytes  = 2 << 20 // 2MB
	xClientTimeout     = 15 * time.Second
	xDefaultLang       = "ja"
	xBaseFilters       = "-is:retweet -is:reply"
)

// ErrNoBearerToken 未配置 X API token 时返回，聚合层把它当作该源失败处理
var ErrNoBearerToken = errors.New("x posts: bearer token not configured")

// XPostsFetcher 通过 X API v2 recent search 拉取与关键词相关的帖子
type XPostsFetcher struct {
	BearerToken string
	MaxResults  int
	MediaOnly   bool
	Lang        string // 默认 ja
	BaseURL     string
	Client      *http.Client
}

func (x *XPostsFetcher) Name() string {
	return "x_posts"
}

type xSearchResponse struct {
	Data []struct {
		ID          string `json:"id"`
		Text        string `json:"text"`
		AuthorID    string `json:"author_id"`
		CreatedAt   string `json:"created_at"`
		Attachments struct {
			MediaKeys []string `json:"media_keys"`
		} `json:"attachments"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
		Media []struct {
			MediaKey        string `json:"media_key"`
			Type            string `json:"type"`
			URL             string `json:"url"`
			PreviewImageURL string `json:"preview_image_url"`
		} `json:"media"`
	} `json:"includes"`
}

// ClampMaxResults X API 要求 10..100
func ClampMaxResults(n int) int {
	if n <= 0 {
		n = xDefaultMaxResults
	}
	if n < 10 {
		return 10
	}
	if n > 100 {
		return 100
	}
	return n
}

// BuildQuery 在关键词后追加语言与过滤条件
func (x *XPostsFetcher) BuildQuery(keyword string) string {
	lang := x.Lang
	if lang == "" {
		lang = xDefaultLang
	}
	base := "lang:" + lang + " " + xBaseFilters + " (has:links OR has:media)"
	if x.MediaOnly {
		base = "lang:" + lang + " " + xBaseFilters + " has:media"
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return base
	}
	return "(" + keyword + ") " + base
}

func (x *XPostsFetcher) Fetch(ctx context.Context, keyword string) ([]NewsItem, error) {
	if x.BearerToken == "" {
		return nil, ErrNoBearerToken
	}

	base := x.BaseURL
	if base == "" {
		base = xSearchURL
	}
	q := url.Values{}
	q.Set("query", x.BuildQuery(keyword))
	q.Set("max_results", strconv.Itoa(ClampMaxResults(x.MaxResults)))
	q.Set("tweet.fields", "created_at,author_id,attachments")
	q.Set("expansions", "author_id,attachments.media_keys")
	q.Set("user.fields", "username")
	q.Set("media.fields", "url,preview_image_url,type")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("x posts: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+x.BearerToken)

	client := x.Client
	if client == nil {
		client = &http.Client{Timeout: xClientTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("x posts: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("x posts: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, xMaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("x posts: read body: %w", err)
	}

	var parsed xSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("x posts: unmarshal: %w", err)
	}

	items := parsed.toNewsItems()
	logger.Debug("x posts fetched", "keyword", keyword, "count", len(items))
	return items, nil
}

func (r *xSearchResponse) toNewsItems() []NewsItem {
	usernames := make(map[string]string, len(r.Includes.Users))
	for _, u := range r.Includes.Users {
		usernames[u.ID] = u.Username
	}
	// 照片优先用原图 url，其它媒体（视频、GIF）只有 preview_image_url
	photos := make(map[string]string, len(r.Includes.Media))
	previews := make(map[string]string, len(r.Includes.Media))
	for _, m := range r.Includes.Media {
		if m.Type == "photo" && m.URL != "" {
			photos[m.MediaKey] = m.URL
		}
		if m.PreviewImageURL != "" {
			previews[m.MediaKey] = m.PreviewImageURL
		}
	}

	out := make([]NewsItem, 0, len(r.Data))
	for i, tw := range r.Data {
		text := strings.Join(strings.Fields(tw.Text), " ")
		link := "https://x.com/i/web/status/" + tw.ID
		if name := usernames[tw.AuthorID]; name != "" {
			link = "https://x.com/" + name + "/status/" + tw.ID
		}
		img := pickMedia(tw.Attachments.MediaKeys, photos)
		if img == "" {
			img = pickMedia(tw.Attachments.MediaKeys, previews)
		}
		out = append(out, NewsItem{
			ID:              StableID(SourceSocial, tw.ID, link, text, i),
			Title:           text,
			Link:            link,
			PublishedAt:     tw.CreatedAt,
			Summary:         text,
			PreviewImageURL: img,
			Source:          SourceSocial,
		})
	}
	return out
}

func pickMedia(keys []string, urls map[string]string) string {
	for _, key := range keys {
		if u, ok := urls[key]; ok {
			return u
		}
	}
	return ""
}
