package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const feedUserAgent = "TechNewsHubBot/1.0"

// newFeedParser 每次拉取新建 parser，gofeed.Parser 内部带解析状态，不能跨 goroutine 复用
func newFeedParser() *gofeed.Parser {
	p := gofeed.NewParser()
	p.UserAgent = feedUserAgent
	return p
}

// itemsFromFeed 把 gofeed 条目统一为 NewsItem
func itemsFromFeed(feed *gofeed.Feed, src Source) []NewsItem {
	if feed == nil {
		return nil
	}
	out := make([]NewsItem, 0, len(feed.Items))
	for i, entry := range feed.Items {
		if entry == nil {
			continue
		}
		out = append(out, itemFromEntry(entry, i, src))
	}
	return out
}

func itemFromEntry(entry *gofeed.Item, idx int, src Source) NewsItem {
	summary := entry.Description
	if strings.TrimSpace(summary) == "" {
		summary = entry.Content
	}
	published := entry.Published
	if published == "" {
		published = entry.Updated
	}
	return NewsItem{
		ID:              StableID(src, entry.GUID, entry.Link, entry.Title, idx),
		Title:           strings.TrimSpace(entry.Title),
		Link:            strings.TrimSpace(entry.Link),
		PublishedAt:     published,
		Summary:         htmlToText(summary),
		PreviewImageURL: pickImage(entry),
		Source:          src,
	}
}

// pickImage 依次尝试 enclosure、media:content、media:thumbnail、正文首图、feed 图片
func pickImage(entry *gofeed.Item) string {
	for _, enc := range entry.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	if media, ok := entry.Extensions["media"]; ok {
		for _, name := range []string{"content", "thumbnail"} {
			for _, ext := range media[name] {
				if u := ext.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	if img := firstImgFromHTML(entry.Content); img != "" {
		return img
	}
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	return ""
}

func firstImgFromHTML(html string) string {
	if !strings.Contains(html, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

// htmlToText 去掉描述中的 HTML 标签并压缩空白，等价于 contentSnippet
func htmlToText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
