package ranking

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/LJTian/TechNewsHub/internal/collector"
)

// ScoredItem 条目加上相关度或人气分
type ScoredItem struct {
	collector.NewsItem
	Score int
}

func Items(scored []ScoredItem) []collector.NewsItem {
	out := make([]collector.NewsItem, len(scored))
	for i, s := range scored {
		out[i] = s.NewsItem
	}
	return out
}

// RelevanceScore 计算条目与查询的文本匹配分，非负
func RelevanceScore(it collector.NewsItem, query string, now time.Time) int {
	title := strings.ToLower(it.Title)
	text := title + " " + strings.ToLower(it.Summary)
	// 引号只是精确匹配的语法，计分时去掉
	q := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(query, `"`, "")))

	var score int
	if q != "" && strings.Contains(text, q) {
		score += 10
	}
	for _, w := range strings.Fields(q) {
		if utf8.RuneCountInString(w) <= 1 {
			continue
		}
		if strings.Contains(text, w) {
			score += 3
		}
		if strings.Contains(title, w) {
			score += 5
		}
	}

	if pub, ok := collector.ParsePublished(it.PublishedAt); ok {
		age := now.Sub(pub)
		if age < 24*time.Hour {
			score += 2
		}
		if age < 6*time.Hour {
			score++
		}
	}
	return score
}

// SortByRelevance 按相关度降序，同分保持原顺序
func SortByRelevance(items []collector.NewsItem, query string, now time.Time) []ScoredItem {
	scored := make([]ScoredItem, len(items))
	for i, it := range items {
		scored[i] = ScoredItem{NewsItem: it, Score: RelevanceScore(it, query, now)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// SortByRecency 按发布时间降序，无法解析的时间视为 0 排在最后
func SortByRecency(items []collector.NewsItem) []collector.NewsItem {
	type keyed struct {
		it   collector.NewsItem
		unix int64
	}
	tmp := make([]keyed, len(items))
	for i, it := range items {
		tmp[i] = keyed{it: it, unix: collector.PublishedUnix(it)}
	}
	sort.SliceStable(tmp, func(i, j int) bool { return tmp[i].unix > tmp[j].unix })

	out := make([]collector.NewsItem, len(tmp))
	for i := range tmp {
		out[i] = tmp[i].it
	}
	return out
}
