package ranking

import (
	"math"
	"math/rand/v2"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/LJTian/TechNewsHub/internal/collector"
)

const (
	DefaultWindowDays = 14
	maxJitter         = 5.0
)

// RandSource 人气分的随机扰动来源，返回 [0,1)
type RandSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// ZeroRand 关闭随机扰动，用于确定性排序
type ZeroRand struct{}

func (ZeroRand) Float64() float64 { return 0 }

// PopularityScorer 综合时效、媒体权重、标题长度、内容量与关键词热度打分
type PopularityScorer struct {
	weights Weights
	rnd     RandSource
	now     func() time.Time
}

type PopularityOption func(*PopularityScorer)

func WithRand(r RandSource) PopularityOption {
	return func(p *PopularityScorer) { p.rnd = r }
}

func WithClock(now func() time.Time) PopularityOption {
	return func(p *PopularityScorer) { p.now = now }
}

func NewPopularityScorer(w Weights, opts ...PopularityOption) *PopularityScorer {
	p := &PopularityScorer{weights: w, rnd: globalRand{}, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Score 返回条目的人气分，可能为负
func (p *PopularityScorer) Score(it collector.NewsItem, windowDays int) int {
	return p.score(it, windowDays, p.now())
}

func (p *PopularityScorer) score(it collector.NewsItem, windowDays int, now time.Time) int {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	window := float64(windowDays)

	var days float64
	if pub, ok := collector.ParsePublished(it.PublishedAt); ok {
		days = now.Sub(pub).Hours() / 24
		if days < 0 {
			days = 0
		}
	}

	var score int
	if days <= window {
		score += max(12, roundHalfUp(25-math.Min(window, days)*(13/window)))
	} else {
		over := math.Min(90, days-window)
		score -= roundHalfUp(math.Min(15, over*0.5))
	}

	score += p.weights.DomainScore(domainOf(it.Link))
	score += titleLengthScore(utf8.RuneCountInString(it.Title))
	score += richnessScore(utf8.RuneCountInString(it.Summary))
	score += p.weights.KeywordScore(it.Title + " " + it.Summary)

	return roundHalfUp(float64(score) + p.rnd.Float64()*maxJitter)
}

// PopularArticles 窗口内的条目总排在窗口外之前，各自按分数降序，截取前 count 条
func (p *PopularityScorer) PopularArticles(items []collector.NewsItem, count, windowDays int) []ScoredItem {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	now := p.now()
	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	var in, out []ScoredItem
	for _, it := range items {
		s := ScoredItem{NewsItem: it, Score: p.score(it, windowDays, now)}
		if pub, ok := collector.ParsePublished(it.PublishedAt); ok && !pub.Before(cutoff) {
			in = append(in, s)
		} else {
			out = append(out, s)
		}
	}
	byScore := func(list []ScoredItem) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Score > list[j].Score })
	}
	byScore(in)
	byScore(out)

	merged := append(in, out...)
	if count > 0 && len(merged) > count {
		merged = merged[:count]
	}
	return merged
}

func titleLengthScore(n int) int {
	switch {
	case n >= 20 && n <= 80:
		return 10
	case n >= 10 && n <= 100:
		return 5
	default:
		return 0
	}
}

func richnessScore(n int) int {
	switch {
	case n >= 100:
		return 15
	case n >= 50:
		return 10
	case n >= 20:
		return 5
	default:
		return 0
	}
}

// domainOf 取链接的主机名并去掉 www.，无法解析时为空
func domainOf(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// roundHalfUp .5 向正无穷取整
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
