package aggregator

import (
	"strings"

	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/ranking"
)

// 排序方式
const (
	SortDate       = "date"
	SortRelevance  = "relevance"
	SortPopularity = "popularity"
)

// 混排方式
const (
	MixNone     = "none"
	MixBalanced = "balanced"
)

// Options 一次聚合请求的参数；无法识别的取值回退为默认值，不报错
type Options struct {
	Sort       string
	Lang       string // ja / en，空为不过滤
	Variate    string // none / day / hour，仅作用于 relevance
	Mix        string // balanced / none，仅作用于 relevance
	WindowDays int    // 人气排序的回看窗口
	Strict     bool
	Limit      int // 人气排序默认取配置值；其它排序 <=0 表示不截断
}

func (o Options) normalize(defaultWindow, defaultLimit int) Options {
	switch s := strings.ToLower(strings.TrimSpace(o.Sort)); s {
	case SortRelevance, SortPopularity:
		o.Sort = s
	default:
		o.Sort = SortDate
	}

	switch l := strings.ToLower(strings.TrimSpace(o.Lang)); l {
	case collector.LangJA, collector.LangEN:
		o.Lang = l
	default:
		o.Lang = ""
	}

	switch v := strings.ToLower(strings.TrimSpace(o.Variate)); v {
	case ranking.VariateDay, ranking.VariateHour:
		o.Variate = v
	default:
		o.Variate = ranking.VariateNone
	}

	if strings.EqualFold(strings.TrimSpace(o.Mix), MixBalanced) {
		o.Mix = MixBalanced
	} else {
		o.Mix = MixNone
	}

	if o.WindowDays <= 0 {
		o.WindowDays = defaultWindow
	}
	if o.Sort == SortPopularity && o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	return o
}
