package processor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/LJTian/TechNewsHub/internal/collector"
)

// 去重规则名，同时作为指标标签
const (
	RulePrimaryKey     = "primary_key"
	RuleTitleEqual     = "title_equal"
	RuleTitleSubstring = "title_substring"
	RuleTitleOverlap   = "title_overlap"
	RuleSummaryOverlap = "summary_overlap"
	RuleTitleSuffix    = "title_suffix"
)

// Thresholds 相似度去重的阈值，均可配置
type Thresholds struct {
	TitleSubstring   float64 // 短标题长度 / 长标题长度 的下限
	TitleOverlap     float64 // 标题词重合率需超过该值
	SummaryOverlap   float64 // 摘要词重合率需超过该值
	MinSuffixTitle   int     // 去掉 " - 站点名" 后标题长度需超过该值
	MinSummaryTokens int     // 两条摘要的词数都需超过该值
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		TitleSubstring:   0.8,
		TitleOverlap:     0.7,
		SummaryOverlap:   0.6,
		MinSuffixTitle:   10,
		MinSummaryTokens: 5,
	}
}

// DropRecorder 记录各规则丢弃的条目数
type DropRecorder interface {
	AddDedupDropped(rule string, n int)
}

// Deduper 合并多路结果并去重。纯函数式，可并发使用
type Deduper struct {
	th       Thresholds
	recorder DropRecorder
}

func NewDeduper(th Thresholds, recorder DropRecorder) *Deduper {
	return &Deduper{th: th, recorder: recorder}
}

// Merge 按传入顺序拼接各来源列表，先做主键去重，再做相似度去重。
// 调用方应按 [search, feeds, social] 的顺序传入
func (d *Deduper) Merge(lists ...[]collector.NewsItem) []collector.NewsItem {
	var total int
	for _, l := range lists {
		total += len(l)
	}
	all := make([]collector.NewsItem, 0, total)
	for _, l := range lists {
		all = append(all, l...)
	}
	return d.DedupSimilar(d.DedupByKey(all))
}

// DedupByKey 以小写 link（无 link 时用小写 title）为主键，先出现者保留
func (d *Deduper) DedupByKey(items []collector.NewsItem) []collector.NewsItem {
	out := make([]collector.NewsItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		key := primaryKey(it)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	d.record(RulePrimaryKey, len(items)-len(out))
	return out
}

func primaryKey(it collector.NewsItem) string {
	if link := strings.ToLower(strings.TrimSpace(it.Link)); link != "" {
		return "link:" + link
	}
	return "title:" + strings.ToLower(strings.TrimSpace(it.Title))
}

// DedupSimilar 两两比较幸存条目。命中时若恰有一条来自检索源则丢弃检索源那条，
// 否则丢弃后出现的那条；幸存者保持原有顺序
func (d *Deduper) DedupSimilar(items []collector.NewsItem) []collector.NewsItem {
	prepared := make([]fingerprint, len(items))
	for i := range items {
		prepared[i] = d.fingerprint(items[i])
	}

	dropped := make([]bool, len(items))
	for j := 1; j < len(items); j++ {
		for i := 0; i < j; i++ {
			if dropped[i] {
				continue
			}
			rule, dup := d.similar(&prepared[i], &prepared[j])
			if !dup {
				continue
			}
			d.record(rule, 1)
			iSearch := items[i].Source == collector.SourceSearch
			jSearch := items[j].Source == collector.SourceSearch
			if iSearch && !jSearch {
				dropped[i] = true
				continue
			}
			dropped[j] = true
			break
		}
	}

	out := make([]collector.NewsItem, 0, len(items))
	for i, it := range items {
		if !dropped[i] {
			out = append(out, it)
		}
	}
	return out
}

// IsDuplicate 判定两条是否描述同一篇文章，返回命中的规则；结果与参数顺序无关
func (d *Deduper) IsDuplicate(a, b collector.NewsItem) (string, bool) {
	fa, fb := d.fingerprint(a), d.fingerprint(b)
	return d.similar(&fa, &fb)
}

type fingerprint struct {
	title         string
	titleLen      int
	stripped      string
	titleTokens   map[string]struct{}
	summaryTokens map[string]struct{}
}

var siteSuffix = regexp.MustCompile(`\s+-\s+[^-]+$`)

func (d *Deduper) fingerprint(it collector.NewsItem) fingerprint {
	title := NormalizeTitle(it.Title)
	return fingerprint{
		title:         title,
		titleLen:      utf8.RuneCountInString(title),
		stripped:      strings.TrimSpace(siteSuffix.ReplaceAllString(title, "")),
		titleTokens:   Tokens(it.Title),
		summaryTokens: Tokens(it.Summary),
	}
}

func (d *Deduper) similar(a, b *fingerprint) (string, bool) {
	if a.title != "" && b.title != "" {
		if a.title == b.title {
			return RuleTitleEqual, true
		}

		short, long := a, b
		if short.titleLen > long.titleLen {
			short, long = long, short
		}
		if float64(short.titleLen) >= d.th.TitleSubstring*float64(long.titleLen) &&
			strings.Contains(long.title, short.title) {
			return RuleTitleSubstring, true
		}

		if overlap(a.titleTokens, b.titleTokens) > d.th.TitleOverlap {
			return RuleTitleOverlap, true
		}
	}

	if len(a.summaryTokens) > d.th.MinSummaryTokens && len(b.summaryTokens) > d.th.MinSummaryTokens &&
		overlap(a.summaryTokens, b.summaryTokens) > d.th.SummaryOverlap {
		return RuleSummaryOverlap, true
	}

	if a.stripped != "" && a.stripped == b.stripped && utf8.RuneCountInString(a.stripped) > d.th.MinSuffixTitle {
		return RuleTitleSuffix, true
	}
	return "", false
}

func (d *Deduper) record(rule string, n int) {
	if d.recorder != nil && n > 0 {
		d.recorder.AddDedupDropped(rule, n)
	}
}

// NormalizeTitle NFKC 归一化（全角半角统一）、转小写并压缩空白
func NormalizeTitle(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Tokens 小写分词，标点视为分隔符，只保留长度大于 2 的词
func Tokens(s string) map[string]struct{} {
	s = strings.ToLower(norm.NFKC.String(s))
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) > 2 {
			out[w] = struct{}{}
		}
	}
	return out
}

// overlap 公共词数 / 较大词集的大小
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var common int
	for w := range small {
		if _, ok := large[w]; ok {
			common++
		}
	}
	return float64(common) / float64(len(large))
}
