package query

import (
	"regexp"
	"strings"

	"github.com/LJTian/TechNewsHub/internal/collector"
)

var quoted = regexp.MustCompile(`"([^"]*)"`)

// Matcher 对固定 feed 的结果做关键词过滤（feed 本身不支持检索）
type Matcher struct {
	Phrases []string // 引号短语，小写
	Include []string // 普通词，小写
	Exclude []string // 以 - 开头的排除词，小写，不含 -
	Strict  bool     // 为 true 时所有引号短语都必须出现
}

// Parse 解析关键词：引号内为短语，-词 为排除词，OR/AND 和括号忽略
func Parse(keyword string, strict bool) Matcher {
	m := Matcher{Strict: strict}
	for _, sub := range quoted.FindAllStringSubmatch(keyword, -1) {
		if p := strings.ToLower(strings.TrimSpace(sub[1])); p != "" {
			m.Phrases = append(m.Phrases, p)
		}
	}

	rest := quoted.ReplaceAllString(keyword, " ")
	rest = strings.NewReplacer("(", " ", ")", " ", `"`, " ").Replace(rest)
	for _, tok := range strings.Fields(rest) {
		if tok == "OR" || tok == "AND" || tok == "|" {
			continue
		}
		if strings.HasPrefix(tok, "-") {
			if ex := strings.ToLower(strings.TrimLeft(tok, "-")); ex != "" {
				m.Exclude = append(m.Exclude, ex)
			}
			continue
		}
		m.Include = append(m.Include, strings.ToLower(tok))
	}
	return m
}

// Empty 没有任何正向条件
func (m Matcher) Empty() bool {
	return len(m.Phrases) == 0 && len(m.Include) == 0
}

// Match 在标题与摘要上判定：出现排除词即不匹配；
// 否则有任一短语或普通词出现即匹配，严格模式下要求全部短语出现
func (m Matcher) Match(it collector.NewsItem) bool {
	text := strings.ToLower(it.Title + " " + it.Summary)
	for _, ex := range m.Exclude {
		if strings.Contains(text, ex) {
			return false
		}
	}
	if m.Empty() {
		return true
	}

	if m.Strict && len(m.Phrases) > 0 {
		for _, p := range m.Phrases {
			if !strings.Contains(text, p) {
				return false
			}
		}
		return true
	}

	for _, p := range m.Phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	for _, w := range m.Include {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func (m Matcher) Filter(items []collector.NewsItem) []collector.NewsItem {
	out := make([]collector.NewsItem, 0, len(items))
	for _, it := range items {
		if m.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

// StrictKeyword 没有引号的关键词整体加上引号，作为精确短语检索
func StrictKeyword(keyword string) string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || strings.Contains(keyword, `"`) {
		return keyword
	}
	return `"` + keyword + `"`
}
