package collector

import "unicode"

// 语言分桶只区分“含 CJK 文字”与其它
const (
	LangJA = "ja"
	LangEN = "en"
)

// HasCJK 判断标题或摘要中是否含平假名、片假名或汉字
func HasCJK(it NewsItem) bool {
	return containsCJK(it.Title) || containsCJK(it.Summary)
}

func containsCJK(s string) bool {
	for _, r := range s {
		if isCJK(r) {
			return true
		}
	}
	return false
}

func isCJK(r rune) bool {
	if r >= 0x3040 && r <= 0x309f { // 平假名
		return true
	}
	if r >= 0x30a0 && r <= 0x30ff { // 片假名
		return true
	}
	return unicode.Is(unicode.Han, r)
}

// FilterLang 按语言保留条目；lang 为空（混合）时原样返回
func FilterLang(items []NewsItem, lang string) []NewsItem {
	switch lang {
	case LangJA, LangEN:
	default:
		return items
	}
	out := make([]NewsItem, 0, len(items))
	for _, it := range items {
		if HasCJK(it) == (lang == LangJA) {
			out = append(out, it)
		}
	}
	return out
}
