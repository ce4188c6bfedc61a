package ranking

import (
	"time"

	"github.com/LJTian/TechNewsHub/internal/collector"
)

// 多样性打乱的粒度
const (
	VariateNone = "none"
	VariateDay  = "day"
	VariateHour = "hour"
)

const shuffleTopN = 12

// SeedFor 由当前 UTC 日期或小时得到种子；VariateNone 或未知值返回 false
func SeedFor(variate string, now time.Time) (uint32, bool) {
	now = now.UTC()
	switch variate {
	case VariateDay:
		return djb2(now.Format("2006-01-02")), true
	case VariateHour:
		return djb2(now.Format("2006-01-02T15")), true
	default:
		return 0, false
	}
}

// djb2 h = h*33 ^ c，32 位无符号
func djb2(s string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(s); i++ {
		h = (h * 33) ^ uint32(s[i])
	}
	return h
}

// SeededShuffle 只在前 min(12, n) 个位置内做 Fisher-Yates，之后的元素保持不动
func SeededShuffle(items []collector.NewsItem, seed uint32) []collector.NewsItem {
	out := append([]collector.NewsItem(nil), items...)
	k := min(shuffleTopN, len(out))
	state := seed
	for i := k - 1; i > 0; i-- {
		state = state*1664525 + 1013904223
		j := int(state % uint32(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DiversityShuffle variate 为 none 时原样返回
func DiversityShuffle(items []collector.NewsItem, variate string, now time.Time) []collector.NewsItem {
	seed, ok := SeedFor(variate, now)
	if !ok {
		return items
	}
	return SeededShuffle(items, seed)
}
