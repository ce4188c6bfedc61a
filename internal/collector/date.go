package collector

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParsePublished 解析源格式的发布时间（RFC1123、ISO8601、X 的 created_at 等）。
// 空串或无法解析时 ok 为 false
func ParsePublished(raw string) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PublishedUnix 用于排序：无法解析的时间视为 0（排在最后）
func PublishedUnix(it NewsItem) int64 {
	t, ok := ParsePublished(it.PublishedAt)
	if !ok {
		return 0
	}
	return t.Unix()
}
