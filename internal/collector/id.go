package collector

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
)

// StableID 依次使用源提供的 guid、链接哈希、标题哈希、来源加序号生成条目 ID，
// 同一条目在重复拉取时得到相同的 ID
func StableID(src Source, guid, link, title string, idx int) string {
	if g := strings.TrimSpace(guid); g != "" {
		return g
	}
	if l := strings.TrimSpace(link); l != "" {
		return HashLink(l)
	}
	if t := strings.TrimSpace(title); t != "" {
		return "title-" + HashLink(t)
	}
	return string(src) + "-" + strconv.Itoa(idx)
}

// HashLink 返回链接的 sha1 十六进制串
func HashLink(link string) string {
	h := sha1.New()
	h.Write([]byte(link))
	return hex.EncodeToString(h.Sum(nil))
}
