package ranking

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Weights 人气评分用的只读权重表，启动时加载后注入评分器
type Weights struct {
	DefaultDomain int            `yaml:"default_domain"`
	Domains       map[string]int `yaml:"domains"`  // 去掉 www. 的域名 -> 10..30
	Keywords      map[string]int `yaml:"keywords"` // 小写关键词 -> 10..25
}

func DefaultWeights() Weights {
	return Weights{
		DefaultDomain: 10,
		Domains: map[string]int{
			"itmedia.co.jp":              30,
			"gizmodo.jp":                 25,
			"engadget.com":               25,
			"techcrunch.com":             30,
			"cnet.com":                   25,
			"zdnet.com":                  25,
			"wired.com":                  30,
			"arstechnica.com":            25,
			"theverge.com":               30,
			"venturebeat.com":            25,
			"techradar.com":              20,
			"digitaltrends.com":          20,
			"slashgear.com":              15,
			"techspot.com":               20,
			"k-tai.watch.impress.co.jp":  20,
			"forest.watch.impress.co.jp": 20,
			"jp.techcrunch.com":          25,
			"news.google.com":            15,
		},
		Keywords: map[string]int{
			// AI
			"ai": 20, "人工知能": 20, "chatgpt": 25, "gpt": 20, "claude": 20, "copilot": 20,
			"生成ai": 25, "機械学習": 20, "ディープラーニング": 20, "llm": 20,
			// 科技公司与设备
			"iphone": 15, "android": 15, "スマートフォン": 15, "スマホ": 15,
			"apple": 20, "google": 20, "microsoft": 20, "amazon": 20,
			"tesla": 20, "spacex": 20, "openai": 25, "anthropic": 20,
			// 游戏
			"ゲーム": 10, "game": 10, "nintendo": 15, "sony": 15, "playstation": 15,
			"xbox": 15, "steam": 10, "vr": 15, "ar": 15, "メタバース": 15,
			// 安全
			"セキュリティ": 15, "security": 15, "ハッキング": 15, "hacking": 15,
			"暗号": 10, "crypto": 10, "blockchain": 15, "bitcoin": 15,
			// 商业
			"スタートアップ": 15, "startup": 15, "投資": 15, "investment": 15,
			"ipo": 20, "資金調達": 15, "funding": 15, "exit": 15,
			// 云与基础设施
			"クラウド": 15, "cloud": 15, "aws": 20, "azure": 20, "gcp": 20,
			"インフラ": 10, "infrastructure": 10, "devops": 15,
		},
	}
}

// LoadWeights 从 YAML 读取权重表；文件中缺省的表沿用默认值
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if path == "" {
		return w, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read ranking weights: %w", err)
	}

	var file Weights
	if err := yaml.Unmarshal(data, &file); err != nil {
		return w, fmt.Errorf("parse ranking weights: %w", err)
	}
	if file.DefaultDomain > 0 {
		w.DefaultDomain = file.DefaultDomain
	}
	if len(file.Domains) > 0 {
		w.Domains = lowerKeys(file.Domains)
	}
	if len(file.Keywords) > 0 {
		w.Keywords = lowerKeys(file.Keywords)
	}
	return w, nil
}

func lowerKeys(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// DomainScore 未收录的域名返回 DefaultDomain
func (w Weights) DomainScore(domain string) int {
	if s, ok := w.Domains[domain]; ok {
		return s
	}
	return w.DefaultDomain
}

// KeywordScore 累加在文本中出现的每个关键词权重
func (w Weights) KeywordScore(text string) int {
	text = strings.ToLower(text)
	var score int
	for kw, pts := range w.Keywords {
		if strings.Contains(text, kw) {
			score += pts
		}
	}
	return score
}
