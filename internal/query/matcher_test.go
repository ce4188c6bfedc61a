package query

import (
	"testing"

	"github.com/LJTian/TechNewsHub/internal/collector"
)

func TestParse(t *testing.T) {
	m := Parse(`("エンジニア" OR "開発者") Go -Crypto`, false)
	if len(m.Phrases) != 2 || m.Phrases[0] != "エンジニア" || m.Phrases[1] != "開発者" {
		t.Fatalf("Phrases = %v", m.Phrases)
	}
	if len(m.Include) != 1 || m.Include[0] != "go" {
		t.Fatalf("Include = %v", m.Include)
	}
	if len(m.Exclude) != 1 || m.Exclude[0] != "crypto" {
		t.Fatalf("Exclude = %v", m.Exclude)
	}
}

func TestMatch(t *testing.T) {
	m := Parse(`"生成AI" Copilot -広告`, false)

	cases := []struct {
		it   collector.NewsItem
		want bool
	}{
		{collector.NewsItem{Title: "生成AIの導入事例"}, true},
		{collector.NewsItem{Title: "GitHub", Summary: "copilot update"}, true},
		{collector.NewsItem{Title: "生成AI 広告キャンペーン"}, false},
		{collector.NewsItem{Title: "天気予報"}, false},
	}
	for _, tc := range cases {
		if got := m.Match(tc.it); got != tc.want {
			t.Fatalf("Match(%q) = %v, want %v", tc.it.Title, got, tc.want)
		}
	}
}

func TestMatchStrictRequiresAllPhrases(t *testing.T) {
	m := Parse(`"AI 活用" "事例"`, true)
	if !m.Match(collector.NewsItem{Title: "AI 活用の事例"}) {
		t.Fatalf("both phrases present should match")
	}
	if m.Match(collector.NewsItem{Title: "AI 活用のコツ"}) {
		t.Fatalf("strict mode should require every phrase")
	}
}

func TestEmptyMatcherKeepsEverything(t *testing.T) {
	m := Parse("  ", false)
	items := []collector.NewsItem{{Title: "a"}, {Title: "b"}}
	if got := m.Filter(items); len(got) != 2 {
		t.Fatalf("Filter = %d items, want 2", len(got))
	}
}

func TestStrictKeyword(t *testing.T) {
	if got := StrictKeyword("AI tools"); got != `"AI tools"` {
		t.Fatalf("StrictKeyword = %q", got)
	}
	if got := StrictKeyword(`"AI" tools`); got != `"AI" tools` {
		t.Fatalf("StrictKeyword should keep quoted keyword, got %q", got)
	}
}
