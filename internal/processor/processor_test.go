package processor

import (
	"testing"

	"github.com/LJTian/TechNewsHub/internal/collector"
)

type countingRecorder map[string]int

func (c countingRecorder) AddDedupDropped(rule string, n int) { c[rule] += n }

func item(id, title, link string, src collector.Source) collector.NewsItem {
	return collector.NewsItem{ID: id, Title: title, Link: link, Source: src}
}

func ids(items []collector.NewsItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestMergeDropsSearchDuplicateAcrossSources(t *testing.T) {
	rec := countingRecorder{}
	d := NewDeduper(DefaultThresholds(), rec)

	search := []collector.NewsItem{item("a", "X raises $10M", "http://a.com/1", collector.SourceSearch)}
	feeds := []collector.NewsItem{item("b", "X raises $10M - B News", "http://b.com/1", collector.SourceFeeds)}
	social := []collector.NewsItem{item("c", "Completely unrelated story about gardening", "http://c.com/9", collector.SourceSocial)}

	out := d.Merge(search, feeds, social)
	got := ids(out)
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("Merge ids = %v, want [b c]", got)
	}
	if rec[RuleTitleSuffix] != 1 {
		t.Fatalf("recorder = %v, want one %s drop", rec, RuleTitleSuffix)
	}
}

func TestMergeDropsLaterWhenNoSearchInvolved(t *testing.T) {
	d := NewDeduper(DefaultThresholds(), nil)

	feeds := []collector.NewsItem{item("a", "X raises $10M", "http://a.com/1", collector.SourceFeeds)}
	social := []collector.NewsItem{item("b", "X raises $10M - B News", "http://b.com/1", collector.SourceSocial)}

	got := ids(d.Merge(nil, feeds, social))
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("Merge ids = %v, want [a]", got)
	}
}

func TestDedupByKeyFirstWins(t *testing.T) {
	d := NewDeduper(DefaultThresholds(), nil)
	items := []collector.NewsItem{
		item("1", "First", "HTTPS://Example.com/A", collector.SourceFeeds),
		item("2", "Second", "https://example.com/a", collector.SourceFeeds),
		item("3", "No Link", "", collector.SourceFeeds),
		item("4", "no link", "", collector.SourceFeeds),
		item("5", "", "", collector.SourceFeeds),
	}
	got := ids(d.DedupByKey(items))
	want := []string{"1", "3", "5"}
	if len(got) != len(want) {
		t.Fatalf("DedupByKey ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DedupByKey ids = %v, want %v", got, want)
		}
	}
}

func TestSimilarityRules(t *testing.T) {
	d := NewDeduper(DefaultThresholds(), nil)
	longSummary := "gopher conference announces schedule keynote speakers workshops registration"

	cases := []struct {
		name string
		a, b collector.NewsItem
		rule string
		dup  bool
	}{
		{
			name: "equal after normalization",
			a:    collector.NewsItem{Title: "ＡＩ  Tools Weekly"},
			b:    collector.NewsItem{Title: "ai tools weekly"},
			rule: RuleTitleEqual, dup: true,
		},
		{
			name: "substring with close length",
			a:    collector.NewsItem{Title: "Apple releases new iPhone model"},
			b:    collector.NewsItem{Title: "Apple releases new iPhone model!"},
			rule: RuleTitleSubstring, dup: true,
		},
		{
			name: "token overlap",
			a:    collector.NewsItem{Title: "Kubernetes release adds sidecar containers support"},
			b:    collector.NewsItem{Title: "sidecar containers support adds Kubernetes release notes"},
			rule: RuleTitleOverlap, dup: true,
		},
		{
			name: "summary overlap",
			a:    collector.NewsItem{Title: "Conference news", Summary: longSummary},
			b:    collector.NewsItem{Title: "Event update today", Summary: longSummary + " today"},
			rule: RuleSummaryOverlap, dup: true,
		},
		{
			name: "short summaries are ignored",
			a:    collector.NewsItem{Title: "Conference news", Summary: "tiny summary here"},
			b:    collector.NewsItem{Title: "Event update today", Summary: "tiny summary here"},
			dup:  false,
		},
		{
			name: "site suffix",
			a:    collector.NewsItem{Title: "Rust 2.0 announced today - Example Times"},
			b:    collector.NewsItem{Title: "Rust 2.0 announced today - Other Daily"},
			rule: RuleTitleSuffix, dup: true,
		},
		{
			name: "short stripped title does not match",
			a:    collector.NewsItem{Title: "Go news - Alpha"},
			b:    collector.NewsItem{Title: "Go news - Omega"},
			dup:  false,
		},
		{
			name: "empty titles are not equal",
			a:    collector.NewsItem{},
			b:    collector.NewsItem{},
			dup:  false,
		},
	}

	for _, tc := range cases {
		rule, dup := d.IsDuplicate(tc.a, tc.b)
		if dup != tc.dup || (tc.dup && rule != tc.rule) {
			t.Fatalf("%s: IsDuplicate = (%q, %v), want (%q, %v)", tc.name, rule, dup, tc.rule, tc.dup)
		}
		// 判定与参数顺序无关
		rule2, dup2 := d.IsDuplicate(tc.b, tc.a)
		if dup2 != dup || rule2 != rule {
			t.Fatalf("%s: predicate not symmetric: (%q, %v) vs (%q, %v)", tc.name, rule, dup, rule2, dup2)
		}
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	d := NewDeduper(DefaultThresholds(), nil)
	search := []collector.NewsItem{
		item("s1", "Rust 2.0 announced today - Google News", "https://news.google.com/1", collector.SourceSearch),
		item("s2", "OpenAI ships new model", "https://news.google.com/2", collector.SourceSearch),
	}
	feeds := []collector.NewsItem{
		item("f1", "Rust 2.0 announced today - Example Times", "https://example.com/rust", collector.SourceFeeds),
		item("f2", "OpenAI ships new model", "https://example.com/openai", collector.SourceFeeds),
		item("f3", "Weather report", "https://example.com/weather", collector.SourceFeeds),
	}

	once := d.Merge(search, feeds)
	twice := d.Merge(once)
	if len(once) != len(twice) {
		t.Fatalf("second Merge changed length: %v -> %v", ids(once), ids(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("second Merge changed order: %v -> %v", ids(once), ids(twice))
		}
	}
	for i := 0; i < len(once); i++ {
		for j := i + 1; j < len(once); j++ {
			if _, dup := d.IsDuplicate(once[i], once[j]); dup {
				t.Fatalf("output still has duplicates: %s / %s", once[i].ID, once[j].ID)
			}
		}
	}
	got := ids(once)
	if len(got) != 3 || got[0] != "f1" || got[1] != "f2" || got[2] != "f3" {
		t.Fatalf("Merge ids = %v, want [f1 f2 f3]", got)
	}
}

func TestTokens(t *testing.T) {
	tok := Tokens("Go, AI & the LLM-era: 生成AIの導入")
	for _, w := range []string{"the", "llm", "era", "生成aiの導入"} {
		if _, ok := tok[w]; !ok {
			t.Fatalf("Tokens missing %q: %v", w, tok)
		}
	}
	for _, w := range []string{"go", "ai"} {
		if _, ok := tok[w]; ok {
			t.Fatalf("Tokens should drop short word %q", w)
		}
	}
}
