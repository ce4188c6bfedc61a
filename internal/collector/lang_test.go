package collector

import "testing"

func TestFilterLang(t *testing.T) {
	items := []NewsItem{
		{ID: "1", Title: "生成AIの導入"},
		{ID: "2", Title: "Go 1.24 released"},
		{ID: "3", Title: "English title", Summary: "カタカナ summary"},
	}

	ja := FilterLang(items, LangJA)
	if len(ja) != 2 || ja[0].ID != "1" || ja[1].ID != "3" {
		t.Fatalf("FilterLang(ja) = %+v", ja)
	}
	en := FilterLang(items, LangEN)
	if len(en) != 1 || en[0].ID != "2" {
		t.Fatalf("FilterLang(en) = %+v", en)
	}
	if all := FilterLang(items, ""); len(all) != 3 {
		t.Fatalf("FilterLang(\"\") should keep everything, got %d", len(all))
	}
}

func TestStableID(t *testing.T) {
	if got := StableID(SourceFeeds, "g", "https://x", "T", 3); got != "g" {
		t.Fatalf("StableID with guid = %q", got)
	}
	if got := StableID(SourceFeeds, "", "https://x", "T", 3); got != HashLink("https://x") {
		t.Fatalf("StableID with link = %q", got)
	}
	a := StableID(SourceSearch, "", "", "Search story", 0)
	b := StableID(SourceFeeds, "", "", "Completely different feed story", 0)
	if a == b {
		t.Fatalf("items without link share id %q", a)
	}
	if again := StableID(SourceSearch, "", "", "Search story", 7); again != a {
		t.Fatalf("title id not stable: %q vs %q", again, a)
	}
	if got := StableID(SourceFeeds, "", "", "", 3); got != "feeds-3" {
		t.Fatalf("StableID fallback = %q", got)
	}
	if StableID(SourceSearch, "", "", "", 0) == StableID(SourceFeeds, "", "", "", 0) {
		t.Fatalf("fallback ids from different sources collide")
	}
}

func TestPublishedUnix(t *testing.T) {
	if got := PublishedUnix(NewsItem{PublishedAt: "not a date"}); got != 0 {
		t.Fatalf("unparseable date should be 0, got %d", got)
	}
	if got := PublishedUnix(NewsItem{PublishedAt: "2024-05-01T10:00:00Z"}); got != 1714557600 {
		t.Fatalf("PublishedUnix = %d", got)
	}
}
