package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LJTian/TechNewsHub/internal/collector"
)

type staticURLs []string

func (s staticURLs) FeedURLs(context.Context) []string { return s }

type fakeRefresher struct{ got []string }

func (f *fakeRefresher) Refresh(_ context.Context, urls []string) []collector.FeedResult {
	f.got = urls
	out := make([]collector.FeedResult, len(urls))
	for i, u := range urls {
		if i == 0 {
			out[i] = collector.FeedResult{URL: u, Err: errors.New("timeout")}
			continue
		}
		out[i] = collector.FeedResult{URL: u, Items: []collector.NewsItem{{ID: u}}}
	}
	return out
}

type record struct {
	url   string
	items int
	err   error
}

type fakeRecorder struct{ records []record }

func (f *fakeRecorder) RecordFetch(_ context.Context, url string, items int, fetchErr error, _ time.Time) error {
	f.records = append(f.records, record{url: url, items: items, err: fetchErr})
	return nil
}

func TestRunOnceRefreshesAndRecords(t *testing.T) {
	urls := staticURLs{"https://a/rss", "https://b/rss"}
	ref := &fakeRefresher{}
	rec := &fakeRecorder{}

	s, err := New("*/10 * * * *", urls, ref, rec)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	s.RunOnce()

	if len(ref.got) != 2 {
		t.Fatalf("refreshed urls = %v", ref.got)
	}
	if len(rec.records) != 2 {
		t.Fatalf("records = %+v", rec.records)
	}
	if rec.records[0].err == nil || rec.records[1].items != 1 {
		t.Fatalf("records = %+v", rec.records)
	}
}

func TestRunOnceWithoutRecorder(t *testing.T) {
	s, err := New("@every 1h", staticURLs{"https://a/rss"}, &fakeRefresher{}, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	s.RunOnce()
}

func TestNewRejectsBadSpec(t *testing.T) {
	if _, err := New("not a cron spec", staticURLs{}, &fakeRefresher{}, nil); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}
