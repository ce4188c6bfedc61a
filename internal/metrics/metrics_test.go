package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterAndRecord(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	m.IncSourceFetch("feeds", ResultSuccess)
	m.IncSourceFetch("feeds", ResultSuccess)
	m.AddDedupDropped("similar_title", 3)
	m.AddDedupDropped("similar_title", 0)
	m.IncFeedCache(ResultHit)
	m.ObserveAggregate("relevance", 0.2, 12)

	if got := testutil.ToFloat64(m.sourceFetch.WithLabelValues("feeds", ResultSuccess)); got != 2 {
		t.Fatalf("source fetch = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.dedupDropped.WithLabelValues("similar_title")); got != 3 {
		t.Fatalf("dedup dropped = %v, want 3", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Fatalf("duration series = %d, want 1", got)
	}

	if err := m.Register(reg); err == nil {
		t.Fatalf("second Register should fail with duplicate collectors")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IncSourceFetch("search", ResultFailure)
	m.AddDedupDropped("primary_key", 1)
	m.ObserveAggregate("recency", 1, 1)
	m.IncFeedCache(ResultMiss)
}
