package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricSourceFetchTotal     = "technews_source_fetch_total"
	MetricDedupDroppedTotal    = "technews_dedup_dropped_total"
	MetricAggregateDuration    = "technews_aggregate_duration_seconds"
	MetricFeedCacheTotal       = "technews_feed_cache_total"
	MetricAggregateResultItems = "technews_aggregate_result_items"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

// Metrics 聚合流程的 Prometheus 指标；nil 接收者上的方法均为空操作
type Metrics struct {
	sourceFetch  *prometheus.CounterVec
	dedupDropped *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	feedCache    *prometheus.CounterVec
	resultItems  *prometheus.HistogramVec
}

// New 创建指标，不做注册
func New() *Metrics {
	return &Metrics{
		sourceFetch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSourceFetchTotal,
				Help: "Source fetches by source and result",
			},
			[]string{"source", "result"},
		),
		dedupDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDedupDroppedTotal,
				Help: "Items dropped during dedup by rule",
			},
			[]string{"rule"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricAggregateDuration,
				Help:    "Aggregate latency by sort mode",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"sort"},
		),
		feedCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFeedCacheTotal,
				Help: "Feed cache lookups by result",
			},
			[]string{"result"},
		),
		resultItems: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricAggregateResultItems,
				Help:    "Number of items returned by Aggregate",
				Buckets: []float64{0, 5, 10, 20, 40, 60, 100, 200},
			},
			[]string{"sort"},
		),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.sourceFetch, m.dedupDropped, m.duration, m.feedCache, m.resultItems}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) IncSourceFetch(source, result string) {
	if m == nil {
		return
	}
	m.sourceFetch.WithLabelValues(source, result).Inc()
}

func (m *Metrics) AddDedupDropped(rule string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dedupDropped.WithLabelValues(rule).Add(float64(n))
}

func (m *Metrics) ObserveAggregate(sort string, seconds float64, items int) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(sort).Observe(seconds)
	m.resultItems.WithLabelValues(sort).Observe(float64(items))
}

func (m *Metrics) IncFeedCache(result string) {
	if m == nil {
		return
	}
	m.feedCache.WithLabelValues(result).Inc()
}
