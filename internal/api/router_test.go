package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/LJTian/TechNewsHub/internal/aggregator"
	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/storage"
)

type fakeAgg struct {
	keyword string
	opts    aggregator.Options
	items   []collector.NewsItem
	err     error
}

func (f *fakeAgg) Aggregate(_ context.Context, keyword string, opts aggregator.Options) ([]collector.NewsItem, error) {
	f.keyword, f.opts = keyword, opts
	return f.items, f.err
}

type fakeFeeds struct {
	list      []storage.FeedSource
	statusErr error
}

func (f *fakeFeeds) ListFeeds(context.Context) ([]storage.FeedSource, error) { return f.list, nil }

func (f *fakeFeeds) EnsureFeed(_ context.Context, url, name string) (*storage.FeedSource, error) {
	fs := storage.FeedSource{URL: url, Name: name, Status: storage.FeedActive}
	f.list = append(f.list, fs)
	return &fs, nil
}

func (f *fakeFeeds) SetFeedStatus(context.Context, string, string) error { return f.statusErr }

func newTestEngine(agg Aggregator, feeds FeedAdmin, mws ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mws...)
	NewServer(agg, feeds, promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})).RegisterRoutes(r)
	return r
}

type envelope struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Data    []collector.NewsItem `json:"data"`
}

func TestListNewsParsesOptions(t *testing.T) {
	agg := &fakeAgg{items: []collector.NewsItem{{ID: "1", Title: "t", Source: collector.SourceFeeds}}}
	r := newTestEngine(agg, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/news?keyword=AI+tools&sort=relevance&lang=ja&variate=hour&mix=balanced&windowDays=7&limit=5&strict=true", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body envelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Code != "ok" || len(body.Data) != 1 || body.Data[0].ID != "1" {
		t.Fatalf("body = %+v", body)
	}
	want := aggregator.Options{Sort: "relevance", Lang: "ja", Variate: "hour", Mix: "balanced", WindowDays: 7, Limit: 5, Strict: true}
	if agg.opts != want || agg.keyword != "AI tools" {
		t.Fatalf("opts = %+v keyword = %q", agg.opts, agg.keyword)
	}
}

func TestListNewsEmptyIsArray(t *testing.T) {
	r := newTestEngine(&fakeAgg{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/news?windowDays=abc", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestListNewsError(t *testing.T) {
	r := newTestEngine(&fakeAgg{err: aggregator.ErrPipeline}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/news", nil))
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestFeedsRoutes(t *testing.T) {
	feeds := &fakeFeeds{}
	r := newTestEngine(&fakeAgg{}, feeds)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/feeds",
		strings.NewReader(`{"url":"https://example.com/rss","name":"Example"}`)))
	if w.Code != http.StatusOK || len(feeds.list) != 1 {
		t.Fatalf("add feed status = %d body = %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/feeds", strings.NewReader(`{"url":"ftp://x"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid url status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/feeds/status",
		strings.NewReader(`{"url":"https://example.com/rss","status":"paused"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad status code = %d", w.Code)
	}

	feeds.statusErr = gorm.ErrRecordNotFound
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/feeds/status",
		strings.NewReader(`{"url":"https://missing/rss","status":"disabled"}`)))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing feed code = %d", w.Code)
	}
}

func TestFeedsRoutesWithoutRegistry(t *testing.T) {
	r := newTestEngine(&fakeAgg{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/feeds", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestBasicAuthAndRequestID(t *testing.T) {
	r := newTestEngine(&fakeAgg{err: errors.New("unused")}, nil, RequestID(), BasicAuth("user", "pass"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("health status = %d request id = %q", w.Code, w.Header().Get(requestIDHeader))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/news", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set(requestIDHeader, "abc")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get(requestIDHeader) != "abc" {
		t.Fatalf("metrics status = %d request id = %q", w.Code, w.Header().Get(requestIDHeader))
	}
}
