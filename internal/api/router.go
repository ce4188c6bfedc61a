package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/LJTian/TechNewsHub/internal/aggregator"
	"github.com/LJTian/TechNewsHub/internal/collector"
	"github.com/LJTian/TechNewsHub/internal/logger"
	"github.com/LJTian/TechNewsHub/internal/storage"
)

// Aggregator 由 aggregator.Service 实现
type Aggregator interface {
	Aggregate(ctx context.Context, keyword string, opts aggregator.Options) ([]collector.NewsItem, error)
}

// FeedAdmin 由 storage.Store 实现；未配置 Postgres 时为 nil
type FeedAdmin interface {
	ListFeeds(ctx context.Context) ([]storage.FeedSource, error)
	EnsureFeed(ctx context.Context, url, name string) (*storage.FeedSource, error)
	SetFeedStatus(ctx context.Context, url, status string) error
}

type Server struct {
	agg     Aggregator
	feeds   FeedAdmin
	metrics http.Handler
}

func NewServer(agg Aggregator, feeds FeedAdmin, metrics http.Handler) *Server {
	return &Server{agg: agg, feeds: feeds, metrics: metrics}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/news", s.listNews)
		v1.GET("/feeds", s.listFeeds)
		v1.POST("/feeds", s.addFeed)
		v1.PUT("/feeds/status", s.setFeedStatus)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}

// listNews 参数非法时回退为默认值，不返回 400
func (s *Server) listNews(c *gin.Context) {
	opts := aggregator.Options{
		Sort:       c.DefaultQuery("sort", aggregator.SortDate),
		Lang:       c.Query("lang"),
		Variate:    c.Query("variate"),
		Mix:        c.Query("mix"),
		WindowDays: queryInt(c, "windowDays"),
		Limit:      queryInt(c, "limit"),
		Strict:     queryBool(c, "strict"),
	}

	items, err := s.agg.Aggregate(c.Request.Context(), strings.TrimSpace(c.Query("keyword")), opts)
	if err != nil {
		logger.Error("list news failed", "err", err, "request_id", c.GetString(requestIDKey))
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if items == nil {
		items = []collector.NewsItem{}
	}
	ok(c, items)
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

type feedRequest struct {
	URL    string `json:"url" binding:"required"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (s *Server) listFeeds(c *gin.Context) {
	if s.feeds == nil {
		fail(c, http.StatusServiceUnavailable, "unavailable", "feed registry not configured")
		return
	}
	list, err := s.feeds.ListFeeds(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	ok(c, list)
}

func (s *Server) addFeed(c *gin.Context) {
	if s.feeds == nil {
		fail(c, http.StatusServiceUnavailable, "unavailable", "feed registry not configured")
		return
	}
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil || !strings.HasPrefix(req.URL, "http") {
		fail(c, http.StatusBadRequest, "bad_request", "url is required")
		return
	}
	fs, err := s.feeds.EnsureFeed(c.Request.Context(), req.URL, req.Name)
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	ok(c, fs)
}

func (s *Server) setFeedStatus(c *gin.Context) {
	if s.feeds == nil {
		fail(c, http.StatusServiceUnavailable, "unavailable", "feed registry not configured")
		return
	}
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", "url is required")
		return
	}
	if req.Status != storage.FeedActive && req.Status != storage.FeedDisabled {
		fail(c, http.StatusBadRequest, "bad_request", "status must be active or disabled")
		return
	}
	err := s.feeds.SetFeedStatus(c.Request.Context(), req.URL, req.Status)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fail(c, http.StatusNotFound, "not_found", "feed not registered")
	case err != nil:
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
	default:
		ok(c, gin.H{"url": req.URL, "status": req.Status})
	}
}
