package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/LJTian/TechNewsHub/internal/logger"
)

// feed 状态
const (
	FeedActive   = "active"
	FeedDisabled = "disabled"
)

var ErrNoDatabase = errors.New("storage: postgres not configured")

// FeedSource 登记的 RSS feed 及最近一次拉取情况。不保存文章本身
type FeedSource struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	URL    string `gorm:"size:1024;uniqueIndex" json:"url"`
	Name   string `gorm:"size:128" json:"name"`
	Status string `gorm:"size:32;index" json:"status"` // active / disabled

	// 例如 {"items": 20, "error": "", "at": "2024-05-01T10:00:00Z"}
	LastFetch    datatypes.JSONMap `gorm:"type:jsonb" json:"lastFetch"`
	FailureCount int               `json:"failureCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store 两个后端均可选：DB 为 nil 时不启用登记表，Redis 为 nil 时不启用 feed 缓存
type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	s := &Store{}

	if dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.AutoMigrate(&FeedSource{}); err != nil {
			return nil, fmt.Errorf("migrate feed_sources: %w", err)
		}
		s.DB = db
	}

	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping failed", "addr", redisAddr, "err", err)
		}
		s.Redis = rdb
	}
	return s, nil
}

func (s *Store) Close() {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// EnsureFeed 确保某个 feed 已登记，存在时原样返回
func (s *Store) EnsureFeed(ctx context.Context, url, name string) (*FeedSource, error) {
	if s.DB == nil {
		return nil, ErrNoDatabase
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("storage: feed url is empty")
	}

	fs := &FeedSource{URL: url, Name: name, Status: FeedActive}
	if err := s.DB.WithContext(ctx).Where("url = ?", url).FirstOrCreate(fs).Error; err != nil {
		return nil, fmt.Errorf("ensure feed %s: %w", url, err)
	}
	return fs, nil
}

// SetFeedStatus 启用或停用 feed
func (s *Store) SetFeedStatus(ctx context.Context, url, status string) error {
	if s.DB == nil {
		return ErrNoDatabase
	}
	if status != FeedActive && status != FeedDisabled {
		return fmt.Errorf("storage: unknown feed status %q", status)
	}
	res := s.DB.WithContext(ctx).Model(&FeedSource{}).Where("url = ?", url).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) ListFeeds(ctx context.Context) ([]FeedSource, error) {
	if s.DB == nil {
		return nil, ErrNoDatabase
	}
	var list []FeedSource
	err := s.DB.WithContext(ctx).Order("created_at ASC").Find(&list).Error
	return list, err
}

// ActiveFeedURLs 供聚合服务合并到固定 feed 列表
func (s *Store) ActiveFeedURLs(ctx context.Context) ([]string, error) {
	if s.DB == nil {
		return nil, nil
	}
	var urls []string
	err := s.DB.WithContext(ctx).Model(&FeedSource{}).
		Where("status = ?", FeedActive).
		Order("created_at ASC").
		Pluck("url", &urls).Error
	return urls, err
}

// RecordFetch 记录一次拉取结果；feed 未登记时自动登记
func (s *Store) RecordFetch(ctx context.Context, url string, items int, fetchErr error, at time.Time) error {
	if s.DB == nil {
		return ErrNoDatabase
	}
	fs, err := s.EnsureFeed(ctx, url, "")
	if err != nil {
		return err
	}

	failures := 0
	if fetchErr != nil {
		failures = fs.FailureCount + 1
	}
	return s.DB.WithContext(ctx).Model(fs).Updates(map[string]any{
		"last_fetch":    fetchSummary(items, fetchErr, at),
		"failure_count": failures,
	}).Error
}

func fetchSummary(items int, fetchErr error, at time.Time) datatypes.JSONMap {
	m := datatypes.JSONMap{
		"items": items,
		"at":    at.UTC().Format(time.RFC3339),
		"error": "",
	}
	if fetchErr != nil {
		m["error"] = strings.ToValidUTF8(fetchErr.Error(), "�")
	}
	return m
}
