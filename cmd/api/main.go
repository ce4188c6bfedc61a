package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/TechNewsHub/internal/api"
	"github.com/LJTian/TechNewsHub/internal/app"
	"github.com/LJTian/TechNewsHub/internal/config"
	"github.com/LJTian/TechNewsHub/internal/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("load config failed", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	logger.Info("config loaded", "summary", cfg.LogSummary())

	a, err := app.Build(cfg)
	if err != nil {
		logger.Error("init app failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	// 定时预热 feed 缓存；配置了 Postgres 时同时记录各 feed 的拉取情况
	s, err := a.WarmScheduler(cfg.CronSpec)
	if err != nil {
		logger.Error("init scheduler failed", "err", err)
		os.Exit(1)
	}
	if s != nil {
		s.Start()
		defer s.Stop()
	} else {
		logger.Info("feed warm job disabled", "reason", "no feed cache or registry")
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), api.RequestID())
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	var feeds api.FeedAdmin
	if a.Store.DB != nil {
		feeds = a.Store
	}
	api.NewServer(a.Service, feeds, a.MetricsHandler()).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exit", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", "err", err)
	}
	logger.Info("server stopped")
}
