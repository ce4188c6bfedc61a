package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"

	"github.com/LJTian/TechNewsHub/internal/aggregator"
	"github.com/LJTian/TechNewsHub/internal/app"
	"github.com/LJTian/TechNewsHub/internal/config"
	"github.com/LJTian/TechNewsHub/internal/logger"
)

// 一个仅执行一次聚合的命令行入口：结果以 JSON 输出到 stdout，适合手动排查
func main() {
	var (
		configFile = flag.String("config", os.Getenv("CONFIG_FILE"), "YAML config file")
		keyword    = flag.String("keyword", "", "search keyword, empty uses the configured default")
		sortMode   = flag.String("sort", aggregator.SortDate, "date | relevance | popularity")
		lang       = flag.String("lang", "", "ja | en, empty for mixed")
		variate    = flag.String("variate", "none", "none | day | hour")
		mix        = flag.String("mix", aggregator.MixNone, "balanced | none")
		windowDays = flag.Int("window", 0, "popularity lookback window in days")
		limit      = flag.Int("limit", 0, "max items, 0 uses the default")
		strict     = flag.Bool("strict", false, "treat the keyword as an exact phrase")
		warm       = flag.Bool("warm", false, "refresh the feed cache only and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("load config failed", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}
	// 日志写到 stderr，stdout 只输出结果
	logger.InitWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	a, err := app.Build(cfg)
	if err != nil {
		logger.Error("init app failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *warm {
		s, err := a.WarmScheduler(cfg.CronSpec)
		if err != nil {
			logger.Error("init scheduler failed", "err", err)
			os.Exit(1)
		}
		if s == nil {
			logger.Warn("nothing to warm", "reason", "no feed cache or registry")
			return
		}
		// 只执行一轮预热后退出
		s.RunOnce()
		return
	}

	items, err := a.Service.Aggregate(ctx, *keyword, aggregator.Options{
		Sort:       *sortMode,
		Lang:       *lang,
		Variate:    *variate,
		Mix:        *mix,
		WindowDays: *windowDays,
		Limit:      *limit,
		Strict:     *strict,
	})
	if err != nil {
		logger.Error("aggregate failed", "err", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		logger.Error("encode result failed", "err", err)
		os.Exit(1)
	}
}
