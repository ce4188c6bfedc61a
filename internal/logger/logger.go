package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

// Init 按级别与格式初始化全局 logger；format 为 json 时输出 JSON，否则为 text
func Init(level, format string) {
	InitWriter(os.Stdout, level, format)
}

func InitWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	l := slog.New(h)
	current.Store(l)
	slog.SetDefault(l)
}

// ParseLevel 未知级别回退到 info；DEBUG=true 时强制 debug
func ParseLevel(level string) slog.Level {
	if os.Getenv("DEBUG") == "true" {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L 未调用 Init 时（如单测）返回 slog 默认 logger
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return slog.Default()
}

func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}
