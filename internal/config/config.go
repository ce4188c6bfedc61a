package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const defaultNewsQuery = `("エンジニア" OR "開発者") ("AI 活用" OR "生成AI" OR "GPT" OR "Copilot" OR "Claude" OR "ChatGPT") ("事例" OR "導入" OR "スキルアップ" OR "生産性" OR "効果" OR "成功")`

// DedupConfig 相似度去重阈值
type DedupConfig struct {
	TitleSubstring   float64
	TitleOverlap     float64
	SummaryOverlap   float64
	MinSuffixTitle   int
	MinSummaryTokens int
}

type Config struct {
	AppPort       string
	BasicAuthUser string
	BasicAuthPass string

	LogLevel  string
	LogFormat string

	// 均为可选：为空时不启用 feed 登记表 / feed 缓存
	PostgresDSN  string
	RedisAddr    string
	FeedCacheTTL time.Duration

	CronSpec string

	DefaultKeyword  string
	SearchBaseURL   string
	SearchHL        string
	SearchGL        string
	SearchCEID      string
	SearchWindows   []string
	Feeds           []string // EXTRA_RSS_FEEDS 在前，配置文件中的 feeds 在后
	FeedConcurrency int
	FetchTimeout    time.Duration

	SocialEnabled bool
	XBearerToken  string
	XResultLimit  int
	XMediaOnly    bool

	RankingFile      string
	WindowDays       int
	ResultLimit      int
	Dedup            DedupConfig
	ImageEnrich      bool
	ImageEnrichLimit int

	// 离线调试：从 JSON 文件读取条目，替代所有实时来源
	UseMock      bool
	MockDataPath string
}

var (
	ErrInvalidWindow    = errors.New("window_days must be positive")
	ErrInvalidLimit     = errors.New("result_limit must be positive")
	ErrInvalidThreshold = errors.New("dedup thresholds must be in (0,1]")
	ErrInvalidCronSpec  = errors.New("cron_spec must not be empty")
	ErrMockPathRequired = errors.New("mock_data_path is required when use_mock is on")
)

// Load 先读可选的 YAML 配置文件，再由环境变量覆盖
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	var errs []error
	intVal := func(env, key string, def int) int {
		v, err := getEnvInt(env, k.Int(key), def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durVal := func(env, key string, def time.Duration) time.Duration {
		v, err := getEnvDuration(env, k.String(key), def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	floatVal := func(key string, def float64) float64 {
		if k.Exists(key) {
			return k.Float64(key)
		}
		return def
	}

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", k.String("app_port"), "9000"),
		BasicAuthUser: getEnv("APP_BASIC_USER", k.String("basic_auth_user"), ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", k.String("basic_auth_pass"), ""),

		LogLevel:  getEnv("LOG_LEVEL", k.String("log_level"), "info"),
		LogFormat: getEnv("LOG_FORMAT", k.String("log_format"), "text"),

		PostgresDSN:  getEnv("POSTGRES_DSN", k.String("postgres_dsn"), ""),
		RedisAddr:    getEnv("REDIS_ADDR", k.String("redis_addr"), ""),
		FeedCacheTTL: durVal("FEED_CACHE_TTL", "feed_cache_ttl", 10*time.Minute),

		CronSpec: getEnv("CRON_SPEC", k.String("cron_spec"), "*/10 * * * *"),

		DefaultKeyword: getEnv("DEFAULT_NEWS_QUERY", k.String("default_keyword"), defaultNewsQuery),
		SearchBaseURL:  getEnv("SEARCH_BASE_URL", k.String("search_base_url"), ""),
		SearchHL:       getEnv("SEARCH_HL", k.String("search_hl"), "ja"),
		SearchGL:       getEnv("SEARCH_GL", k.String("search_gl"), "JP"),
		SearchCEID:     getEnv("SEARCH_CEID", k.String("search_ceid"), "JP:ja"),
		SearchWindows: splitList(getEnv("SEARCH_WINDOWS", strings.Join(k.Strings("search_windows"), ","),
			"when:1h,when:6h,when:1d,when:7d")),
		Feeds:           append(splitList(os.Getenv("EXTRA_RSS_FEEDS")), k.Strings("feeds")...),
		FeedConcurrency: intVal("FEED_CONCURRENCY", "feed_concurrency", 8),
		FetchTimeout:    durVal("FETCH_TIMEOUT", "fetch_timeout", 15*time.Second),

		SocialEnabled: getEnvBool("SOCIAL_ENABLED", k, "social_enabled", true),
		XBearerToken:  getEnv("X_BEARER_TOKEN", k.String("x_bearer_token"), ""),
		XResultLimit:  intVal("X_RESULT_LIMIT", "x_result_limit", 20),
		XMediaOnly:    getEnvBool("X_ENABLE_MEDIA_ONLY", k, "x_media_only", false),

		RankingFile: getEnv("RANKING_FILE", k.String("ranking_file"), ""),
		WindowDays:  intVal("WINDOW_DAYS", "window_days", 14),
		ResultLimit: intVal("RESULT_LIMIT", "result_limit", 60),
		Dedup: DedupConfig{
			TitleSubstring:   floatVal("dedup.title_substring", 0.8),
			TitleOverlap:     floatVal("dedup.title_overlap", 0.7),
			SummaryOverlap:   floatVal("dedup.summary_overlap", 0.6),
			MinSuffixTitle:   intVal("", "dedup.min_suffix_title", 10),
			MinSummaryTokens: intVal("", "dedup.min_summary_tokens", 5),
		},
		ImageEnrich:      getEnvBool("IMAGE_ENRICH", k, "image_enrich", false),
		ImageEnrichLimit: intVal("IMAGE_ENRICH_LIMIT", "image_enrich_limit", 12),

		UseMock:      getEnvBool("USE_MOCK", k, "use_mock", false),
		MockDataPath: getEnv("MOCK_DATA_PATH", k.String("mock_data_path"), ""),
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	var errs []error
	if c.WindowDays <= 0 {
		errs = append(errs, ErrInvalidWindow)
	}
	if c.ResultLimit <= 0 {
		errs = append(errs, ErrInvalidLimit)
	}
	for _, th := range []float64{c.Dedup.TitleSubstring, c.Dedup.TitleOverlap, c.Dedup.SummaryOverlap} {
		if th <= 0 || th > 1 {
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidThreshold, th))
		}
	}
	if strings.TrimSpace(c.CronSpec) == "" {
		errs = append(errs, ErrInvalidCronSpec)
	}
	if c.UseMock && strings.TrimSpace(c.MockDataPath) == "" {
		errs = append(errs, ErrMockPathRequired)
	}
	return errors.Join(errs...)
}

// SocialActive 社交来源需要开关打开且配置了 token
func (c *Config) SocialActive() bool {
	return c.SocialEnabled && c.XBearerToken != ""
}

// LogSummary 用于启动日志，不含密钥
func (c *Config) LogSummary() map[string]any {
	return map[string]any{
		"port":        c.AppPort,
		"cron":        c.CronSpec,
		"postgres":    c.PostgresDSN != "",
		"redis":       c.RedisAddr != "",
		"social":      c.SocialActive(),
		"extra_feeds": len(c.Feeds),
		"windows":     c.SearchWindows,
		"basic_auth":  c.BasicAuthUser != "",
		"mock":        c.UseMock,
	}
}

// getEnv 环境变量优先，其次配置文件，最后默认值
func getEnv(key, fileVal, def string) string {
	if key != "" {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	if fileVal != "" {
		return fileVal
	}
	return def
}

func getEnvInt(key string, fileVal, def int) (int, error) {
	if key != "" {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return def, fmt.Errorf("%s must be an integer: %w", key, err)
			}
			return n, nil
		}
	}
	if fileVal != 0 {
		return fileVal, nil
	}
	return def, nil
}

func getEnvDuration(key, fileVal string, def time.Duration) (time.Duration, error) {
	raw := getEnv(key, fileVal, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, k *koanf.Koanf, fileKey string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	if k.Exists(fileKey) {
		return k.Bool(fileKey)
	}
	return def
}

// splitList 逗号或换行分隔
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
