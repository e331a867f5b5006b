package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Source    SourceConfig    `mapstructure:"source"`
	Sync      SyncConfig      `mapstructure:"sync"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Challenge ChallengeConfig `mapstructure:"challenge"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// CacheConfig 拉取结果缓存配置
type CacheConfig struct {
	Backend    string `mapstructure:"backend"`     // sqlite | redis
	TTLMinutes int    `mapstructure:"ttl_minutes"` // 仅用于“多久前更新”的展示
	LRUSize    int    `mapstructure:"lru_size"`    // 0 关闭进程内前置缓存
	RedisAddr  string `mapstructure:"redis_addr"`
	RedisDB    int    `mapstructure:"redis_db"`
}

// SourceConfig 活动数据源配置
type SourceConfig struct {
	Dir         string `mapstructure:"dir"`
	Watch       bool   `mapstructure:"watch"`
	DebounceSec int    `mapstructure:"debounce_sec"`
}

// SyncConfig 同步调度配置
type SyncConfig struct {
	Users       []string `mapstructure:"users"`
	IntervalSec int      `mapstructure:"interval_sec"`
	RatePerMin  float64  `mapstructure:"rate_per_min"`
	Burst       int      `mapstructure:"burst"`
}

// HTTPConfig 本地 HTTP 接口配置
type HTTPConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// ChallengeConfig 挑战生成配置
type ChallengeConfig struct {
	Multiplier float64 `mapstructure:"multiplier"`
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 默认查找路径
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 支持环境变量
	v.SetEnvPrefix("GITQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("配置文件未找到，使用默认配置")
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 处理环境变量占位符
	cfg.Cache.RedisAddr = expandEnv(cfg.Cache.RedisAddr)
	cfg.Source.Dir = expandEnv(cfg.Source.Dir)

	// 处理相对路径
	cfg.Storage.DBPath = resolvePath(cfg.Storage.DBPath)
	cfg.Source.Dir = resolvePath(cfg.Source.Dir)
	if cfg.App.LogPath != "" {
		cfg.App.LogPath = resolvePath(cfg.App.LogPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 全部取默认值的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "gitquest-agent")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_path", "")

	// Storage
	v.SetDefault("storage.db_path", "./data/gitquest.db")

	// Cache
	v.SetDefault("cache.backend", "sqlite")
	v.SetDefault("cache.ttl_minutes", 30)
	v.SetDefault("cache.lru_size", 256)
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis_db", 0)

	// Source
	v.SetDefault("source.dir", "./data/activity")
	v.SetDefault("source.watch", true)
	v.SetDefault("source.debounce_sec", 2)

	// Sync
	v.SetDefault("sync.users", []string{})
	v.SetDefault("sync.interval_sec", 1800)
	v.SetDefault("sync.rate_per_min", 2)
	v.SetDefault("sync.burst", 2)

	// HTTP
	v.SetDefault("http.listen_addr", "127.0.0.1:8765")

	// Challenge
	v.SetDefault("challenge.multiplier", 1.2)
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("cache.backend 只支持 sqlite 或 redis: %q", c.Cache.Backend)
	}
	if c.Sync.IntervalSec <= 0 {
		return fmt.Errorf("sync.interval_sec 必须大于 0")
	}
	if c.Challenge.Multiplier <= 0 {
		return fmt.Errorf("challenge.multiplier 必须大于 0")
	}
	return nil
}

// expandEnv 展开环境变量占位符 ${VAR}
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := s[2 : len(s)-1]
		return os.Getenv(envVar)
	}
	return s
}

// resolvePath 解析相对路径为绝对路径
func resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	// 获取可执行文件目录
	exe, err := os.Executable()
	if err != nil {
		return path
	}

	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, path)
}

// LoggerOptions 日志配置
type LoggerOptions struct {
	Level     string
	Path      string // 为空时只输出到 stdout
	Component string
}

// ParseLevel 解析日志级别
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger 设置全局日志；返回的 Closer 用于关闭日志文件
func SetupLogger(opts LoggerOptions) (io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	})
	logger := slog.New(handler)
	if opts.Component != "" {
		logger = logger.With("component", opts.Component)
	}
	slog.SetDefault(logger)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
