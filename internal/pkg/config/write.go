package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, "config", "config.yaml"), nil
}

func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	users := cfg.Sync.Users
	if users == nil {
		users = []string{}
	}
	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"version":   cfg.App.Version,
			"log_level": cfg.App.LogLevel,
			"log_path":  cfg.App.LogPath,
		},
		"storage": map[string]any{
			"db_path": cfg.Storage.DBPath,
		},
		"cache": map[string]any{
			"backend":     cfg.Cache.Backend,
			"ttl_minutes": cfg.Cache.TTLMinutes,
			"lru_size":    cfg.Cache.LRUSize,
			"redis_addr":  cfg.Cache.RedisAddr,
			"redis_db":    cfg.Cache.RedisDB,
		},
		"source": map[string]any{
			"dir":          cfg.Source.Dir,
			"watch":        cfg.Source.Watch,
			"debounce_sec": cfg.Source.DebounceSec,
		},
		"sync": map[string]any{
			"users":        users,
			"interval_sec": cfg.Sync.IntervalSec,
			"rate_per_min": cfg.Sync.RatePerMin,
			"burst":        cfg.Sync.Burst,
		},
		"http": map[string]any{
			"listen_addr": cfg.HTTP.ListenAddr,
		},
		"challenge": map[string]any{
			"multiplier": cfg.Challenge.Multiplier,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
