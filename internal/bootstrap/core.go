package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yuqie6/GitQuest/internal/cache"
	"github.com/yuqie6/GitQuest/internal/eventbus"
	"github.com/yuqie6/GitQuest/internal/observability"
	"github.com/yuqie6/GitQuest/internal/pkg/config"
	"github.com/yuqie6/GitQuest/internal/repository"
	"github.com/yuqie6/GitQuest/internal/service"
	"github.com/yuqie6/GitQuest/internal/source"
)

// Core 持有跨二进制共享的核心依赖
type Core struct {
	Cfg       *config.Config
	DB        *repository.Database
	LogCloser io.Closer

	Repos   *repository.Repos
	Source  *source.FileSource
	Cache   cache.Store
	Hub     *eventbus.Hub
	Metrics *observability.Metrics

	Services struct {
		Sync *service.SyncService
	}

	redis *redis.Client
}

// NewCore 构建核心依赖（不启动调度）
// CLI 为短生命周期进程且可能与 Agent 共用缓存库，直接读写后端存储
func NewCore(cfgPath string) (*Core, error) {
	return newCore(cfgPath, false)
}

// newCore lruFront 为 true 时在缓存后端前加进程内 LRU，仅供独占写缓存的 Agent 使用
func newCore(cfgPath string, lruFront bool) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logCloser, _ := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Component: filepath.Base(os.Args[0]),
	})

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}

	c := &Core{
		Cfg:       cfg,
		DB:        db,
		LogCloser: logCloser,
		Repos:     repository.NewRepos(db.DB),
		Source:    source.NewFileSource(cfg.Source.Dir),
		Hub:       eventbus.NewHub(),
		Metrics:   observability.NewMetrics(),
	}

	store, err := c.openCacheStore(lruFront)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Cache = store

	fallback := cache.NewFallback(store,
		cache.WithEligible(source.IsFallbackEligible),
		cache.WithFallbackHook(func(key cache.Key) {
			slog.Warn("拉取失败，使用缓存数据", "user", key.UserID, "type", key.Type)
		}),
	)

	ledger := service.NewXPLedger(service.DefaultXPPolicy{})
	tracker := service.NewChallengeTracker(service.NewChallengeGenerator(cfg.Challenge.Multiplier, ledger.Policy()))
	c.Services.Sync = service.NewSyncService(
		c.Source,
		fallback,
		service.NewGormTransactor(repository.NewUnitOfWork(db.DB)),
		service.NewRepoSet(c.Repos),
		service.WithLedger(ledger),
		service.WithTracker(tracker),
		service.WithNotificationSink(c.Hub),
		service.WithObserver(c.Metrics),
	)

	return c, nil
}

// openCacheStore 按配置选择缓存后端，lruFront 且 lru_size > 0 时加进程内前置
// LRU 只回读未命中的键，其他进程写入的新值不可见
func (c *Core) openCacheStore(lruFront bool) (cache.Store, error) {
	var backing cache.Store = c.Repos.Cache
	if c.Cfg.Cache.Backend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		client, err := cache.DialRedis(ctx, c.Cfg.Cache.RedisAddr, c.Cfg.Cache.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("连接 Redis 失败: %w", err)
		}
		c.redis = client
		backing = cache.NewRedisStore(client)
	}
	if !lruFront || c.Cfg.Cache.LRUSize <= 0 {
		return backing, nil
	}
	front, err := cache.NewLRUStore(backing, c.Cfg.Cache.LRUSize)
	if err != nil {
		return nil, err
	}
	return front, nil
}

// CacheTTL 缓存“新鲜”判定时长，仅用于展示
func (c *Core) CacheTTL() time.Duration {
	return time.Duration(c.Cfg.Cache.TTLMinutes) * time.Minute
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return dbErr
}

// RequireWritable 安全模式下拒绝写库命令
func (c *Core) RequireWritable() error {
	if c.DB != nil && c.DB.SafeMode {
		return fmt.Errorf("数据库处于安全模式: %s", c.DB.MigrationError)
	}
	return nil
}
