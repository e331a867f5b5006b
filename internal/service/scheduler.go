package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Syncer 执行单个用户的同步
type Syncer interface {
	Sync(ctx context.Context, userID string) (*SyncResult, error)
}

// SchedulerConfig 调度配置
type SchedulerConfig struct {
	Users      []string
	Interval   time.Duration
	RatePerMin float64 // 每用户每分钟允许的同步次数
	Burst      int
}

// Scheduler 定时/文件/接口三类触发的统一入口，每个用户独立限流
type Scheduler struct {
	syncer   Syncer
	users    []string
	interval time.Duration
	limit    rate.Limit
	burst    int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	triggers chan string
	wg       sync.WaitGroup
}

// NewScheduler 创建调度器
func NewScheduler(syncer Syncer, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.RatePerMin <= 0 {
		cfg.RatePerMin = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Scheduler{
		syncer:   syncer,
		users:    cfg.Users,
		interval: cfg.Interval,
		limit:    rate.Limit(cfg.RatePerMin / 60),
		burst:    cfg.Burst,
		limiters: make(map[string]*rate.Limiter),
		triggers: make(chan string, 64),
	}
}

func (s *Scheduler) limiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[userID]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[userID] = l
	}
	return l
}

// Allow 消耗一次该用户的同步配额
func (s *Scheduler) Allow(userID string) bool {
	return s.limiter(userID).Allow()
}

// SyncNow 受限流约束的同步，超限返回 ErrThrottled
func (s *Scheduler) SyncNow(ctx context.Context, userID string) (*SyncResult, error) {
	if !s.Allow(userID) {
		return nil, ErrThrottled
	}
	return s.syncer.Sync(ctx, userID)
}

// Trigger 异步触发同步，队列满时丢弃
func (s *Scheduler) Trigger(userID string) bool {
	select {
	case s.triggers <- userID:
		return true
	default:
		slog.Warn("同步触发队列已满，丢弃", "user", userID)
		return false
	}
}

// Run 阻塞运行直到 ctx 结束；启动时先同步一轮
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.wg.Wait()

	s.syncAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncAll(ctx)
		case userID := <-s.triggers:
			s.dispatch(ctx, userID, "trigger")
		}
	}
}

func (s *Scheduler) syncAll(ctx context.Context) {
	for _, userID := range s.users {
		s.dispatch(ctx, userID, "timer")
	}
}

func (s *Scheduler) dispatch(ctx context.Context, userID, reason string) {
	if !s.Allow(userID) {
		slog.Debug("同步被限流", "user", userID, "reason", reason)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res, err := s.syncer.Sync(ctx, userID)
		if err != nil {
			slog.Warn("后台同步失败", "user", userID, "reason", reason, "error", err)
			return
		}
		slog.Info("后台同步结束", "user", userID, "reason", reason, "outcome", res.Outcome)
	}()
}
