package service

import (
	"context"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
)

// 仓储/外部依赖的最小接口集合（ISP）

type SnapshotRepository interface {
	Upsert(ctx context.Context, snap *schema.ActivitySnapshot, today string) error
	GetByDate(ctx context.Context, userID, date string) (*schema.ActivitySnapshot, error)
	GetLatestBefore(ctx context.Context, userID, date string) (*schema.ActivitySnapshot, error)
	GetLatestOnOrBefore(ctx context.Context, userID, date string) (*schema.ActivitySnapshot, error)
	ListRecent(ctx context.Context, userID, date string, days int) ([]schema.ActivitySnapshot, error)
}

type StreakRepository interface {
	Get(ctx context.Context, userID string) (*schema.StreakState, error)
	Save(ctx context.Context, st *schema.StreakState) error
}

type ChallengeRepository interface {
	Create(ctx context.Context, c *schema.Challenge) error
	ListActive(ctx context.Context, userID string) ([]schema.Challenge, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]schema.Challenge, error)
	LatestStartDate(ctx context.Context, userID string, typ model.ChallengeType) (*time.Time, error)
	UpdateProgress(ctx context.Context, id string, current int64) (bool, error)
	MarkCompleted(ctx context.Context, id string, current int64, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id string) (bool, error)
}

type XPRepository interface {
	Append(ctx context.Context, e *schema.XPEntry) error
	SumByDaySource(ctx context.Context, userID, day string, source model.XPSource) (int64, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]schema.XPEntry, error)
	GetProgress(ctx context.Context, userID string) (*schema.UserProgress, error)
	SaveProgress(ctx context.Context, p *schema.UserProgress) error
}

// RepoSet 绑定到同一连接或同一事务的仓储
type RepoSet struct {
	Snapshots  SnapshotRepository
	Streaks    StreakRepository
	Challenges ChallengeRepository
	XP         XPRepository
}

// Transactor 在单个事务中执行一次同步的全部写入
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repos RepoSet) error) error
}

// NotificationSink 同步提交后接收通知（如 eventbus.Hub）
type NotificationSink interface {
	PublishNotifications(ns []model.Notification)
}

// SyncObserver 同步指标
type SyncObserver interface {
	ObserveCycle(outcome SyncOutcome, d time.Duration)
	CacheFallback()
	XPAwarded(source model.XPSource, amount int64)
}

type nopObserver struct{}

func (nopObserver) ObserveCycle(SyncOutcome, time.Duration) {}
func (nopObserver) CacheFallback()                          {}
func (nopObserver) XPAwarded(model.XPSource, int64)         {}
