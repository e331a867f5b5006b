package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
)

// ChallengeTracker 挑战状态机：active -> completed | failed
// 所有迁移都依赖仓储的 status='active' 条件更新，重复调用是空操作
type ChallengeTracker struct {
	generator *ChallengeGenerator
	newID     func() string
}

// NewChallengeTracker 创建挑战追踪器
func NewChallengeTracker(generator *ChallengeGenerator) *ChallengeTracker {
	if generator == nil {
		generator = NewChallengeGenerator(0, nil)
	}
	return &ChallengeTracker{generator: generator, newID: uuid.NewString}
}

// TrackResult 一次对账的挑战变化
type TrackResult struct {
	Failed    []model.ChallengeFailed
	Completed []model.ChallengeCompleted
	Created   []schema.Challenge
}

// Reconcile 依次执行过期 -> 进度 -> 创建
func (t *ChallengeTracker) Reconcile(ctx context.Context, repos RepoSet, userID string, live model.MetricStats, now time.Time) (TrackResult, error) {
	var res TrackResult
	var err error
	if res.Failed, err = t.FailExpired(ctx, repos.Challenges, userID, now); err != nil {
		return res, err
	}
	if res.Completed, err = t.UpdateProgress(ctx, repos.Challenges, userID, live, now); err != nil {
		return res, err
	}
	if res.Created, err = t.CreateMissing(ctx, repos, userID, live, now); err != nil {
		return res, err
	}
	return res, nil
}

// FailExpired 截止时间已过且仍为 active 的挑战置为 failed，不发经验
func (t *ChallengeTracker) FailExpired(ctx context.Context, repo ChallengeRepository, userID string, now time.Time) ([]model.ChallengeFailed, error) {
	active, err := repo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []model.ChallengeFailed
	for i := range active {
		c := &active[i]
		if !c.Expired(now) {
			continue
		}
		ok, err := repo.MarkFailed(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, model.ChallengeFailed{
			UserID:       userID,
			ChallengeID:  c.ID,
			Type:         c.Type,
			Metric:       c.TargetMetric,
			CurrentValue: c.CurrentValue,
			TargetValue:  c.TargetValue,
		})
	}
	return out, nil
}

// UpdateProgress current = clamp(live - start, 0, target)；达标即完成
// 返回本次调用真正完成迁移的挑战，奖励由调用方按此发放
func (t *ChallengeTracker) UpdateProgress(ctx context.Context, repo ChallengeRepository, userID string, live model.MetricStats, now time.Time) ([]model.ChallengeCompleted, error) {
	active, err := repo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []model.ChallengeCompleted
	for i := range active {
		c := &active[i]
		current := clamp(live.Get(c.TargetMetric)-c.StartStats.Get(c.TargetMetric), 0, c.TargetValue)

		if current >= c.TargetValue {
			ok, err := repo.MarkCompleted(ctx, c.ID, current, now)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, model.ChallengeCompleted{
					UserID:      userID,
					ChallengeID: c.ID,
					Type:        c.Type,
					Metric:      c.TargetMetric,
					RewardXP:    c.RewardXP,
				})
			}
			continue
		}
		if current == c.CurrentValue {
			continue
		}
		if _, err := repo.UpdateProgress(ctx, c.ID, current); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CreateMissing 对需要生成的周期，为缺少 active 挑战的指标各建一个
func (t *ChallengeTracker) CreateMissing(ctx context.Context, repos RepoSet, userID string, live model.MetricStats, now time.Time) ([]schema.Challenge, error) {
	active, err := repos.Challenges.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	taken := make(map[model.ChallengeType]map[model.Metric]bool, len(model.ChallengeTypes))
	for _, c := range active {
		if taken[c.Type] == nil {
			taken[c.Type] = make(map[model.Metric]bool)
		}
		taken[c.Type][c.TargetMetric] = true
	}

	var history []model.MetricStats
	historyLoaded := false
	var created []schema.Challenge

	for _, typ := range model.ChallengeTypes {
		last, err := repos.Challenges.LatestStartDate(ctx, userID, typ)
		if err != nil {
			return nil, err
		}
		if !ShouldGenerate(typ, last, now) {
			continue
		}
		if !historyLoaded {
			if history, err = BuildWeeklyHistory(ctx, repos.Snapshots, userID, now, HistoryWeeks); err != nil {
				return nil, err
			}
			historyLoaded = true
		}

		start, end := CalculateChallengePeriod(typ, now)
		for _, tpl := range t.generator.Generate(typ, history) {
			if taken[typ][tpl.Metric] {
				continue
			}
			c := schema.Challenge{
				ID:           t.newID(),
				UserID:       userID,
				Type:         typ,
				TargetMetric: tpl.Metric,
				TargetValue:  tpl.TargetValue,
				RewardXP:     tpl.RewardXP,
				StartDate:    start,
				EndDate:      end,
				Status:       model.ChallengeStatusActive,
				StartStats:   live,
			}
			if err := repos.Challenges.Create(ctx, &c); err != nil {
				return nil, fmt.Errorf("创建 %s/%s 挑战失败: %w", typ, tpl.Metric, err)
			}
			created = append(created, c)
		}
	}
	if len(created) > 0 {
		slog.Debug("生成新挑战", "user", userID, "count", len(created))
	}
	return created, nil
}
