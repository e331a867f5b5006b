package service

import (
	"context"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
)

// XPLedger 经验账本：只追加流水，汇总只增不减
type XPLedger struct {
	policy XPPolicy
}

// NewXPLedger 创建经验账本
func NewXPLedger(policy XPPolicy) *XPLedger {
	if policy == nil {
		policy = DefaultXPPolicy{}
	}
	return &XPLedger{policy: policy}
}

// Policy 当前策略
func (l *XPLedger) Policy() XPPolicy {
	return l.policy
}

// XPGrant 一次经验发放
type XPGrant struct {
	Source    model.XPSource
	Reference string // 挑战 ID 或日期
	Day       string
	Amount    int64
}

// AddXP 追加经验并重算等级；等级变化时只产生一条 LevelChanged
func (l *XPLedger) AddXP(ctx context.Context, repo XPRepository, userID string, g XPGrant) ([]model.Notification, error) {
	if g.Amount < 0 {
		return nil, ErrNegativeXP
	}
	if g.Amount == 0 {
		return nil, nil
	}

	progress, err := l.loadProgress(ctx, repo, userID)
	if err != nil {
		return nil, err
	}

	if err := repo.Append(ctx, &schema.XPEntry{
		UserID:    userID,
		Amount:    g.Amount,
		Source:    g.Source,
		Reference: g.Reference,
		Day:       g.Day,
	}); err != nil {
		return nil, err
	}

	oldLevel := progress.Level
	progress.TotalXP += g.Amount
	progress.Level = l.policy.LevelFor(progress.TotalXP)
	if err := repo.SaveProgress(ctx, progress); err != nil {
		return nil, err
	}

	ns := []model.Notification{model.XPGained{
		UserID: userID,
		Amount: g.Amount,
		Source: g.Source,
		Total:  progress.TotalXP,
	}}
	if progress.Level != oldLevel {
		ns = append(ns, model.LevelChanged{UserID: userID, OldLevel: oldLevel, NewLevel: progress.Level})
	}
	return ns, nil
}

// AwardActivity 按当天差值发放活动经验，同一天多次调用只补发差额
func (l *XPLedger) AwardActivity(ctx context.Context, repo XPRepository, userID, day string, diff model.StatsDiff) ([]model.Notification, int64, error) {
	target := l.policy.ActivityXP(diff)
	already, err := repo.SumByDaySource(ctx, userID, day, model.XPSourceActivity)
	if err != nil {
		return nil, 0, err
	}
	delta := target - already
	if delta <= 0 {
		return nil, 0, nil
	}
	ns, err := l.AddXP(ctx, repo, userID, XPGrant{
		Source:    model.XPSourceActivity,
		Reference: day,
		Day:       day,
		Amount:    delta,
	})
	if err != nil {
		return nil, 0, err
	}
	return ns, delta, nil
}

// MarkSynced 记录最后一次成功同步时间
func (l *XPLedger) MarkSynced(ctx context.Context, repo XPRepository, userID string, at time.Time) error {
	progress, err := l.loadProgress(ctx, repo, userID)
	if err != nil {
		return err
	}
	progress.LastSyncedAt = &at
	return repo.SaveProgress(ctx, progress)
}

func (l *XPLedger) loadProgress(ctx context.Context, repo XPRepository, userID string) (*schema.UserProgress, error) {
	p, err := repo.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &schema.UserProgress{UserID: userID, Level: l.policy.LevelFor(0)}
	}
	return p, nil
}

// coalesceLevelChanges 同一周期内多次升级合并为一条（首个 old -> 最后 new）
func coalesceLevelChanges(ns []model.Notification) []model.Notification {
	var first, last *model.LevelChanged
	out := make([]model.Notification, 0, len(ns))
	for _, n := range ns {
		lc, ok := n.(model.LevelChanged)
		if !ok {
			out = append(out, n)
			continue
		}
		if first == nil {
			f := lc
			first = &f
		}
		l := lc
		last = &l
	}
	if first != nil && last.NewLevel != first.OldLevel {
		out = append(out, model.LevelChanged{UserID: first.UserID, OldLevel: first.OldLevel, NewLevel: last.NewLevel})
	}
	return out
}
