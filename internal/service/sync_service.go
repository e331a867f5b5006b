package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuqie6/GitQuest/internal/cache"
	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
	"github.com/yuqie6/GitQuest/internal/source"
	"golang.org/x/sync/singleflight"
)

// ActivityCacheType 活动数据的缓存类型
const ActivityCacheType = "activity"

// SyncOutcome 一次同步的对外结论
type SyncOutcome string

const (
	OutcomeFresh       SyncOutcome = "fresh"       // 拉取成功并已提交
	OutcomeCached      SyncOutcome = "cached"      // 拉取失败，展示缓存，不写入
	OutcomeUnavailable SyncOutcome = "unavailable" // 拉取失败且无缓存
	OutcomeFailed      SyncOutcome = "failed"      // 身份错误或写入失败
)

// SyncResult 一次同步的结果，Notifications 只在提交后返回
type SyncResult struct {
	UserID        string               `json:"user_id"`
	Outcome       SyncOutcome          `json:"outcome"`
	CachedAt      time.Time            `json:"cached_at,omitempty"`
	Dashboard     *Dashboard           `json:"dashboard,omitempty"`
	Notifications []model.Notification `json:"-"`
	XPAwarded     int64                `json:"xp_awarded"`
}

// Message 面向用户的一句话结论，不暴露底层错误
func (r *SyncResult) Message() string {
	switch r.Outcome {
	case OutcomeFresh:
		return "同步完成"
	case OutcomeCached:
		return fmt.Sprintf("正在显示缓存数据（更新于 %s）", r.CachedAt.Local().Format("2006-01-02 15:04"))
	default:
		return ErrNoData.Error()
	}
}

// SyncService 同步编排：拉取 -> 差值/连续活跃 -> 挑战 -> 经验 -> 单事务提交
type SyncService struct {
	source   source.ActivitySource
	fallback *cache.Fallback
	tx       Transactor
	reader   RepoSet
	tracker  *ChallengeTracker
	ledger   *XPLedger
	sink     NotificationSink
	observer SyncObserver
	now      func() time.Time
	group    singleflight.Group
}

// SyncOption 可选配置
type SyncOption func(*SyncService)

func WithTracker(t *ChallengeTracker) SyncOption {
	return func(s *SyncService) { s.tracker = t }
}

func WithLedger(l *XPLedger) SyncOption {
	return func(s *SyncService) { s.ledger = l }
}

func WithNotificationSink(sink NotificationSink) SyncOption {
	return func(s *SyncService) { s.sink = sink }
}

func WithObserver(o SyncObserver) SyncOption {
	return func(s *SyncService) { s.observer = o }
}

func WithClock(now func() time.Time) SyncOption {
	return func(s *SyncService) { s.now = now }
}

// NewSyncService 创建同步服务
func NewSyncService(src source.ActivitySource, fallback *cache.Fallback, tx Transactor, reader RepoSet, opts ...SyncOption) *SyncService {
	s := &SyncService{
		source:   src,
		fallback: fallback,
		tx:       tx,
		reader:   reader,
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ledger == nil {
		s.ledger = NewXPLedger(nil)
	}
	if s.tracker == nil {
		s.tracker = NewChallengeTracker(NewChallengeGenerator(0, s.ledger.Policy()))
	}
	return s
}

// Sync 为用户执行一次同步；同一用户同时只有一个周期在运行，后到者等待其结果
// 共享周期因发起者取消而中止时，自身 ctx 仍有效的等待者重新发起一轮
func (s *SyncService) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	for {
		ch := s.group.DoChan(userID, func() (interface{}, error) {
			return s.runCycle(ctx, userID)
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				if isContextErr(res.Err) && ctx.Err() == nil {
					slog.Debug("共享同步被发起方取消，重新发起", "user", userID)
					continue
				}
				return nil, res.Err
			}
			return res.Val.(*SyncResult), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s *SyncService) runCycle(ctx context.Context, userID string) (*SyncResult, error) {
	started := s.now()
	result, err := s.cycle(ctx, userID)
	outcome := OutcomeFailed
	if result != nil {
		outcome = result.Outcome
	}
	s.observer.ObserveCycle(outcome, s.now().Sub(started))
	if err != nil {
		slog.Warn("同步失败", "user", userID, "error", err)
	}
	return result, err
}

func (s *SyncService) cycle(ctx context.Context, userID string) (*SyncResult, error) {
	key := cache.Key{Type: ActivityCacheType, UserID: userID}
	env, err := cache.Fetch(ctx, s.fallback, key, func(ctx context.Context) (source.Activity, error) {
		return s.source.FetchActivity(ctx, userID)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if source.IsAuth(err) {
			return nil, err
		}
		slog.Info("拉取失败且无缓存", "user", userID, "error", err)
		return &SyncResult{UserID: userID, Outcome: OutcomeUnavailable}, nil
	}

	// 拉取成功后不再响应取消，保证写入完整
	ctx = context.WithoutCancel(ctx)
	now := s.now()

	if env.FromCache {
		s.observer.CacheFallback()
		dash, err := s.cachedDashboard(ctx, userID, env.Data, now)
		if err != nil {
			return nil, err
		}
		dash.FromCache = true
		dash.CachedAt = env.CachedAt
		return &SyncResult{UserID: userID, Outcome: OutcomeCached, CachedAt: env.CachedAt, Dashboard: dash}, nil
	}

	var (
		notifications []model.Notification
		xpAwarded     = map[model.XPSource]int64{}
	)
	err = s.tx.InTx(ctx, func(ctx context.Context, repos RepoSet) error {
		ns, awarded, err := s.apply(ctx, repos, userID, env.Data, now)
		notifications, xpAwarded = ns, awarded
		return err
	})
	if err != nil {
		return nil, &PersistenceError{UserID: userID, Err: err}
	}

	notifications = coalesceLevelChanges(notifications)
	var total int64
	for src, amount := range xpAwarded {
		s.observer.XPAwarded(src, amount)
		total += amount
	}
	if s.sink != nil && len(notifications) > 0 {
		s.sink.PublishNotifications(notifications)
	}

	dash, err := s.Dashboard(ctx, userID)
	if err != nil {
		return nil, err
	}
	dash.CachedAt = env.CachedAt
	slog.Info("同步完成", "user", userID, "xp", total, "notifications", len(notifications))
	return &SyncResult{
		UserID:        userID,
		Outcome:       OutcomeFresh,
		CachedAt:      env.CachedAt,
		Dashboard:     dash,
		Notifications: notifications,
		XPAwarded:     total,
	}, nil
}

// apply 一个周期内的全部写入，顺序：差值 -> 连续活跃 -> 挑战 -> 经验 -> 快照
func (s *SyncService) apply(ctx context.Context, repos RepoSet, userID string, act source.Activity, now time.Time) ([]model.Notification, map[model.XPSource]int64, error) {
	today := model.DayKey(now)
	var ns []model.Notification
	awarded := map[model.XPSource]int64{}

	prev, err := repos.Snapshots.GetLatestBefore(ctx, userID, today)
	if err != nil {
		return nil, nil, err
	}
	diff := ComputeDiff(act.Counters, prev)

	prevStreak, err := repos.Streaks.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	streak := CalculateStreak(act.Calendar, now, prevStreak)
	if streak.Invalid > 0 {
		slog.Warn("日历中存在无效条目", "user", userID, "count", streak.Invalid)
	}
	prevCurrent := 0
	if prevStreak != nil {
		prevCurrent = prevStreak.CurrentStreak
	}
	if err := repos.Streaks.Save(ctx, &schema.StreakState{
		UserID:           userID,
		CurrentStreak:    streak.Current,
		LongestStreak:    streak.Longest,
		LastActivityDate: streak.LastActivityDate,
	}); err != nil {
		return nil, nil, err
	}
	for _, m := range CrossedMilestones(prevCurrent, streak.Current) {
		ns = append(ns, model.StreakMilestone{UserID: userID, Milestone: m, Current: streak.Current})
	}

	live := act.Counters.Stats()
	track, err := s.tracker.Reconcile(ctx, repos, userID, live, now)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range track.Failed {
		ns = append(ns, f)
	}

	xpNs, amount, err := s.ledger.AwardActivity(ctx, repos.XP, userID, today, diff)
	if err != nil {
		return nil, nil, err
	}
	ns = append(ns, xpNs...)
	awarded[model.XPSourceActivity] += amount

	for _, c := range track.Completed {
		ns = append(ns, c)
		rewardNs, err := s.ledger.AddXP(ctx, repos.XP, userID, XPGrant{
			Source:    model.XPSourceChallenge,
			Reference: c.ChallengeID,
			Day:       today,
			Amount:    c.RewardXP,
		})
		if err != nil {
			return nil, nil, err
		}
		ns = append(ns, rewardNs...)
		awarded[model.XPSourceChallenge] += c.RewardXP
	}

	if err := repos.Snapshots.Upsert(ctx, &schema.ActivitySnapshot{
		UserID:   userID,
		Date:     today,
		Counters: act.Counters,
	}, today); err != nil {
		return nil, nil, err
	}
	if err := s.ledger.MarkSynced(ctx, repos.XP, userID, now); err != nil {
		return nil, nil, err
	}
	return ns, awarded, nil
}

// Dashboard 读取已提交的状态
func (s *SyncService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	today := model.DayKey(s.now())
	snap, err := s.reader.Snapshots.GetLatestOnOrBefore(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNoData
	}
	prev, err := s.reader.Snapshots.GetLatestBefore(ctx, userID, snap.Date)
	if err != nil {
		return nil, err
	}
	dash := &Dashboard{
		UserID:   userID,
		AsOf:     snap.Date,
		Counters: snap.Counters,
		Diff:     ComputeDiff(snap.Counters, prev),
	}
	if err := s.fillState(ctx, dash, userID); err != nil {
		return nil, err
	}
	return dash, nil
}

// cachedDashboard 用缓存的活动数据拼出读模型，不做任何写入
func (s *SyncService) cachedDashboard(ctx context.Context, userID string, act source.Activity, now time.Time) (*Dashboard, error) {
	today := model.DayKey(now)
	prev, err := s.reader.Snapshots.GetLatestBefore(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	dash := &Dashboard{
		UserID:   userID,
		AsOf:     model.DayKey(act.FetchedAt),
		Counters: act.Counters,
		Diff:     ComputeDiff(act.Counters, prev),
	}
	if err := s.fillState(ctx, dash, userID); err != nil {
		return nil, err
	}
	prevStreak, err := s.reader.Streaks.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := CalculateStreak(act.Calendar, now, prevStreak)
	dash.Streak = StreakView{Current: st.Current, Longest: st.Longest, LastActivityDate: st.LastActivityDate}
	return dash, nil
}

func (s *SyncService) fillState(ctx context.Context, dash *Dashboard, userID string) error {
	st, err := s.reader.Streaks.Get(ctx, userID)
	if err != nil {
		return err
	}
	dash.Streak = newStreakView(st)

	active, err := s.reader.Challenges.ListActive(ctx, userID)
	if err != nil {
		return err
	}
	now := s.now()
	dash.Challenges = make([]ChallengeView, 0, len(active))
	for _, c := range active {
		dash.Challenges = append(dash.Challenges, NewChallengeView(c, now))
	}

	p, err := s.reader.XP.GetProgress(ctx, userID)
	if err != nil {
		return err
	}
	dash.Progress = newProgressView(p, s.ledger.Policy())
	return nil
}

// Challenges 用户最近的挑战（含终态）
func (s *SyncService) Challenges(ctx context.Context, userID string, limit int) ([]ChallengeView, error) {
	list, err := s.reader.Challenges.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]ChallengeView, 0, len(list))
	for _, c := range list {
		out = append(out, NewChallengeView(c, now))
	}
	return out, nil
}

// Snapshots 最近 days 天的快照
func (s *SyncService) Snapshots(ctx context.Context, userID string, days int) ([]schema.ActivitySnapshot, error) {
	return s.reader.Snapshots.ListRecent(ctx, userID, model.DayKey(s.now()), days)
}

// XPHistory 最近的经验流水
func (s *SyncService) XPHistory(ctx context.Context, userID string, limit int) ([]schema.XPEntry, error) {
	return s.reader.XP.ListRecent(ctx, userID, limit)
}
