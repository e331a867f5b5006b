package service

import (
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
)

// StreakView 连续活跃展示
type StreakView struct {
	Current          int    `json:"current"`
	Longest          int    `json:"longest"`
	LastActivityDate string `json:"last_activity_date,omitempty"`
}

// ChallengeView 挑战展示，Progress ∈ [0, 1]
type ChallengeView struct {
	ID           string                `json:"id"`
	Type         model.ChallengeType   `json:"type"`
	Metric       model.Metric          `json:"metric"`
	TargetValue  int64                 `json:"target_value"`
	CurrentValue int64                 `json:"current_value"`
	Progress     float64               `json:"progress"`
	RewardXP     int64                 `json:"reward_xp"`
	Status       model.ChallengeStatus `json:"status"`
	Expired      bool                  `json:"expired"`
	StartDate    time.Time             `json:"start_date"`
	EndDate      time.Time             `json:"end_date"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
}

// ProgressView 经验与等级展示
type ProgressView struct {
	TotalXP      int64      `json:"total_xp"`
	Level        int        `json:"level"`
	LevelFloorXP int64      `json:"level_floor_xp"`
	NextLevelXP  int64      `json:"next_level_xp"` // 满级为 -1
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// Dashboard 单个用户的读模型
type Dashboard struct {
	UserID     string          `json:"user_id"`
	AsOf       string          `json:"as_of"`
	Counters   model.Counters  `json:"counters"`
	Diff       model.StatsDiff `json:"diff"`
	Streak     StreakView      `json:"streak"`
	Challenges []ChallengeView `json:"challenges"`
	Progress   ProgressView    `json:"progress"`
	FromCache  bool            `json:"from_cache"`
	CachedAt   time.Time       `json:"cached_at,omitempty"`
}

// NewChallengeView 由持久化的挑战构造展示
// 已过截止时间但尚未被同步置为 failed 的挑战按 failed 展示，不写库
func NewChallengeView(c schema.Challenge, now time.Time) ChallengeView {
	v := ChallengeView{
		ID:           c.ID,
		Type:         c.Type,
		Metric:       c.TargetMetric,
		TargetValue:  c.TargetValue,
		CurrentValue: c.CurrentValue,
		Progress:     c.Progress(),
		RewardXP:     c.RewardXP,
		Status:       c.Status,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		CompletedAt:  c.CompletedAt,
	}
	if c.Status == model.ChallengeStatusActive && c.Expired(now) {
		v.Status = model.ChallengeStatusFailed
		v.Expired = true
	}
	return v
}

func newStreakView(st *schema.StreakState) StreakView {
	if st == nil {
		return StreakView{}
	}
	return StreakView{Current: st.CurrentStreak, Longest: st.LongestStreak, LastActivityDate: st.LastActivityDate}
}

func newProgressView(p *schema.UserProgress, policy XPPolicy) ProgressView {
	v := ProgressView{Level: policy.LevelFor(0)}
	if p != nil {
		v.TotalXP = p.TotalXP
		v.Level = p.Level
		v.LastSyncedAt = p.LastSyncedAt
	}
	v.LevelFloorXP, v.NextLevelXP = policy.LevelBounds(v.Level)
	return v
}
