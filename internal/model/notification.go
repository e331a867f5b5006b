package model

// NotificationKind 通知类型
type NotificationKind string

const (
	NotifyXPGained           NotificationKind = "xp_gained"
	NotifyLevelChanged       NotificationKind = "level_changed"
	NotifyStreakMilestone    NotificationKind = "streak_milestone"
	NotifyChallengeCompleted NotificationKind = "challenge_completed"
	NotifyChallengeFailed    NotificationKind = "challenge_failed"
)

// Notification 一次同步周期内产生的离散通知
// 仅以下五种实现，消费方按 Kind() 穷举处理
type Notification interface {
	Kind() NotificationKind
	User() string
	notification()
}

// XPGained 获得经验
type XPGained struct {
	UserID string   `json:"user_id"`
	Amount int64    `json:"amount"`
	Source XPSource `json:"source"`
	Total  int64    `json:"total"`
}

// LevelChanged 等级变化，一次大额经验跨越多级时只产生一条
type LevelChanged struct {
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
}

// Delta 净变化
func (l LevelChanged) Delta() int {
	return l.NewLevel - l.OldLevel
}

// StreakMilestone 连续活跃达到里程碑
type StreakMilestone struct {
	UserID    string `json:"user_id"`
	Milestone int    `json:"milestone"`
	Current   int    `json:"current"`
}

// ChallengeCompleted 挑战完成
type ChallengeCompleted struct {
	UserID      string        `json:"user_id"`
	ChallengeID string        `json:"challenge_id"`
	Type        ChallengeType `json:"type"`
	Metric      Metric        `json:"metric"`
	RewardXP    int64         `json:"reward_xp"`
}

// ChallengeFailed 挑战过期失败
type ChallengeFailed struct {
	UserID       string        `json:"user_id"`
	ChallengeID  string        `json:"challenge_id"`
	Type         ChallengeType `json:"type"`
	Metric       Metric        `json:"metric"`
	CurrentValue int64         `json:"current_value"`
	TargetValue  int64         `json:"target_value"`
}

func (XPGained) Kind() NotificationKind           { return NotifyXPGained }
func (LevelChanged) Kind() NotificationKind       { return NotifyLevelChanged }
func (StreakMilestone) Kind() NotificationKind    { return NotifyStreakMilestone }
func (ChallengeCompleted) Kind() NotificationKind { return NotifyChallengeCompleted }
func (ChallengeFailed) Kind() NotificationKind    { return NotifyChallengeFailed }

func (n XPGained) User() string           { return n.UserID }
func (n LevelChanged) User() string       { return n.UserID }
func (n StreakMilestone) User() string    { return n.UserID }
func (n ChallengeCompleted) User() string { return n.UserID }
func (n ChallengeFailed) User() string    { return n.UserID }

func (XPGained) notification()           {}
func (LevelChanged) notification()       {}
func (StreakMilestone) notification()    {}
func (ChallengeCompleted) notification() {}
func (ChallengeFailed) notification()    {}
