package schema

import "time"

// StreakState 每个用户一行的连续活跃状态
// 不变量：LongestStreak >= CurrentStreak，且 LongestStreak 只增不减
type StreakState struct {
	UserID           string    `gorm:"primaryKey;size:100" json:"user_id"`
	CurrentStreak    int       `gorm:"default:0" json:"current_streak"`
	LongestStreak    int       `gorm:"default:0" json:"longest_streak"`
	LastActivityDate string    `gorm:"size:10" json:"last_activity_date,omitempty"` // YYYY-MM-DD
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StreakState) TableName() string {
	return "streak_states"
}
