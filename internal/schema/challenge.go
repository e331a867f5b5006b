package schema

import (
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
)

// Challenge 限时挑战实例
// 只由 ChallengeTracker 修改；completed/failed 为终态
type Challenge struct {
	ID           string                `gorm:"primaryKey;size:36" json:"id"`
	UserID       string                `gorm:"size:100;not null;index:idx_challenge_user_status,priority:1" json:"user_id"`
	Type         model.ChallengeType   `gorm:"size:10;not null" json:"type"`
	TargetMetric model.Metric          `gorm:"size:20;not null" json:"target_metric"`
	TargetValue  int64                 `gorm:"not null" json:"target_value"`
	CurrentValue int64                 `gorm:"default:0" json:"current_value"`
	RewardXP     int64                 `gorm:"default:0" json:"reward_xp"`
	StartDate    time.Time             `gorm:"not null" json:"start_date"`
	EndDate      time.Time             `gorm:"not null;index" json:"end_date"`
	Status       model.ChallengeStatus `gorm:"size:12;not null;index:idx_challenge_user_status,priority:2" json:"status"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	StartStats   model.MetricStats     `gorm:"type:text" json:"start_stats"` // 创建时四项指标的起点
	CreatedAt    time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// Progress 完成比例 [0, 1]
func (c *Challenge) Progress() float64 {
	if c.TargetValue <= 0 {
		return 0
	}
	p := float64(c.CurrentValue) / float64(c.TargetValue)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// Expired 截止时间已过
func (c *Challenge) Expired(now time.Time) bool {
	return c.EndDate.Before(now)
}
