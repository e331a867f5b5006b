package schema

import (
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
)

// XPEntry 经验流水，只追加
type XPEntry struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string         `gorm:"size:100;not null;index:idx_xp_user_day,priority:1" json:"user_id"`
	Amount    int64          `gorm:"not null" json:"amount"`
	Source    model.XPSource `gorm:"size:20;not null" json:"source"`
	Reference string         `gorm:"size:64" json:"reference,omitempty"` // 挑战 ID 或日期
	Day       string         `gorm:"size:10;index:idx_xp_user_day,priority:2" json:"day"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (XPEntry) TableName() string {
	return "xp_history"
}

// UserProgress 用户经验汇总
type UserProgress struct {
	UserID       string     `gorm:"primaryKey;size:100" json:"user_id"`
	TotalXP      int64      `gorm:"default:0" json:"total_xp"`
	Level        int        `gorm:"default:1" json:"level"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
