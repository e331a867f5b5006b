package schema

import (
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
)

// ActivitySnapshot 某用户某一天的累计计数器快照
// 唯一键 (user_id, date)；当天的行可原地覆盖，历史行不可变
type ActivitySnapshot struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         string `gorm:"size:100;not null;uniqueIndex:uniq_snapshot_user_date,priority:1" json:"user_id"`
	Date           string `gorm:"size:10;not null;uniqueIndex:uniq_snapshot_user_date,priority:2" json:"date"` // YYYY-MM-DD
	model.Counters `gorm:"embedded"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (ActivitySnapshot) TableName() string {
	return "activity_snapshots"
}
