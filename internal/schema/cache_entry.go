package schema

import "time"

// CacheEntry 外部拉取结果的最后一次成功副本
// 键 (cache_type, user_id)；成功拉取即覆盖，本系统不主动淘汰
type CacheEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CacheType string    `gorm:"size:50;not null;uniqueIndex:uniq_cache_key,priority:1" json:"cache_type"`
	UserID    string    `gorm:"size:100;not null;uniqueIndex:uniq_cache_key,priority:2" json:"user_id"`
	Data      string    `gorm:"type:text" json:"data"` // JSON
	CachedAt  time.Time `gorm:"not null" json:"cached_at"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}
