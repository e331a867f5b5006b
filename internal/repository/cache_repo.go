package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/GitQuest/internal/cache"
	"github.com/yuqie6/GitQuest/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheRepository 以 cache_entries 表实现 cache.Store
type CacheRepository struct {
	db *gorm.DB
}

// NewCacheRepository 创建仓储
func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

var _ cache.Store = (*CacheRepository)(nil)

// Get 读取缓存条目
func (r *CacheRepository) Get(ctx context.Context, key cache.Key) (*cache.Entry, error) {
	var row schema.CacheEntry
	err := r.db.WithContext(ctx).
		Where("cache_type = ? AND user_id = ?", key.Type, key.UserID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询缓存失败: %w", err)
	}
	return &cache.Entry{Key: key, Data: []byte(row.Data), CachedAt: row.CachedAt}, nil
}

// Put 覆盖写入缓存条目
func (r *CacheRepository) Put(ctx context.Context, entry cache.Entry) error {
	row := &schema.CacheEntry{
		CacheType: entry.Key.Type,
		UserID:    entry.Key.UserID,
		Data:      string(entry.Data),
		CachedAt:  entry.CachedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_type"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "cached_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("写入缓存失败: %w", err)
	}
	return nil
}
