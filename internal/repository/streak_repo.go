package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/GitQuest/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakRepository 连续活跃状态仓储
type StreakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Get 获取用户的连续活跃状态，不存在返回 nil
func (r *StreakRepository) Get(ctx context.Context, userID string) (*schema.StreakState, error) {
	var st schema.StreakState
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询连续活跃状态失败: %w", err)
	}
	return &st, nil
}

// Save 写入连续活跃状态
func (r *StreakRepository) Save(ctx context.Context, st *schema.StreakState) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(st).Error
	if err != nil {
		return fmt.Errorf("保存连续活跃状态失败: %w", err)
	}
	return nil
}
