package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPRepository 经验流水与汇总仓储
type XPRepository struct {
	db *gorm.DB
}

// NewXPRepository 创建仓储
func NewXPRepository(db *gorm.DB) *XPRepository {
	return &XPRepository{db: db}
}

// Append 追加一条经验流水
func (r *XPRepository) Append(ctx context.Context, e *schema.XPEntry) error {
	if e.Amount < 0 {
		return fmt.Errorf("经验流水不能为负: %d", e.Amount)
	}
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("写入经验流水失败: %w", err)
	}
	return nil
}

// SumByDaySource 某天某来源已发放的经验总和
func (r *XPRepository) SumByDaySource(ctx context.Context, userID, day string, source model.XPSource) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&schema.XPEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND day = ? AND source = ?", userID, day, source).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("统计经验流水失败: %w", err)
	}
	return sum, nil
}

// ListRecent 获取最近的经验流水
func (r *XPRepository) ListRecent(ctx context.Context, userID string, limit int) ([]schema.XPEntry, error) {
	var list []schema.XPEntry
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("查询经验流水失败: %w", err)
	}
	return list, nil
}

// GetProgress 获取用户经验汇总，不存在返回 nil
func (r *XPRepository) GetProgress(ctx context.Context, userID string) (*schema.UserProgress, error) {
	var p schema.UserProgress
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询经验汇总失败: %w", err)
	}
	return &p, nil
}

// SaveProgress 写入经验汇总
func (r *XPRepository) SaveProgress(ctx context.Context, p *schema.UserProgress) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("保存经验汇总失败: %w", err)
	}
	return nil
}
