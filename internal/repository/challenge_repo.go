package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
	"gorm.io/gorm"
)

// ChallengeRepository 挑战仓储
// 状态迁移均带 status='active' 条件，受影响行数为 0 说明已是终态
type ChallengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository 创建仓储
func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// Create 创建挑战
func (r *ChallengeRepository) Create(ctx context.Context, c *schema.Challenge) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("创建挑战失败: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取挑战
func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*schema.Challenge, error) {
	var c schema.Challenge
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询挑战失败: %w", err)
	}
	return &c, nil
}

// ListActive 获取用户全部进行中的挑战
func (r *ChallengeRepository) ListActive(ctx context.Context, userID string) ([]schema.Challenge, error) {
	var list []schema.Challenge
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.ChallengeStatusActive).
		Order("type ASC, target_metric ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("查询进行中挑战失败: %w", err)
	}
	return list, nil
}

// ListByUser 获取用户最近的挑战（含终态），limit<=0 表示不限
func (r *ChallengeRepository) ListByUser(ctx context.Context, userID string, limit int) ([]schema.Challenge, error) {
	var list []schema.Challenge
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("查询挑战失败: %w", err)
	}
	return list, nil
}

// LatestStartDate 获取某周期最近一次生成挑战的开始时间，从未生成返回 nil
func (r *ChallengeRepository) LatestStartDate(ctx context.Context, userID string, typ model.ChallengeType) (*time.Time, error) {
	var c schema.Challenge
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, typ).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询最近挑战失败: %w", err)
	}
	start := c.StartDate
	return &start, nil
}

// UpdateProgress 更新进行中挑战的当前值
func (r *ChallengeRepository) UpdateProgress(ctx context.Context, id string, current int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&schema.Challenge{}).
		Where("id = ? AND status = ?", id, model.ChallengeStatusActive).
		Update("current_value", current)
	if res.Error != nil {
		return false, fmt.Errorf("更新挑战进度失败: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkCompleted active -> completed，返回 true 表示本次调用完成了迁移
func (r *ChallengeRepository) MarkCompleted(ctx context.Context, id string, current int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&schema.Challenge{}).
		Where("id = ? AND status = ?", id, model.ChallengeStatusActive).
		Updates(map[string]interface{}{
			"status":        model.ChallengeStatusCompleted,
			"current_value": current,
			"completed_at":  at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("标记挑战完成失败: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkFailed active -> failed
func (r *ChallengeRepository) MarkFailed(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&schema.Challenge{}).
		Where("id = ? AND status = ?", id, model.ChallengeStatusActive).
		Update("status", model.ChallengeStatusFailed)
	if res.Error != nil {
		return false, fmt.Errorf("标记挑战失败状态失败: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// CountByStatus 按状态统计用户挑战数量
func (r *ChallengeRepository) CountByStatus(ctx context.Context, userID string) (map[model.ChallengeStatus]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&schema.Challenge{}).
		Select("status, COUNT(*) as n").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("统计挑战失败: %w", err)
	}
	out := make(map[model.ChallengeStatus]int64, len(rows))
	for _, r := range rows {
		st, err := model.ParseChallengeStatus(r.Status)
		if err != nil {
			continue
		}
		out[st] = r.N
	}
	return out, nil
}
