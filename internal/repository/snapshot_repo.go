package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/GitQuest/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository 每日累计快照仓储
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建仓储
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// ErrPastSnapshot 早于 today 的快照已存在时拒绝覆盖
var ErrPastSnapshot = errors.New("历史快照不可覆盖")

// Upsert 插入或覆盖 (user_id, date) 对应的快照
// 只有 date >= today 的行可以被覆盖；更早的日期仅在不存在时插入
func (r *SnapshotRepository) Upsert(ctx context.Context, snap *schema.ActivitySnapshot, today string) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"commits", "prs", "reviews", "issues", "stars", "contributions", "updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "excluded.date >= ?", Vars: []interface{}{today}},
		}},
	}).Create(snap)
	if res.Error != nil {
		return fmt.Errorf("写入快照失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("写入快照 %s 失败: %w", snap.Date, ErrPastSnapshot)
	}
	return nil
}

// GetByDate 获取某天的快照
func (r *SnapshotRepository) GetByDate(ctx context.Context, userID, date string) (*schema.ActivitySnapshot, error) {
	var snap schema.ActivitySnapshot
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询快照失败: %w", err)
	}
	return &snap, nil
}

// GetLatestBefore 获取严格早于 date 的最近一条快照
func (r *SnapshotRepository) GetLatestBefore(ctx context.Context, userID, date string) (*schema.ActivitySnapshot, error) {
	return r.latest(ctx, "user_id = ? AND date < ?", userID, date)
}

// GetLatestOnOrBefore 获取不晚于 date 的最近一条快照
func (r *SnapshotRepository) GetLatestOnOrBefore(ctx context.Context, userID, date string) (*schema.ActivitySnapshot, error) {
	return r.latest(ctx, "user_id = ? AND date <= ?", userID, date)
}

func (r *SnapshotRepository) latest(ctx context.Context, cond string, userID, date string) (*schema.ActivitySnapshot, error) {
	var snap schema.ActivitySnapshot
	err := r.db.WithContext(ctx).
		Where(cond, userID, date).
		Order("date DESC").
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询快照失败: %w", err)
	}
	return &snap, nil
}

// ListBetween 获取 [from, to] 区间内的快照（按日期升序）
func (r *SnapshotRepository) ListBetween(ctx context.Context, userID, from, to string) ([]schema.ActivitySnapshot, error) {
	var snaps []schema.ActivitySnapshot
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("查询快照失败: %w", err)
	}
	return snaps, nil
}

// ListRecent 获取以 date 结尾的最近 days 天快照
func (r *SnapshotRepository) ListRecent(ctx context.Context, userID, date string, days int) ([]schema.ActivitySnapshot, error) {
	from, to, err := DayWindow(date, days)
	if err != nil {
		return nil, err
	}
	return r.ListBetween(ctx, userID, from, to)
}
