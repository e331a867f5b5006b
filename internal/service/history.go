package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
)

// BuildWeeklyHistory 由快照推出本周之前 weeks 个完整自然周的每周合计
// 周合计 = 周日及以前最近快照 - 周一之前最近快照；缺少任一端点的周跳过
func BuildWeeklyHistory(ctx context.Context, snaps SnapshotRepository, userID string, now time.Time, weeks int) ([]model.MetricStats, error) {
	thisWeek := model.WeekStart(now)
	out := make([]model.MetricStats, 0, weeks)
	for i := 1; i <= weeks; i++ {
		monday := thisWeek.AddDate(0, 0, -7*i)
		sunday := monday.AddDate(0, 0, 6)
		mondayKey := model.DayKey(monday)

		end, err := snaps.GetLatestOnOrBefore(ctx, userID, model.DayKey(sunday))
		if err != nil {
			return nil, fmt.Errorf("读取历史快照失败: %w", err)
		}
		if end == nil || end.Date < mondayKey {
			continue
		}
		begin, err := snaps.GetLatestBefore(ctx, userID, mondayKey)
		if err != nil {
			return nil, fmt.Errorf("读取历史快照失败: %w", err)
		}
		if begin == nil {
			continue
		}

		var week model.MetricStats
		for _, m := range model.ChallengeMetrics {
			week.Set(m, max(end.Counters.Get(m)-begin.Counters.Get(m), 0))
		}
		out = append(out, week)
	}
	return out, nil
}
