package service

import (
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
)

// StreakMilestones 连续活跃里程碑（天）
var StreakMilestones = []int{3, 7, 14, 30, 50, 100, 365}

// StreakResult 一次计算的结果
type StreakResult struct {
	Current          int
	Longest          int
	LastActivityDate string
	Invalid          int // 被丢弃的非法日历条目数
}

// CalculateStreak 由贡献日历计算连续活跃天数
//
// 锚点：今天活跃取今天，否则昨天活跃取昨天，否则连续天数归零。
// 今天尚无记录而昨天活跃时维持（不增加）连续天数。
// 从锚点向前逐日计数，遇到非活跃或缺失的日期即停止。
func CalculateStreak(calendar []model.ContributionDay, now time.Time, previous *schema.StreakState) StreakResult {
	var res StreakResult
	loc := now.Location()

	active := make(map[string]bool, len(calendar))
	latestActive := ""
	for _, d := range calendar {
		t, err := model.ParseDay(d.Date, loc)
		if err != nil || d.Count < 0 {
			res.Invalid++
			continue
		}
		key := model.DayKey(t)
		if d.Active() {
			active[key] = true
			if key > latestActive {
				latestActive = key
			}
		}
	}

	today := model.StartOfDay(now)
	var anchor time.Time
	switch {
	case active[model.DayKey(today)]:
		anchor = today
	case active[model.DayKey(today.AddDate(0, 0, -1))]:
		anchor = today.AddDate(0, 0, -1)
	}

	if !anchor.IsZero() {
		for d := anchor; active[model.DayKey(d)]; d = d.AddDate(0, 0, -1) {
			res.Current++
		}
		res.LastActivityDate = model.DayKey(anchor)
	} else {
		res.LastActivityDate = latestActive
	}

	prevLongest := 0
	if previous != nil {
		prevLongest = previous.LongestStreak
		if res.LastActivityDate == "" || res.LastActivityDate < previous.LastActivityDate {
			res.LastActivityDate = previous.LastActivityDate
		}
	}
	res.Longest = max(prevLongest, res.Current)
	return res
}

// CrossedMilestones 从 prev 增长到 cur 时跨过的里程碑
func CrossedMilestones(prev, cur int) []int {
	var out []int
	for _, m := range StreakMilestones {
		if prev < m && cur >= m {
			out = append(out, m)
		}
	}
	return out
}
