package service

import "github.com/yuqie6/GitQuest/internal/model"

// XPPolicy 经验与等级计算策略（可替换）
type XPPolicy interface {
	ActivityXP(diff model.StatsDiff) int64
	RewardRate(metric model.Metric) int64
	LevelFor(totalXP int64) int
	// LevelBounds 当前等级起点与下一级门槛，满级时 next 为 -1
	LevelBounds(level int) (floor, next int64)
}

// xpRates 每单位指标对应的经验
var xpRates = map[model.Metric]int64{
	model.MetricCommits: 10,
	model.MetricPRs:     40,
	model.MetricReviews: 20,
	model.MetricIssues:  25,
}

// levelThresholds 第 i+1 级所需累计经验，严格递增
var levelThresholds = []int64{
	0, 100, 250, 500, 1000, 1750, 2750, 4000, 5500, 7500, 10000, 13000, 16500, 20500, 25000,
}

// MaxLevel 最高等级
var MaxLevel = len(levelThresholds)

// DefaultXPPolicy 默认策略：四项指标按固定倍率折算，负增量记 0
type DefaultXPPolicy struct{}

func (DefaultXPPolicy) RewardRate(metric model.Metric) int64 {
	return xpRates[metric]
}

// ActivityXP 根据差值计算活动经验
func (p DefaultXPPolicy) ActivityXP(diff model.StatsDiff) int64 {
	var total int64
	for _, m := range model.ChallengeMetrics {
		total += max(diff.Get(m), 0) * p.RewardRate(m)
	}
	return total
}

// LevelFor 累计经验对应等级（从 1 开始）
func (DefaultXPPolicy) LevelFor(totalXP int64) int {
	level := 1
	for i, th := range levelThresholds {
		if totalXP >= th {
			level = i + 1
		}
	}
	return level
}

func (DefaultXPPolicy) LevelBounds(level int) (floor, next int64) {
	level = clamp(level, 1, MaxLevel)
	floor = levelThresholds[level-1]
	if level == MaxLevel {
		return floor, -1
	}
	return floor, levelThresholds[level]
}

// clamp 将数值限制在指定范围内
func clamp[T int | int64 | float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
