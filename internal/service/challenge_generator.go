package service

import (
	"math"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
)

// DefaultDifficultyMultiplier 推荐目标相对历史均值的放大倍数
const DefaultDifficultyMultiplier = 1.2

// HistoryWeeks 推荐目标参考的历史周数
const HistoryWeeks = 4

var (
	dailyFloors  = model.MetricStats{Commits: 2, PRs: 1, Reviews: 1, Issues: 1}
	weeklyFloors = model.MetricStats{Commits: 10, PRs: 2, Reviews: 3, Issues: 2}
)

// ChallengeTemplate 待创建的挑战
type ChallengeTemplate struct {
	Type        model.ChallengeType
	Metric      model.Metric
	TargetValue int64
	RewardXP    int64
}

// ChallengeGenerator 按历史节奏生成挑战模板，纯计算
type ChallengeGenerator struct {
	multiplier float64
	policy     XPPolicy
}

// NewChallengeGenerator multiplier<=0 时使用默认值
func NewChallengeGenerator(multiplier float64, policy XPPolicy) *ChallengeGenerator {
	if multiplier <= 0 {
		multiplier = DefaultDifficultyMultiplier
	}
	if policy == nil {
		policy = DefaultXPPolicy{}
	}
	return &ChallengeGenerator{multiplier: multiplier, policy: policy}
}

// RecommendedTargets 由最近若干周的每周合计推算目标
// 日挑战按日均（周合计/7），周挑战按周均；结果不低于各指标下限
func (g *ChallengeGenerator) RecommendedTargets(history []model.MetricStats, typ model.ChallengeType) model.MetricStats {
	floors := weeklyFloors
	perPeriod := 1.0
	if typ == model.ChallengeDaily {
		floors = dailyFloors
		perPeriod = 7
	}

	var out model.MetricStats
	for _, m := range model.ChallengeMetrics {
		avg := 0.0
		if len(history) > 0 {
			var sum int64
			for _, week := range history {
				sum += max(week.Get(m), 0)
			}
			avg = float64(sum) / float64(len(history)) / perPeriod
		}
		target := int64(math.Round(avg * g.multiplier))
		out.Set(m, max(floors.Get(m), target))
	}
	return out
}

// Generate 为指定周期生成每个指标一个模板
func (g *ChallengeGenerator) Generate(typ model.ChallengeType, history []model.MetricStats) []ChallengeTemplate {
	targets := g.RecommendedTargets(history, typ)
	out := make([]ChallengeTemplate, 0, len(model.ChallengeMetrics))
	for _, m := range model.ChallengeMetrics {
		target := targets.Get(m)
		out = append(out, ChallengeTemplate{
			Type:        typ,
			Metric:      m,
			TargetValue: target,
			RewardXP:    target * g.policy.RewardRate(m),
		})
	}
	return out
}

// GenerateDaily 日挑战模板
func (g *ChallengeGenerator) GenerateDaily(history []model.MetricStats) []ChallengeTemplate {
	return g.Generate(model.ChallengeDaily, history)
}

// GenerateWeekly 周挑战模板
func (g *ChallengeGenerator) GenerateWeekly(history []model.MetricStats) []ChallengeTemplate {
	return g.Generate(model.ChallengeWeekly, history)
}

// CalculateRewardXP 目标值 × 指标倍率
func CalculateRewardXP(metric model.Metric, target int64) int64 {
	return target * DefaultXPPolicy{}.RewardRate(metric)
}

// CalculateChallengePeriod 日挑战 [now, now+24h)；周挑战 [本周一 00:00, +7 天)
func CalculateChallengePeriod(typ model.ChallengeType, now time.Time) (start, end time.Time) {
	switch typ {
	case model.ChallengeWeekly:
		start = model.WeekStart(now)
		return start, start.AddDate(0, 0, 7)
	default:
		return now, now.Add(24 * time.Hour)
	}
}

// ShouldGenerateDaily 从未生成或上次不在同一天
func ShouldGenerateDaily(last *time.Time, now time.Time) bool {
	return last == nil || !model.SameDay(*last, now)
}

// ShouldGenerateWeekly 从未生成或上次不在同一 ISO 周
func ShouldGenerateWeekly(last *time.Time, now time.Time) bool {
	return last == nil || !model.SameISOWeek(*last, now)
}

// ShouldGenerate 按周期分派
func ShouldGenerate(typ model.ChallengeType, last *time.Time, now time.Time) bool {
	if typ == model.ChallengeWeekly {
		return ShouldGenerateWeekly(last, now)
	}
	return ShouldGenerateDaily(last, now)
}
