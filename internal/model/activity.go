package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Counters 外部上报的累计计数器（只增不减）
type Counters struct {
	Commits       int64 `gorm:"default:0" json:"commits" validate:"gte=0"`
	PullRequests  int64 `gorm:"column:prs;default:0" json:"prs" validate:"gte=0"`
	Reviews       int64 `gorm:"default:0" json:"reviews" validate:"gte=0"`
	Issues        int64 `gorm:"default:0" json:"issues" validate:"gte=0"`
	Stars         int64 `gorm:"default:0" json:"stars" validate:"gte=0"`
	Contributions int64 `gorm:"default:0" json:"contributions" validate:"gte=0"`
}

// Get 取指定挑战指标的值
func (c Counters) Get(m Metric) int64 {
	switch m {
	case MetricCommits:
		return c.Commits
	case MetricPRs:
		return c.PullRequests
	case MetricReviews:
		return c.Reviews
	case MetricIssues:
		return c.Issues
	}
	return 0
}

// Stats 截取四个挑战指标
func (c Counters) Stats() MetricStats {
	return MetricStats{
		Commits: c.Commits,
		PRs:     c.PullRequests,
		Reviews: c.Reviews,
		Issues:  c.Issues,
	}
}

// MetricStats 四个挑战指标的取值（挑战起点快照 / 周期合计 / 推荐目标）
type MetricStats struct {
	Commits int64 `json:"commits"`
	PRs     int64 `json:"prs"`
	Reviews int64 `json:"reviews"`
	Issues  int64 `json:"issues"`
}

func (s MetricStats) Get(m Metric) int64 {
	switch m {
	case MetricCommits:
		return s.Commits
	case MetricPRs:
		return s.PRs
	case MetricReviews:
		return s.Reviews
	case MetricIssues:
		return s.Issues
	}
	return 0
}

// Set 写入指定指标
func (s *MetricStats) Set(m Metric, v int64) {
	switch m {
	case MetricCommits:
		s.Commits = v
	case MetricPRs:
		s.PRs = v
	case MetricReviews:
		s.Reviews = v
	case MetricIssues:
		s.Issues = v
	}
}

// Value 实现 driver.Valuer 接口
func (s MetricStats) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (s *MetricStats) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*s = MetricStats{}
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("无法扫描 MetricStats: %T", value)
	}
	if len(bytes) == 0 {
		*s = MetricStats{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// StatsDiff 两次快照之间的差值，不落库
// ComparisonDate 为空表示没有可比较的历史快照（首次同步）
type StatsDiff struct {
	Commits        int64  `json:"commits"`
	PullRequests   int64  `json:"prs"`
	Reviews        int64  `json:"reviews"`
	Issues         int64  `json:"issues"`
	Stars          int64  `json:"stars"`
	Contributions  int64  `json:"contributions"`
	ComparisonDate string `json:"comparison_date,omitempty"`
}

// HasComparison 是否存在参照快照
func (d StatsDiff) HasComparison() bool {
	return d.ComparisonDate != ""
}

// Get 取指定挑战指标的差值
func (d StatsDiff) Get(m Metric) int64 {
	switch m {
	case MetricCommits:
		return d.Commits
	case MetricPRs:
		return d.PullRequests
	case MetricReviews:
		return d.Reviews
	case MetricIssues:
		return d.Issues
	}
	return 0
}

// ContributionDay 贡献日历中的一天，Count > 0 即为活跃日
type ContributionDay struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Count int    `json:"count" validate:"gte=0"`
}

// Active 是否活跃
func (d ContributionDay) Active() bool {
	return d.Count > 0
}
