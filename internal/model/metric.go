package model

import (
	"database/sql/driver"
	"fmt"
)

// Metric 挑战可追踪的活动指标（封闭枚举）
type Metric string

const (
	MetricCommits Metric = "commits"
	MetricPRs     Metric = "prs"
	MetricReviews Metric = "reviews"
	MetricIssues  Metric = "issues"
)

// ChallengeMetrics 参与挑战生成的指标，顺序即生成顺序
var ChallengeMetrics = []Metric{MetricCommits, MetricPRs, MetricReviews, MetricIssues}

// Valid 是否为已知指标
func (m Metric) Valid() bool {
	switch m {
	case MetricCommits, MetricPRs, MetricReviews, MetricIssues:
		return true
	}
	return false
}

// ParseMetric 解析指标字符串，未知值返回错误
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if !m.Valid() {
		return "", fmt.Errorf("未知指标: %q", s)
	}
	return m, nil
}

// Value 实现 driver.Valuer 接口
func (m Metric) Value() (driver.Value, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("未知指标: %q", string(m))
	}
	return string(m), nil
}

// Scan 实现 sql.Scanner 接口
func (m *Metric) Scan(value interface{}) error {
	s, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseMetric(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ChallengeType 挑战周期
type ChallengeType string

const (
	ChallengeDaily  ChallengeType = "daily"
	ChallengeWeekly ChallengeType = "weekly"
)

// ChallengeTypes 全部周期
var ChallengeTypes = []ChallengeType{ChallengeDaily, ChallengeWeekly}

func (t ChallengeType) Valid() bool {
	switch t {
	case ChallengeDaily, ChallengeWeekly:
		return true
	}
	return false
}

func ParseChallengeType(s string) (ChallengeType, error) {
	t := ChallengeType(s)
	if !t.Valid() {
		return "", fmt.Errorf("未知挑战周期: %q", s)
	}
	return t, nil
}

func (t ChallengeType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("未知挑战周期: %q", string(t))
	}
	return string(t), nil
}

func (t *ChallengeType) Scan(value interface{}) error {
	s, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseChallengeType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ChallengeStatus 挑战状态：active -> completed | failed，后两者为终态
type ChallengeStatus string

const (
	ChallengeStatusActive    ChallengeStatus = "active"
	ChallengeStatusCompleted ChallengeStatus = "completed"
	ChallengeStatusFailed    ChallengeStatus = "failed"
)

func (s ChallengeStatus) Valid() bool {
	switch s {
	case ChallengeStatusActive, ChallengeStatusCompleted, ChallengeStatusFailed:
		return true
	}
	return false
}

// IsTerminal 终态不可再迁移
func (s ChallengeStatus) IsTerminal() bool {
	switch s {
	case ChallengeStatusCompleted, ChallengeStatusFailed:
		return true
	case ChallengeStatusActive:
		return false
	}
	return false
}

func ParseChallengeStatus(s string) (ChallengeStatus, error) {
	st := ChallengeStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("未知挑战状态: %q", s)
	}
	return st, nil
}

func (s ChallengeStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("未知挑战状态: %q", string(s))
	}
	return string(s), nil
}

func (s *ChallengeStatus) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseChallengeStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// XPSource 经验来源
type XPSource string

const (
	XPSourceActivity  XPSource = "activity"
	XPSourceChallenge XPSource = "challenge"
)

func (s XPSource) Valid() bool {
	switch s {
	case XPSourceActivity, XPSourceChallenge:
		return true
	}
	return false
}

func (s XPSource) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("未知经验来源: %q", string(s))
	}
	return string(s), nil
}

func (s *XPSource) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return err
	}
	src := XPSource(str)
	if !src.Valid() {
		return fmt.Errorf("未知经验来源: %q", str)
	}
	*s = src
	return nil
}

func scanString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("枚举字段为空")
	default:
		return "", fmt.Errorf("无法扫描枚举字段: %T", value)
	}
}
