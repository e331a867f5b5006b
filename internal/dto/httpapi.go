package dto

// 注意：本包用于承载“对外契约”的 DTO（与 HTTP API / CLI 输出保持稳定）。
// 不要在这里放 GORM/持久化细节；内部持久化 schema 请见 internal/schema；业务逻辑收敛在 internal/service。

import "github.com/yuqie6/GitQuest/internal/service"

// NotificationDTO 一条通知，Type 与 SSE 事件名一致
type NotificationDTO struct {
	Type   string         `json:"type"`
	UserID string         `json:"user_id"`
	Data   map[string]any `json:"data,omitempty"`
}

// SyncResponseDTO 一次同步的摘要
type SyncResponseDTO struct {
	UserID        string             `json:"user_id"`
	Outcome       string             `json:"outcome"`
	Message       string             `json:"message"`
	FromCache     bool               `json:"from_cache"`
	CachedAt      string             `json:"cached_at,omitempty"`
	XPAwarded     int64              `json:"xp_awarded"`
	Notifications []NotificationDTO  `json:"notifications"`
	Dashboard     *service.Dashboard `json:"dashboard,omitempty"`
}

// ChallengeListDTO 挑战列表
type ChallengeListDTO struct {
	UserID     string                  `json:"user_id"`
	Challenges []service.ChallengeView `json:"challenges"`
}

// SnapshotDTO 某日的累计计数器
type SnapshotDTO struct {
	Date          string `json:"date"`
	Commits       int64  `json:"commits"`
	PullRequests  int64  `json:"prs"`
	Reviews       int64  `json:"reviews"`
	Issues        int64  `json:"issues"`
	Stars         int64  `json:"stars"`
	Contributions int64  `json:"contributions"`
}

// SnapshotListDTO 最近若干天的快照
type SnapshotListDTO struct {
	UserID    string        `json:"user_id"`
	Days      int           `json:"days"`
	Snapshots []SnapshotDTO `json:"snapshots"`
}

// XPEntryDTO 一条经验流水
type XPEntryDTO struct {
	Amount    int64  `json:"amount"`
	Source    string `json:"source"`
	Reference string `json:"reference,omitempty"`
	Day       string `json:"day"`
	CreatedAt string `json:"created_at"`
}

// XPHistoryDTO 经验流水列表
type XPHistoryDTO struct {
	UserID  string       `json:"user_id"`
	Entries []XPEntryDTO `json:"entries"`
}

// ErrorDTO 统一错误体
type ErrorDTO struct {
	Error string `json:"error"`
}
