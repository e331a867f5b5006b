package dto

type HealthDTO struct {
	OK             bool     `json:"ok"`
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Build          string   `json:"build"`
	StartedAt      string   `json:"started_at"`
	UptimeSec      int64    `json:"uptime_sec"`
	SafeMode       bool     `json:"safe_mode"`
	SafeModeReason string   `json:"safe_mode_reason,omitempty"`
	SchemaVersion  int      `json:"schema_version"`
	Users          []string `json:"users"`
	Subscribers    int      `json:"sse_subscribers"`
}

// StatusDTO CLI status 输出
type StatusDTO struct {
	UserID       string `json:"user_id"`
	AsOf         string `json:"as_of"`
	Level        int    `json:"level"`
	TotalXP      int64  `json:"total_xp"`
	NextLevelXP  int64  `json:"next_level_xp"`
	Streak       int    `json:"streak"`
	Longest      int    `json:"longest_streak"`
	Active       int    `json:"active_challenges"`
	LastSyncedAt string `json:"last_synced_at,omitempty"`
}
