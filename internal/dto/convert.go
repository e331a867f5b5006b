package dto

import (
	"time"

	"github.com/yuqie6/GitQuest/internal/eventbus"
	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
	"github.com/yuqie6/GitQuest/internal/service"
)

// NewNotifications 通知转为对外结构，与 SSE 推送字段一致
func NewNotifications(ns []model.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(ns))
	for _, n := range ns {
		evt := eventbus.FromNotification(n)
		out = append(out, NotificationDTO{Type: evt.Type, UserID: evt.UserID, Data: evt.Data})
	}
	return out
}

func NewSyncResponse(res *service.SyncResult) SyncResponseDTO {
	out := SyncResponseDTO{
		UserID:        res.UserID,
		Outcome:       string(res.Outcome),
		Message:       res.Message(),
		FromCache:     res.Outcome == service.OutcomeCached,
		XPAwarded:     res.XPAwarded,
		Notifications: NewNotifications(res.Notifications),
		Dashboard:     res.Dashboard,
	}
	if !res.CachedAt.IsZero() {
		out.CachedAt = res.CachedAt.Format(time.RFC3339)
	}
	return out
}

func NewSnapshots(list []schema.ActivitySnapshot) []SnapshotDTO {
	out := make([]SnapshotDTO, 0, len(list))
	for _, s := range list {
		out = append(out, SnapshotDTO{
			Date:          s.Date,
			Commits:       s.Commits,
			PullRequests:  s.PullRequests,
			Reviews:       s.Reviews,
			Issues:        s.Issues,
			Stars:         s.Stars,
			Contributions: s.Contributions,
		})
	}
	return out
}

func NewXPEntries(list []schema.XPEntry) []XPEntryDTO {
	out := make([]XPEntryDTO, 0, len(list))
	for _, e := range list {
		out = append(out, XPEntryDTO{
			Amount:    e.Amount,
			Source:    string(e.Source),
			Reference: e.Reference,
			Day:       e.Day,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

// NewStatus 读模型压缩为一行状态
func NewStatus(d *service.Dashboard) StatusDTO {
	out := StatusDTO{
		UserID:      d.UserID,
		AsOf:        d.AsOf,
		Level:       d.Progress.Level,
		TotalXP:     d.Progress.TotalXP,
		NextLevelXP: d.Progress.NextLevelXP,
		Streak:      d.Streak.Current,
		Longest:     d.Streak.Longest,
		Active:      len(d.Challenges),
	}
	if d.Progress.LastSyncedAt != nil {
		out.LastSyncedAt = d.Progress.LastSyncedAt.Format(time.RFC3339)
	}
	return out
}
