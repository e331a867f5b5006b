package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
)

type Event struct {
	Type      string         `json:"type"`
	UserID    string         `json:"user_id,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			// 慢消费者直接丢弃，避免阻塞同步链路
		}
	}
}

// PublishNotifications 转发一个同步周期提交后的全部通知
func (h *Hub) PublishNotifications(ns []model.Notification) {
	for _, n := range ns {
		h.Publish(FromNotification(n))
	}
}

func (h *Hub) Subscribe(ctx context.Context, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Subscribers 当前订阅数
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// FromNotification 通知转为推送事件，只携带渲染一次提示所需的字段
func FromNotification(n model.Notification) Event {
	evt := Event{Type: string(n.Kind()), UserID: n.User()}
	switch v := n.(type) {
	case model.XPGained:
		evt.Data = map[string]any{"amount": v.Amount, "source": string(v.Source), "total": v.Total}
	case model.LevelChanged:
		evt.Data = map[string]any{"old_level": v.OldLevel, "new_level": v.NewLevel, "delta": v.Delta()}
	case model.StreakMilestone:
		evt.Data = map[string]any{"milestone": v.Milestone, "current": v.Current}
	case model.ChallengeCompleted:
		evt.Data = map[string]any{"challenge_id": v.ChallengeID, "type": string(v.Type), "metric": string(v.Metric), "reward_xp": v.RewardXP}
	case model.ChallengeFailed:
		evt.Data = map[string]any{"challenge_id": v.ChallengeID, "type": string(v.Type), "metric": string(v.Metric), "current_value": v.CurrentValue, "target_value": v.TargetValue}
	}
	return evt
}
