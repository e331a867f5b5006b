package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
)

func TestHubPublishNotifications(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := h.Subscribe(ctx, 4)

	h.PublishNotifications([]model.Notification{
		model.XPGained{UserID: "alice", Amount: 20, Source: model.XPSourceChallenge, Total: 120},
		model.LevelChanged{UserID: "alice", OldLevel: 1, NewLevel: 2},
	})

	evt := <-ch
	if evt.Type != "xp_gained" || evt.UserID != "alice" || evt.Data["amount"] != int64(20) || evt.Timestamp == 0 {
		t.Fatalf("evt=%+v", evt)
	}
	evt = <-ch
	if evt.Type != "level_changed" || evt.Data["delta"] != 1 {
		t.Fatalf("evt=%+v", evt)
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := h.Subscribe(ctx, 1)

	h.Publish(Event{Type: "a"})
	h.Publish(Event{Type: "b"})

	if evt := <-ch; evt.Type != "a" {
		t.Fatalf("evt=%+v", evt)
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected %+v", evt)
	default:
	}
}

func TestHubUnsubscribeOnCancel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Subscribe(ctx, 1)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed")
	}
	if h.Subscribers() != 0 {
		t.Fatalf("subscribers=%d", h.Subscribers())
	}
}

func TestFromNotificationCoversAllKinds(t *testing.T) {
	all := []model.Notification{
		model.XPGained{UserID: "u"},
		model.LevelChanged{UserID: "u"},
		model.StreakMilestone{UserID: "u"},
		model.ChallengeCompleted{UserID: "u"},
		model.ChallengeFailed{UserID: "u"},
	}
	for _, n := range all {
		evt := FromNotification(n)
		if evt.Type != string(n.Kind()) || evt.Data == nil {
			t.Fatalf("kind %s: evt=%+v", n.Kind(), evt)
		}
	}
}
