package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSyncer struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeSyncer) Sync(_ context.Context, userID string) (*SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[userID]++
	return &SyncResult{UserID: userID, Outcome: OutcomeFresh}, nil
}

func (f *fakeSyncer) count(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[userID]
}

func TestSchedulerSyncNowIsRateLimitedPerUser(t *testing.T) {
	syncer := &fakeSyncer{}
	s := NewScheduler(syncer, SchedulerConfig{RatePerMin: 1, Burst: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.SyncNow(ctx, "alice"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if _, err := s.SyncNow(ctx, "alice"); !errors.Is(err, ErrThrottled) {
		t.Fatalf("third call err=%v, want ErrThrottled", err)
	}
	if _, err := s.SyncNow(ctx, "bob"); err != nil {
		t.Fatalf("other user must have its own budget: %v", err)
	}
	if syncer.count("alice") != 2 {
		t.Fatalf("alice calls=%d", syncer.count("alice"))
	}
}

func TestSchedulerRunSyncsConfiguredUsersAndTriggers(t *testing.T) {
	syncer := &fakeSyncer{}
	s := NewScheduler(syncer, SchedulerConfig{
		Users:      []string{"alice", "bob"},
		Interval:   time.Hour,
		RatePerMin: 600,
		Burst:      5,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	if !s.Trigger("carol") {
		t.Fatalf("Trigger rejected")
	}

	deadline := time.After(2 * time.Second)
	for syncer.count("alice") < 1 || syncer.count("bob") < 1 || syncer.count("carol") < 1 {
		select {
		case <-deadline:
			t.Fatalf("calls=%v", syncer.calls)
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
