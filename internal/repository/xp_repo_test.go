package repository

import (
	"context"
	"testing"
	"time"

	"github.com/yuqie6/GitQuest/internal/cache"
	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
	"github.com/yuqie6/GitQuest/internal/testutil"
)

func TestXPRepositorySumByDaySource(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewXPRepository(db)
	ctx := context.Background()

	entries := []*schema.XPEntry{
		{UserID: "alice", Amount: 50, Source: model.XPSourceActivity, Day: "2026-03-02"},
		{UserID: "alice", Amount: 10, Source: model.XPSourceActivity, Day: "2026-03-02"},
		{UserID: "alice", Amount: 200, Source: model.XPSourceChallenge, Day: "2026-03-02"},
		{UserID: "alice", Amount: 70, Source: model.XPSourceActivity, Day: "2026-03-01"},
	}
	for _, e := range entries {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	sum, err := repo.SumByDaySource(ctx, "alice", "2026-03-02", model.XPSourceActivity)
	if err != nil || sum != 60 {
		t.Fatalf("sum=%d err=%v, want 60", sum, err)
	}
	empty, err := repo.SumByDaySource(ctx, "bob", "2026-03-02", model.XPSourceActivity)
	if err != nil || empty != 0 {
		t.Fatalf("empty=%d err=%v", empty, err)
	}

	if err := repo.Append(ctx, &schema.XPEntry{UserID: "alice", Amount: -1, Source: model.XPSourceActivity}); err == nil {
		t.Fatalf("negative amount must be rejected")
	}

	recent, err := repo.ListRecent(ctx, "alice", 2)
	if err != nil || len(recent) != 2 || recent[0].Amount != 70 {
		t.Fatalf("recent=%+v err=%v", recent, err)
	}
}

func TestXPRepositoryProgress(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewXPRepository(db)
	ctx := context.Background()

	p, err := repo.GetProgress(ctx, "alice")
	if err != nil || p != nil {
		t.Fatalf("expected nil progress, got %+v err=%v", p, err)
	}
	if err := repo.SaveProgress(ctx, &schema.UserProgress{UserID: "alice", TotalXP: 120, Level: 2}); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	if err := repo.SaveProgress(ctx, &schema.UserProgress{UserID: "alice", TotalXP: 300, Level: 3}); err != nil {
		t.Fatalf("SaveProgress again: %v", err)
	}
	p, err = repo.GetProgress(ctx, "alice")
	if err != nil || p == nil || p.TotalXP != 300 || p.Level != 3 {
		t.Fatalf("progress=%+v err=%v", p, err)
	}
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewCacheRepository(db)
	ctx := context.Background()
	key := cache.Key{Type: "activity", UserID: "alice"}

	got, err := repo.Get(ctx, key)
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %+v err=%v", got, err)
	}

	t1 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	if err := repo.Put(ctx, cache.Entry{Key: key, Data: []byte(`{"v":1}`), CachedAt: t1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := repo.Put(ctx, cache.Entry{Key: key, Data: []byte(`{"v":2}`), CachedAt: t2}); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	got, err = repo.Get(ctx, key)
	if err != nil || got == nil || string(got.Data) != `{"v":2}` || !got.CachedAt.Equal(t2) {
		t.Fatalf("got=%+v err=%v", got, err)
	}
}

func TestUnitOfWorkRollsBackOnError(t *testing.T) {
	db := testutil.OpenTestDB(t)
	uow := NewUnitOfWork(db)
	ctx := context.Background()

	testutil.FailInserts(t, db, "xp_history")
	err := uow.Do(ctx, func(ctx context.Context, repos *Repos) error {
		if err := repos.Snapshots.Upsert(ctx, snapshot("alice", "2026-03-02", 1), "2026-03-02"); err != nil {
			return err
		}
		return repos.XP.Append(ctx, &schema.XPEntry{UserID: "alice", Amount: 10, Source: model.XPSourceActivity, Day: "2026-03-02"})
	})
	if err == nil {
		t.Fatalf("expected error from failing insert")
	}

	snap, err := NewSnapshotRepository(db).GetByDate(ctx, "alice", "2026-03-02")
	if err != nil || snap != nil {
		t.Fatalf("snapshot must be rolled back, got %+v err=%v", snap, err)
	}
}
