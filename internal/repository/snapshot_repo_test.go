package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
	"github.com/yuqie6/GitQuest/internal/testutil"
)

func snapshot(user, date string, commits int64) *schema.ActivitySnapshot {
	return &schema.ActivitySnapshot{
		UserID:   user,
		Date:     date,
		Counters: model.Counters{Commits: commits},
	}
}

func TestSnapshotRepositoryUpsertOverwritesSameDay(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	if err := repo.Upsert(ctx, snapshot("alice", "2026-03-02", 15), "2026-03-02"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, snapshot("alice", "2026-03-02", 16), "2026-03-02"); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	var n int64
	db.Model(&schema.ActivitySnapshot{}).Where("user_id = ?", "alice").Count(&n)
	if n != 1 {
		t.Fatalf("rows=%d, want 1", n)
	}
	got, err := repo.GetByDate(ctx, "alice", "2026-03-02")
	if err != nil || got == nil || got.Commits != 16 {
		t.Fatalf("GetByDate got=%+v err=%v", got, err)
	}
}

func TestSnapshotRepositoryRefusesToOverwritePastDay(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	if err := repo.Upsert(ctx, snapshot("alice", "2026-03-01", 10), "2026-03-01"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, snapshot("alice", "2026-03-05", 20), "2026-03-05"); err != nil {
		t.Fatalf("Upsert today: %v", err)
	}

	err := repo.Upsert(ctx, snapshot("alice", "2026-03-01", 999), "2026-03-05")
	if !errors.Is(err, ErrPastSnapshot) {
		t.Fatalf("err=%v, want ErrPastSnapshot", err)
	}
	got, err := repo.GetByDate(ctx, "alice", "2026-03-01")
	if err != nil || got == nil || got.Commits != 10 {
		t.Fatalf("past row changed: got=%+v err=%v", got, err)
	}

	// 缺失的历史日期仍可补录
	if err := repo.Upsert(ctx, snapshot("alice", "2026-03-03", 15), "2026-03-05"); err != nil {
		t.Fatalf("insert missing past day: %v", err)
	}
}

func TestSnapshotRepositoryLatestBefore(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	for _, s := range []*schema.ActivitySnapshot{
		snapshot("alice", "2026-02-27", 5),
		snapshot("alice", "2026-03-01", 10),
		snapshot("alice", "2026-03-02", 15),
		snapshot("bob", "2026-03-01", 99),
	} {
		if err := repo.Upsert(ctx, s, s.Date); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	prev, err := repo.GetLatestBefore(ctx, "alice", "2026-03-02")
	if err != nil || prev == nil || prev.Date != "2026-03-01" || prev.Commits != 10 {
		t.Fatalf("GetLatestBefore prev=%+v err=%v", prev, err)
	}

	none, err := repo.GetLatestBefore(ctx, "alice", "2026-02-27")
	if err != nil || none != nil {
		t.Fatalf("expected nil, got %+v err=%v", none, err)
	}

	onOrBefore, err := repo.GetLatestOnOrBefore(ctx, "alice", "2026-02-28")
	if err != nil || onOrBefore == nil || onOrBefore.Date != "2026-02-27" {
		t.Fatalf("GetLatestOnOrBefore=%+v err=%v", onOrBefore, err)
	}

	recent, err := repo.ListRecent(ctx, "alice", "2026-03-02", 2)
	if err != nil || len(recent) != 2 || recent[0].Date != "2026-03-01" {
		t.Fatalf("ListRecent=%+v err=%v", recent, err)
	}
}

func TestDayWindow(t *testing.T) {
	from, to, err := DayWindow("2026-03-02", 7)
	if err != nil || from != "2026-02-24" || to != "2026-03-02" {
		t.Fatalf("from=%s to=%s err=%v", from, to, err)
	}
	if _, _, err := DayWindow("bad", 1); err == nil {
		t.Fatalf("expected parse error")
	}
}
