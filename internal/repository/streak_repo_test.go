package repository

import (
	"context"
	"testing"

	"github.com/yuqie6/GitQuest/internal/schema"
	"github.com/yuqie6/GitQuest/internal/testutil"
)

func TestStreakRepositorySaveAndGet(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewStreakRepository(db)
	ctx := context.Background()

	if st, err := repo.Get(ctx, "alice"); err != nil || st != nil {
		t.Fatalf("expected nil, got %+v err=%v", st, err)
	}
	if err := repo.Save(ctx, &schema.StreakState{UserID: "alice", CurrentStreak: 3, LongestStreak: 5, LastActivityDate: "2026-03-02"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, &schema.StreakState{UserID: "alice", CurrentStreak: 4, LongestStreak: 5, LastActivityDate: "2026-03-03"}); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	st, err := repo.Get(ctx, "alice")
	if err != nil || st == nil || st.CurrentStreak != 4 || st.LastActivityDate != "2026-03-03" {
		t.Fatalf("st=%+v err=%v", st, err)
	}
}
