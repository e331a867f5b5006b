package repository

import (
	"context"
	"testing"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
	"github.com/yuqie6/GitQuest/internal/testutil"
)

func newChallenge(id string, metric model.Metric) *schema.Challenge {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	return &schema.Challenge{
		ID:           id,
		UserID:       "alice",
		Type:         model.ChallengeDaily,
		TargetMetric: metric,
		TargetValue:  5,
		RewardXP:     50,
		StartDate:    start,
		EndDate:      start.Add(24 * time.Hour),
		Status:       model.ChallengeStatusActive,
		StartStats:   model.MetricStats{Commits: 10},
	}
}

func TestChallengeRepositoryTransitionsAreGuarded(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewChallengeRepository(db)
	ctx := context.Background()

	c := newChallenge("c1", model.MetricCommits)
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Now()
	ok, err := repo.MarkCompleted(ctx, "c1", 5, now)
	if err != nil || !ok {
		t.Fatalf("first MarkCompleted ok=%v err=%v", ok, err)
	}
	ok, err = repo.MarkCompleted(ctx, "c1", 5, now)
	if err != nil || ok {
		t.Fatalf("second MarkCompleted must be a no-op, ok=%v err=%v", ok, err)
	}
	ok, err = repo.MarkFailed(ctx, "c1")
	if err != nil || ok {
		t.Fatalf("MarkFailed on completed must be a no-op, ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateProgress(ctx, "c1", 1)
	if err != nil || ok {
		t.Fatalf("UpdateProgress on completed must be a no-op, ok=%v err=%v", ok, err)
	}

	got, err := repo.GetByID(ctx, "c1")
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.ChallengeStatusCompleted || got.CurrentValue != 5 || got.CompletedAt == nil {
		t.Fatalf("got=%+v", got)
	}
	if got.StartStats.Commits != 10 {
		t.Fatalf("start_stats not persisted: %+v", got.StartStats)
	}
}

func TestChallengeRepositoryAtMostOneActivePerMetric(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewChallengeRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, newChallenge("c1", model.MetricCommits)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, newChallenge("c2", model.MetricCommits)); err == nil {
		t.Fatalf("second active challenge for same metric must be rejected")
	}

	if ok, err := repo.MarkFailed(ctx, "c1"); err != nil || !ok {
		t.Fatalf("MarkFailed ok=%v err=%v", ok, err)
	}
	if err := repo.Create(ctx, newChallenge("c3", model.MetricCommits)); err != nil {
		t.Fatalf("new active challenge after failure: %v", err)
	}

	active, err := repo.ListActive(ctx, "alice")
	if err != nil || len(active) != 1 || active[0].ID != "c3" {
		t.Fatalf("ListActive=%+v err=%v", active, err)
	}

	counts, err := repo.CountByStatus(ctx, "alice")
	if err != nil || counts[model.ChallengeStatusFailed] != 1 || counts[model.ChallengeStatusActive] != 1 {
		t.Fatalf("counts=%v err=%v", counts, err)
	}

	latest, err := repo.LatestStartDate(ctx, "alice", model.ChallengeDaily)
	if err != nil || latest == nil {
		t.Fatalf("LatestStartDate=%v err=%v", latest, err)
	}
	none, err := repo.LatestStartDate(ctx, "alice", model.ChallengeWeekly)
	if err != nil || none != nil {
		t.Fatalf("weekly LatestStartDate=%v err=%v", none, err)
	}
}
