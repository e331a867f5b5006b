package service

import (
	"context"
	"testing"
	"time"

	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/schema"
)

func TestBuildWeeklyHistory(t *testing.T) {
	_, repos := newTestRepos(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local) // 本周一 03-02

	seed := map[string]int64{
		"2026-02-01": 0,   // 第 4 周（02-02..02-08）之前
		"2026-02-08": 14,  // 第 4 周末
		"2026-02-15": 28,  // 第 3 周末
		"2026-02-24": 100, // 第 1 周（02-23..03-01）中间
		"2026-03-01": 105, // 第 1 周末
		"2026-03-03": 999, // 本周，不计入
	}
	for date, commits := range seed {
		if err := repos.Snapshots.Upsert(ctx, &schema.ActivitySnapshot{UserID: "alice", Date: date, Counters: model.Counters{Commits: commits}}, date); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	history, err := BuildWeeklyHistory(ctx, repos.Snapshots, "alice", now, 4)
	if err != nil {
		t.Fatalf("BuildWeeklyHistory: %v", err)
	}
	// 第 1 周 105-28=77；第 2 周（02-16..02-22）没有快照跳过；第 3 周 28-14=14；第 4 周 14-0=14
	want := []int64{77, 14, 14}
	if len(history) != len(want) {
		t.Fatalf("history=%+v", history)
	}
	for i, w := range want {
		if history[i].Commits != w {
			t.Fatalf("week %d commits=%d, want %d", i+1, history[i].Commits, w)
		}
	}
}
