package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func writeUser(t *testing.T, dir, user, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, user+".json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFileSourceFetchActivity(t *testing.T) {
	dir := t.TempDir()
	writeUser(t, dir, "alice", `{
		"counters": {"commits": 15, "prs": 2, "reviews": 1, "issues": 0, "stars": 4, "contributions": 30},
		"calendar": [
			{"date": "2026-03-01", "count": 3},
			{"date": "not-a-date", "count": 9},
			{"date": "2026-03-02", "count": 1},
			{"date": "2026-02-28", "count": -2}
		]
	}`)

	src := NewFileSource(dir)
	act, err := src.FetchActivity(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchActivity: %v", err)
	}
	if act.Counters.Commits != 15 || act.Counters.PullRequests != 2 || act.Counters.Contributions != 30 {
		t.Fatalf("counters=%+v", act.Counters)
	}
	if len(act.Calendar) != 2 {
		t.Fatalf("calendar=%+v, want 2 valid entries", act.Calendar)
	}
	if act.Calendar[0].Date != "2026-03-02" || act.Calendar[1].Date != "2026-03-01" {
		t.Fatalf("calendar must be most-recent-first: %+v", act.Calendar)
	}
}

func TestFileSourceClassifiesErrors(t *testing.T) {
	dir := t.TempDir()
	writeUser(t, dir, "revoked", `{"error": "unauthorized"}`)
	writeUser(t, dir, "limited", `{"error": "rate_limited"}`)
	writeUser(t, dir, "garbled", `{not json`)
	writeUser(t, dir, "negative", `{"counters": {"commits": -1}}`)
	src := NewFileSource(dir)
	ctx := context.Background()

	_, err := src.FetchActivity(ctx, "revoked")
	if !IsAuth(err) || IsFallbackEligible(err) {
		t.Fatalf("revoked: err=%v", err)
	}

	_, err = src.FetchActivity(ctx, "limited")
	if !IsRateLimited(err) || !IsFallbackEligible(err) {
		t.Fatalf("limited: err=%v", err)
	}

	for _, user := range []string{"garbled", "negative", "missing"} {
		_, err = src.FetchActivity(ctx, user)
		if !IsTransient(err) || IsAuth(err) {
			t.Fatalf("%s: err=%v, want transient", user, err)
		}
	}

	_, err = src.FetchActivity(ctx, "../etc/passwd")
	if err == nil || IsFallbackEligible(err) {
		t.Fatalf("path traversal: err=%v", err)
	}
}

func TestFileSourceRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileSource(t.TempDir()).FetchActivity(ctx, "alice")
	if !errors.Is(err, context.Canceled) || IsFallbackEligible(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestUserIDFromPath(t *testing.T) {
	cases := map[string]string{
		"/data/alice.json": "alice",
		"bob.JSON":         "bob",
		"/data/notes.txt":  "",
	}
	for in, want := range cases {
		if got := UserIDFromPath(in); got != want {
			t.Errorf("UserIDFromPath(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestWatcherDebouncesPerUser(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	w.handleFsEvent(fsnotify.Event{Name: "/x/alice.json", Op: fsnotify.Write})
	w.handleFsEvent(fsnotify.Event{Name: "/x/alice.json", Op: fsnotify.Write})
	w.handleFsEvent(fsnotify.Event{Name: "/x/bob.json", Op: fsnotify.Create})
	w.handleFsEvent(fsnotify.Event{Name: "/x/carol.json", Op: fsnotify.Remove})
	w.handleFsEvent(fsnotify.Event{Name: "/x/readme.md", Op: fsnotify.Write})

	got := []string{<-w.eventChan, <-w.eventChan}
	if got[0] != "alice" || got[1] != "bob" {
		t.Fatalf("events=%v", got)
	}
	select {
	case extra := <-w.eventChan:
		t.Fatalf("unexpected event %q", extra)
	default:
	}
}

func TestWatcherEmitsOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, 0)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeUser(t, dir, "alice", `{}`)

	select {
	case user := <-w.Events():
		if user != "alice" {
			t.Fatalf("user=%q", user)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no event within timeout")
	}
}
