package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memStore struct {
	mu      sync.Mutex
	entries map[Key]Entry
	gets    int
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[Key]Entry)}
}

func (m *memStore) Get(_ context.Context, key Key) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memStore) Put(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[e.Key] = e
	return nil
}

type payload struct {
	Commits int64 `json:"commits"`
}

var errNetwork = errors.New("network down")
var errAuth = errors.New("token revoked")

func TestFetchServesLastGoodPayloadAfterFailures(t *testing.T) {
	store := newMemStore()
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	fb := NewFallback(store, WithClock(func() time.Time { return t0 }))
	key := Key{Type: "activity", UserID: "alice"}
	ctx := context.Background()

	env, err := Fetch(ctx, fb, key, func(context.Context) (payload, error) {
		return payload{Commits: 42}, nil
	})
	if err != nil || env.FromCache || env.Data.Commits != 42 {
		t.Fatalf("first fetch env=%+v err=%v", env, err)
	}

	for i := 0; i < 5; i++ {
		env, err := Fetch(ctx, fb, key, func(context.Context) (payload, error) {
			return payload{}, errNetwork
		})
		if err != nil {
			t.Fatalf("failure %d: err=%v", i, err)
		}
		if !env.FromCache || env.Data.Commits != 42 || !env.CachedAt.Equal(t0) {
			t.Fatalf("failure %d: env=%+v", i, env)
		}
	}
}

func TestFetchPropagatesOriginalErrorWithoutCache(t *testing.T) {
	fb := NewFallback(newMemStore())
	_, err := Fetch(context.Background(), fb, Key{Type: "activity", UserID: "bob"}, func(context.Context) (payload, error) {
		return payload{}, errNetwork
	})
	if err != errNetwork {
		t.Fatalf("err=%v, want original error", err)
	}
}

func TestFetchIneligibleErrorSkipsCache(t *testing.T) {
	store := newMemStore()
	key := Key{Type: "activity", UserID: "alice"}
	store.entries[key] = Entry{Key: key, Data: []byte(`{"commits":1}`), CachedAt: time.Now()}

	fb := NewFallback(store, WithEligible(func(err error) bool { return !errors.Is(err, errAuth) }))
	_, err := Fetch(context.Background(), fb, key, func(context.Context) (payload, error) {
		return payload{}, errAuth
	})
	if !errors.Is(err, errAuth) {
		t.Fatalf("err=%v, want auth error", err)
	}
	if store.gets != 0 {
		t.Fatalf("auth failure must not read cache, gets=%d", store.gets)
	}
}

func TestFetchCancelledContextSkipsCache(t *testing.T) {
	store := newMemStore()
	key := Key{Type: "activity", UserID: "alice"}
	store.entries[key] = Entry{Key: key, Data: []byte(`{"commits":1}`), CachedAt: time.Now()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Fetch(ctx, NewFallback(store), key, func(ctx context.Context) (payload, error) {
		return payload{}, ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestFetchCacheWriteFailureDoesNotFailFetch(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("disk full")
	env, err := Fetch(context.Background(), NewFallback(store), Key{Type: "activity", UserID: "alice"}, func(context.Context) (payload, error) {
		return payload{Commits: 3}, nil
	})
	if err != nil || env.Data.Commits != 3 {
		t.Fatalf("env=%+v err=%v", env, err)
	}
}

func TestFallbackHookCalledOnCacheHit(t *testing.T) {
	store := newMemStore()
	key := Key{Type: "activity", UserID: "alice"}
	store.entries[key] = Entry{Key: key, Data: []byte(`{"commits":7}`), CachedAt: time.Now()}

	hits := 0
	fb := NewFallback(store, WithFallbackHook(func(Key) { hits++ }))
	if _, err := Fetch(context.Background(), fb, key, func(context.Context) (payload, error) {
		return payload{}, errNetwork
	}); err != nil {
		t.Fatalf("err=%v", err)
	}
	if hits != 1 {
		t.Fatalf("hits=%d, want 1", hits)
	}
}

func TestEnvelopeAgeAndStale(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	env := Envelope[payload]{CachedAt: now.Add(-90 * time.Minute)}
	if env.Age(now) != 90*time.Minute {
		t.Fatalf("age=%v", env.Age(now))
	}
	if !env.Stale(time.Hour, now) || env.Stale(2*time.Hour, now) {
		t.Fatalf("stale mismatch")
	}
	if env.Stale(0, now) {
		t.Fatalf("ttl 0 disables staleness")
	}
}

func TestLRUStoreReadsThroughAndCaches(t *testing.T) {
	backing := newMemStore()
	key := Key{Type: "activity", UserID: "alice"}
	backing.entries[key] = Entry{Key: key, Data: []byte(`{}`), CachedAt: time.Now()}

	s, err := NewLRUStore(backing, 2)
	if err != nil {
		t.Fatalf("NewLRUStore: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		e, err := s.Get(ctx, key)
		if err != nil || e == nil {
			t.Fatalf("Get: e=%v err=%v", e, err)
		}
	}
	if backing.gets != 1 {
		t.Fatalf("backing gets=%d, want 1", backing.gets)
	}

	missing, err := s.Get(ctx, Key{Type: "activity", UserID: "nobody"})
	if err != nil || missing != nil {
		t.Fatalf("missing=%v err=%v", missing, err)
	}

	if err := s.Put(ctx, Entry{Key: Key{Type: "activity", UserID: "bob"}, Data: []byte(`{}`)}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := backing.entries[Key{Type: "activity", UserID: "bob"}]; !ok {
		t.Fatalf("Put must write through to backing")
	}
}
