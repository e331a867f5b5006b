package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Envelope 拉取结果，FromCache 为 true 时 Data 来自最后一次成功拉取
type Envelope[T any] struct {
	Data      T         `json:"data"`
	FromCache bool      `json:"from_cache"`
	CachedAt  time.Time `json:"cached_at"`
}

// Age 距上次成功拉取的时长
func (e Envelope[T]) Age(now time.Time) time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	return now.Sub(e.CachedAt)
}

// Stale 是否超过 ttl（仅用于展示，不影响可用性）
func (e Envelope[T]) Stale(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && e.Age(now) > ttl
}

// Fallback 缓存回退策略
type Fallback struct {
	store      Store
	eligible   func(error) bool
	now        func() time.Time
	onFallback func(key Key)
}

// Option 可选配置
type Option func(*Fallback)

// WithEligible 设置哪些错误允许回退到缓存
func WithEligible(fn func(error) bool) Option {
	return func(f *Fallback) { f.eligible = fn }
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(f *Fallback) { f.now = now }
}

// WithFallbackHook 每次成功回退到缓存时回调
func WithFallbackHook(fn func(key Key)) Option {
	return func(f *Fallback) { f.onFallback = fn }
}

// NewFallback 创建缓存回退策略，默认所有错误均可回退
func NewFallback(store Store, opts ...Option) *Fallback {
	f := &Fallback{
		store:    store,
		eligible: func(error) bool { return true },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch 调用 fetch；成功则写缓存，失败且可回退时返回缓存副本，
// 缓存缺失时原样返回 fetch 的错误
func Fetch[T any](ctx context.Context, f *Fallback, key Key, fetch func(context.Context) (T, error)) (Envelope[T], error) {
	data, err := fetch(ctx)
	if err == nil {
		now := f.now()
		f.put(ctx, key, data, now)
		return Envelope[T]{Data: data, CachedAt: now}, nil
	}

	// 调用方已取消不属于可回退的失败
	if ctx.Err() != nil || !f.eligible(err) {
		return Envelope[T]{}, err
	}

	entry, getErr := f.store.Get(ctx, key)
	if getErr != nil {
		slog.Warn("读取缓存失败", "key", key.String(), "error", getErr)
		return Envelope[T]{}, err
	}
	if entry == nil {
		return Envelope[T]{}, err
	}

	var cached T
	if uerr := json.Unmarshal(entry.Data, &cached); uerr != nil {
		slog.Warn("缓存数据损坏", "key", key.String(), "error", uerr)
		return Envelope[T]{}, err
	}
	if f.onFallback != nil {
		f.onFallback(key)
	}
	slog.Info("拉取失败，使用缓存数据", "key", key.String(), "cached_at", entry.CachedAt, "error", err)
	return Envelope[T]{Data: cached, FromCache: true, CachedAt: entry.CachedAt}, nil
}

func (f *Fallback) put(ctx context.Context, key Key, data any, now time.Time) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Warn("序列化缓存数据失败", "key", key.String(), "error", err)
		return
	}
	if err := f.store.Put(ctx, Entry{Key: key, Data: raw, CachedAt: now}); err != nil {
		slog.Warn("写入缓存失败", "key", key.String(), "error", err)
	}
}
