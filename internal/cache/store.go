package cache

import (
	"context"
	"time"
)

// Key 缓存键 (cache_type, user_id)
type Key struct {
	Type   string
	UserID string
}

func (k Key) String() string {
	return k.Type + ":" + k.UserID
}

// Entry 最后一次成功拉取的副本
type Entry struct {
	Key      Key
	Data     []byte // JSON
	CachedAt time.Time
}

// Store 缓存存储，Get 不存在时返回 (nil, nil)
type Store interface {
	Get(ctx context.Context, key Key) (*Entry, error)
	Put(ctx context.Context, entry Entry) error
}
