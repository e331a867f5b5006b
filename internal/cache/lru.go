package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultLRUSize 进程内前置缓存默认容量
const DefaultLRUSize = 256

// LRUStore 进程内 LRU 前置缓存，读穿透、写穿透到 backing
type LRUStore struct {
	backing Store
	front   *lru.Cache
}

// NewLRUStore 创建 LRU 前置缓存
func NewLRUStore(backing Store, size int) (*LRUStore, error) {
	if backing == nil {
		return nil, fmt.Errorf("backing store 不能为空")
	}
	if size <= 0 {
		size = DefaultLRUSize
	}
	front, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("创建 LRU 缓存失败: %w", err)
	}
	return &LRUStore{backing: backing, front: front}, nil
}

// Get 先查内存，未命中再查 backing 并回填
func (s *LRUStore) Get(ctx context.Context, key Key) (*Entry, error) {
	if v, ok := s.front.Get(key); ok {
		e := v.(Entry)
		return &e, nil
	}
	e, err := s.backing.Get(ctx, key)
	if err != nil || e == nil {
		return e, err
	}
	s.front.Add(key, *e)
	return e, nil
}

// Put 先写 backing，成功后更新内存
func (s *LRUStore) Put(ctx context.Context, entry Entry) error {
	if err := s.backing.Put(ctx, entry); err != nil {
		return err
	}
	s.front.Add(entry.Key, entry)
	return nil
}

// Len 内存中的条目数
func (s *LRUStore) Len() int {
	return s.front.Len()
}
