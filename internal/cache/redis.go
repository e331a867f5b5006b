package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gitquest:cache:"

// RedisStore 以 Redis 作为缓存后端，条目不设过期
type RedisStore struct {
	client *redis.Client
}

type redisEntry struct {
	Data     json.RawMessage `json:"data"`
	CachedAt time.Time       `json:"cached_at"`
}

// NewRedisStore 创建 Redis 缓存
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis 连接 Redis 并 ping 一次
func DialRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return client, nil
}

func redisKey(key Key) string {
	return redisKeyPrefix + key.Type + ":" + key.UserID
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*Entry, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取 Redis 缓存失败: %w", err)
	}
	var re redisEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return nil, fmt.Errorf("解析 Redis 缓存失败: %w", err)
	}
	return &Entry{Key: key, Data: []byte(re.Data), CachedAt: re.CachedAt}, nil
}

func (s *RedisStore) Put(ctx context.Context, entry Entry) error {
	raw, err := json.Marshal(redisEntry{Data: json.RawMessage(entry.Data), CachedAt: entry.CachedAt})
	if err != nil {
		return fmt.Errorf("序列化 Redis 缓存失败: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(entry.Key), raw, 0).Err(); err != nil {
		return fmt.Errorf("写入 Redis 缓存失败: %w", err)
	}
	return nil
}
