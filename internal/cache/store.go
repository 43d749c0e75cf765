package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Store 基于 Redis 的整值键值存储
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore 使用全局客户端创建存储，Redis 未启用时返回 ErrDisabled
func NewStore() (*Store, error) {
	if !Enabled() {
		return nil, ErrDisabled
	}
	return &Store{client: redisClient, prefix: redisPrefix}, nil
}

// NewStoreWithClient 使用指定客户端创建存储
func NewStoreWithClient(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Get 读取键值
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set 整值覆盖写入（不过期）
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

// Delete 删除键
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *Store) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
