package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisOptions Redis 连接参数
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// RedisTokenStore 基于 Redis 的分布式实现
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(opts RedisOptions) (*RedisTokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisTokenStore{client: client}, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return s.client.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

func (s *RedisTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisTokenStore) Unrevoke(ctx context.Context, jti string) error {
	return s.client.Del(ctx, revokedKey(jti)).Err()
}

func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}

func revokedKey(jti string) string {
	return "revoked_token:" + jti
}
