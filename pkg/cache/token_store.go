package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TokenStore 已吊销令牌的存储（登出后 refresh token 进入黑名单）
// 键既可以是单个 jti，也可以是 UserKey 生成的整账号键（停用账号时使用）
type TokenStore interface {
	// Revoke 将键加入黑名单，ttl 过后自动失效
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked 查询键是否在黑名单内
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Unrevoke 提前移出黑名单（恢复被停用的账号）
	Unrevoke(ctx context.Context, jti string) error
}

// UserKey 整账号吊销键，停用账号时令其全部存量令牌失效
func UserKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// ==================== 内存实现 ====================

// memoryItem 内部结构，包含过期时间
type memoryItem struct {
	expiration int64
}

// MemoryTokenStore 基于 sync.Map 的单机实现，未配置 Redis 时使用
type MemoryTokenStore struct {
	items sync.Map
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.items.Store(jti, memoryItem{expiration: time.Now().Add(ttl).Unix()})
	return nil
}

func (s *MemoryTokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	val, ok := s.items.Load(jti)
	if !ok {
		return false, nil
	}
	item := val.(memoryItem)
	// 懒删除
	if time.Now().Unix() > item.expiration {
		s.items.Delete(jti)
		return false, nil
	}
	return true, nil
}

func (s *MemoryTokenStore) Unrevoke(_ context.Context, jti string) error {
	s.items.Delete(jti)
	return nil
}
