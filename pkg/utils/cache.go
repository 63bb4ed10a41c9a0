package utils

import (
	"sync"
	"time"
)

// 进程内 TTL 缓存，适合读多写少的小对象（分类树等）
// 使用 sync.Map 保证并发安全
var memoryCache sync.Map

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value     interface{}
	expiresAt int64
}

// SetCache 设置缓存
func SetCache(key string, value interface{}, ttl time.Duration) {
	memoryCache.Store(key, cacheItem{
		value:     value,
		expiresAt: time.Now().Add(ttl).UnixNano(),
	})
}

// GetCache 获取缓存并验证是否过期
func GetCache(key string) (interface{}, bool) {
	val, ok := memoryCache.Load(key)
	if !ok {
		return nil, false
	}

	item := val.(cacheItem)

	// 检查是否过期
	if time.Now().UnixNano() > item.expiresAt {
		memoryCache.Delete(key) // 懒删除
		return nil, false
	}

	return item.value, true
}

// DeleteCache 删除缓存（写操作后主动失效）
func DeleteCache(key string) {
	memoryCache.Delete(key)
}
