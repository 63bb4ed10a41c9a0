package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== ActionRateLimiter 动作限流器 ====================

// ActionRateLimiter 动作冷却限流器
// 防止重复提交：下单双击、工单刷屏、注册脚本等
type ActionRateLimiter struct {
	mu   sync.Mutex
	last map[string]time.Time
}

var globalLimiter = &ActionRateLimiter{last: make(map[string]time.Time)}

// GetLimiter 获取全局限流器
func GetLimiter() *ActionRateLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// cooldownLeft 距离冷却结束还剩多久，0 表示已过冷却期
// 调用方须持锁
func (r *ActionRateLimiter) cooldownLeft(key string, interval time.Duration) time.Duration {
	elapsed := time.Since(r.last[key])
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

// Check 检查是否允许执行，允许时顺带记下本次时间
// key 形如 "user:123:order_place"
func (r *ActionRateLimiter) Check(key string, interval time.Duration) CheckResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if left := r.cooldownLeft(key, interval); left > 0 {
		return CheckResult{Allowed: false, RetryAfter: left}
	}
	r.last[key] = time.Now()
	return CheckResult{Allowed: true}
}

// CheckOnly 仅检查，不更新时间
func (r *ActionRateLimiter) CheckOnly(key string, interval time.Duration) CheckResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if left := r.cooldownLeft(key, interval); left > 0 {
		return CheckResult{Allowed: false, RetryAfter: left}
	}
	return CheckResult{Allowed: true}
}

// MarkExecuted 标记已执行（用于异步流程完成后标记）
func (r *ActionRateLimiter) MarkExecuted(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last[key] = time.Now()
}

// Reset 清掉指定 key 的冷却记录
func (r *ActionRateLimiter) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.last, key)
}

// ==================== Key 生成工具 ====================

// Action 限流动作
type Action string

const (
	ActionOrderPlace   Action = "order_place"
	ActionTicketCreate Action = "ticket_create"
	ActionRegister     Action = "register"
	ActionChatSend     Action = "chat_send"
)

// UserActionKey 生成用户级动作 Key
func UserActionKey(userID int64, action Action) string {
	return fmt.Sprintf("user:%d:%s", userID, action)
}

// IPActionKey 生成 IP 级动作 Key（未登录入口）
func IPActionKey(ip string, action Action) string {
	return fmt.Sprintf("ip:%s:%s", ip, action)
}

// ==================== 默认冷却间隔 ====================

// DefaultIntervals 默认冷却间隔配置
var DefaultIntervals = map[Action]time.Duration{
	ActionOrderPlace:   3 * time.Second,  // 下单：挡住双击重复提交
	ActionTicketCreate: 30 * time.Second, // 工单：挡住连续刷单
	ActionRegister:     10 * time.Second, // 注册：同 IP 慢速
	ActionChatSend:     time.Second,      // 私信：每秒一条
}

// GetInterval 获取动作的默认冷却间隔
func GetInterval(action Action) time.Duration {
	if interval, ok := DefaultIntervals[action]; ok {
		return interval
	}
	return 5 * time.Second
}
