package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 动作冷却中间件 ====================

// Cooldown 动作冷却中间件
// 已登录请求按用户维度限流，未登录请求退化到客户端 IP
//
// 使用示例:
//
//	orders.POST("",
//	    middleware.Cooldown(middleware.ActionOrderPlace, 0),
//	    orderCtl.Place,
//	)
//
// 参数:
//   - action: 限流动作
//   - interval: 冷却间隔，0 表示使用默认值
func Cooldown(action Action, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(action)
	}

	return func(c *gin.Context) {
		var key string
		if userID := GetUserID(c); userID > 0 {
			key = UserActionKey(userID, action)
		} else {
			key = IPActionKey(c.ClientIP(), action)
		}

		result := GetLimiter().Check(key, interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "TooManyRequests",
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": retryAfter,
					"action":      action,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ==================== 辅助函数 ====================

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	if seconds < 60 {
		return fmt.Sprintf("operation cooling down, retry in %d seconds", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("operation cooling down, retry in %d minutes", minutes)
	}

	return fmt.Sprintf("operation cooling down, retry in %dm%ds", minutes, remainingSeconds)
}

// ==================== 手动限流检查（供 Service 层使用）====================

// CheckActionAllowed 检查动作是否允许（不更新时间）
func CheckActionAllowed(userID int64, action Action) (bool, time.Duration) {
	key := UserActionKey(userID, action)
	interval := GetInterval(action)
	result := GetLimiter().CheckOnly(key, interval)
	return result.Allowed, result.RetryAfter
}

// MarkActionExecuted 标记动作已执行
func MarkActionExecuted(userID int64, action Action) {
	key := UserActionKey(userID, action)
	GetLimiter().MarkExecuted(key)
}

// ResetActionLimit 重置动作限流（测试与管理员使用）
func ResetActionLimit(userID int64, action Action) {
	key := UserActionKey(userID, action)
	GetLimiter().Reset(key)
}
