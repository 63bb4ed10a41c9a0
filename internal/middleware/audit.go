package middleware

import (
	"context"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== 操作人上下文 ====================

type auditContextKey struct{}

// AuditInfo 写库时要落的操作人信息
type AuditInfo struct {
	UserID int64
	Email  string
}

// WithAuditInfo 把操作人塞进 context，随请求穿透到 GORM 回调
func WithAuditInfo(ctx context.Context, userID int64, email string) context.Context {
	return context.WithValue(ctx, auditContextKey{}, &AuditInfo{UserID: userID, Email: email})
}

// GetAuditInfo 取操作人，未登录链路返回 nil
func GetAuditInfo(ctx context.Context) *AuditInfo {
	info, _ := ctx.Value(auditContextKey{}).(*AuditInfo)
	return info
}

// GetAuditUserID 取操作人 ID，未登录返回 0
func GetAuditUserID(ctx context.Context) int64 {
	if info := GetAuditInfo(ctx); info != nil {
		return info.UserID
	}
	return 0
}

// ==================== Gin 中间件 ====================

// AuditContext 登录态注入，挂在 JWTAuth 之后
// 分类等后台维护的数据要记录经手人，靠这里把 JWT 身份带进 request context
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := GetUserID(c); userID > 0 {
			c.Request = c.Request.WithContext(
				WithAuditInfo(c.Request.Context(), userID, GetEmail(c)))
		}
		c.Next()
	}
}

// ==================== GORM 回调 ====================

// RegisterAuditCallbacks 挂审计回调：带 CreatedBy/UpdatedBy 字段的模型
// 在插入时补两者、更新时补 UpdatedBy，手工赋过值的不覆盖
func RegisterAuditCallbacks(db *gorm.DB) {
	db.Callback().Create().Before("gorm:create").Register("audit:create", func(tx *gorm.DB) {
		if actor := auditActor(tx); actor > 0 {
			fillAuditField(tx, "CreatedBy", actor)
			fillAuditField(tx, "UpdatedBy", actor)
		}
	})

	db.Callback().Update().Before("gorm:update").Register("audit:update", func(tx *gorm.DB) {
		if actor := auditActor(tx); actor > 0 {
			fillAuditField(tx, "UpdatedBy", actor)
		}
	})
}

func auditActor(tx *gorm.DB) int64 {
	if tx.Statement.Context == nil {
		return 0
	}
	return GetAuditUserID(tx.Statement.Context)
}

// fillAuditField 字段存在且为零值时写入操作人
func fillAuditField(tx *gorm.DB, name string, actor int64) {
	if tx.Statement.Schema == nil {
		return
	}
	field := tx.Statement.Schema.LookUpField(name)
	if field == nil {
		return
	}

	ctx := tx.Statement.Context
	switch tx.Statement.ReflectValue.Kind() {
	case reflect.Struct:
		if _, isZero := field.ValueOf(ctx, tx.Statement.ReflectValue); isZero {
			_ = field.Set(ctx, tx.Statement.ReflectValue, actor)
		}
	case reflect.Slice:
		for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
			row := tx.Statement.ReflectValue.Index(i)
			if _, isZero := field.ValueOf(ctx, row); isZero {
				_ = field.Set(ctx, row, actor)
			}
		}
	}
}
