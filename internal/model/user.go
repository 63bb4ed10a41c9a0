package model

import (
	"time"

	"gorm.io/gorm"
)

// ==================== 用户角色常量 ====================

// UserRole 平台角色
const (
	RoleCustomer = "customer" // 采购方（个人/企业客户）
	RoleSupplier = "supplier" // 供应商
	RoleAdmin    = "admin"    // 平台管理员
)

// UserStatus 账号状态
const (
	UserStatusActive    = "active"    // 正常
	UserStatusSuspended = "suspended" // 已停用（管理员操作）
)

// ==================== User 账号主表 ====================

// User 登录账号，按 Role 关联 Customer / Supplier / Admin 档案
type User struct {
	ID    int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email string `gorm:"size:255;uniqueIndex;not null" json:"email"`

	// 哈希密码，永不出网
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	Role   string `gorm:"size:20;index;not null" json:"role"`
	Status string `gorm:"size:20;index;default:active" json:"status"`

	Phone string `gorm:"size:32" json:"phone"`

	LastLoginAt *time.Time `json:"last_login_at"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsSuspended 检查账号是否已停用
func (u *User) IsSuspended() bool {
	return u.Status == UserStatusSuspended
}

// CanLogin 检查是否允许登录
func (u *User) CanLogin() bool {
	return u.Status == UserStatusActive
}
