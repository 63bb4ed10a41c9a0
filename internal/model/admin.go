package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// AdminPermission 管理员权限项
const (
	PermSupplierReview = "supplier_review" // 供应商审核
	PermUserManage     = "user_manage"     // 用户管理
	PermIssueManage    = "issue_manage"    // 纠纷处理
	PermPlatformStats  = "platform_stats"  // 平台报表
)

// Admin 管理员档案
type Admin struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"uniqueIndex;not null" json:"user_id"`

	DisplayName string `gorm:"size:255;not null" json:"display_name"`

	// 权限列表，空表示全权限
	Permissions pq.StringArray `gorm:"type:text[]" json:"permissions"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Admin) TableName() string {
	return "admins"
}

// HasPermission 检查是否拥有指定权限
func (a *Admin) HasPermission(perm string) bool {
	if len(a.Permissions) == 0 {
		return true
	}
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
