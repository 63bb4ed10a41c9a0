package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ==================== 售后状态常量 ====================

// IssueType 售后问题类型
const (
	IssueTypeDamaged   = "damaged"    // 货物破损
	IssueTypeMissing   = "missing"    // 缺件少发
	IssueTypeWrongItem = "wrong_item" // 发错货
	IssueTypeLate      = "late"       // 严重延误
	IssueTypeOther     = "other"      // 其他
)

// IssueStatus 处理状态
const (
	IssueStatusOpen          = "open"          // 待处理
	IssueStatusInvestigating = "investigating" // 处理中
	IssueStatusResolved      = "resolved"      // 已解决
	IssueStatusClosed        = "closed"        // 已关闭
)

// ==================== Issue 售后纠纷 ====================

// Issue 售后纠纷，客户针对订单提交，管理员介入裁定
type Issue struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64 `gorm:"index;not null" json:"order_id"`
	CustomerID int64 `gorm:"index;not null" json:"customer_id"`
	SupplierID int64 `gorm:"index;not null" json:"supplier_id"`

	Type        string `gorm:"size:20;not null" json:"type"`
	Description string `gorm:"type:text;not null" json:"description"`

	// 举证照片
	Photos pq.StringArray `gorm:"type:text[]" json:"photos"`

	Status string `gorm:"size:20;index;default:open" json:"status"`

	// 裁定结果
	Resolution string     `gorm:"type:text" json:"resolution"`
	ResolvedBy int64      `json:"resolved_by"`
	ResolvedAt *time.Time `json:"resolved_at"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Issue) TableName() string {
	return "issues"
}

// IsOpen 检查是否待处理
func (i *Issue) IsOpen() bool {
	return i.Status == IssueStatusOpen || i.Status == IssueStatusInvestigating
}

// CanResolve 检查是否可裁定
func (i *Issue) CanResolve() bool {
	return i.IsOpen()
}
