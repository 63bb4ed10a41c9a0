package model

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType 通知类型
const (
	NotifyOrderCreated      = "order_created"       // 新订单（发给供应商）
	NotifyOrderStatus       = "order_status"        // 订单状态变更（发给客户）
	NotifyDeliveryUpdate    = "delivery_update"     // 配送进度
	NotifyDeliveryReminder  = "delivery_reminder"   // 配送时间窗提醒
	NotifyLowStock          = "low_stock"           // 库存低于阈值（发给供应商）
	NotifySupplierReviewed  = "supplier_reviewed"   // 入驻审核结果
	NotifyNewReview         = "new_review"          // 收到新评价
	NotifyIssueUpdate       = "issue_update"        // 售后纠纷进展
	NotifyChatMessage       = "chat_message"        // 新私信
	NotifyPromotion         = "promotion"           // 平台活动
	NotifyTicketUpdate      = "ticket_update"       // 客服工单进展
)

// Notification 站内通知
type Notification struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64  `gorm:"index:idx_user_read;not null" json:"user_id"`
	Type   string `gorm:"size:32;index;not null" json:"type"`

	Title string `gorm:"size:255;not null" json:"title"`
	Body  string `gorm:"size:1000" json:"body"`

	// 跳转上下文（PostgreSQL JSONB：order_id、product_id 等）
	Data datatypes.JSONMap `gorm:"type:jsonb" json:"data"`

	IsRead bool       `gorm:"index:idx_user_read;default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
