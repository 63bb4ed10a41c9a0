package model

import (
	"time"

	"gorm.io/gorm"
)

// ==================== 工单状态常量 ====================

// TicketStatus 工单状态
const (
	TicketStatusOpen     = "open"     // 待受理
	TicketStatusPending  = "pending"  // 等待用户补充
	TicketStatusResolved = "resolved" // 已解决
	TicketStatusClosed   = "closed"   // 已关闭
)

// TicketPriority 工单优先级
const (
	TicketPriorityLow    = "low"
	TicketPriorityNormal = "normal"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

// ==================== SupportTicket 客服工单 ====================

// SupportTicket 平台客服工单，任意角色均可提交
type SupportTicket struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketNumber string `gorm:"size:40;uniqueIndex;not null" json:"ticket_number"`
	UserID       int64  `gorm:"index;not null" json:"user_id"`

	Subject  string `gorm:"size:255;not null" json:"subject"`
	Category string `gorm:"size:50" json:"category"`
	Priority string `gorm:"size:20;default:normal" json:"priority"`
	Status   string `gorm:"size:20;index;default:open" json:"status"`

	// 受理客服（Admin 的 UserID），空表示未分配
	AssignedTo *int64 `gorm:"index" json:"assigned_to"`

	ClosedAt *time.Time `json:"closed_at"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	Messages []SupportMessage `gorm:"foreignKey:TicketID" json:"messages,omitempty"`
}

func (SupportTicket) TableName() string {
	return "support_tickets"
}

// IsOpen 检查工单是否仍可回复
func (t *SupportTicket) IsOpen() bool {
	return t.Status == TicketStatusOpen || t.Status == TicketStatusPending
}

// ==================== SupportMessage 工单回复 ====================

// SupportMessage 工单消息
type SupportMessage struct {
	ID       int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketID int64 `gorm:"index;not null" json:"ticket_id"`
	SenderID int64 `gorm:"not null" json:"sender_id"`

	Body string `gorm:"type:text;not null" json:"body"`

	// 是否平台客服回复
	IsStaff bool `gorm:"default:false" json:"is_staff"`

	CreatedAt time.Time `json:"created_at"`
}

func (SupportMessage) TableName() string {
	return "support_messages"
}
