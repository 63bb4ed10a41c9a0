package dto

import "time"

// ==================== 工单提交 ====================

// CreateTicketRequest 工单提交请求
type CreateTicketRequest struct {
	Subject  string `json:"subject" binding:"required,max=255"`
	Category string `json:"category" binding:"omitempty,max=50"`
	Priority string `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Body     string `json:"body" binding:"required,max=10000"`
}

// TicketMessageRequest 工单回复请求
type TicketMessageRequest struct {
	Body string `json:"body" binding:"required,max=10000"`
}

// UpdateTicketStatusRequest 工单状态变更请求（管理员）
type UpdateTicketStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open pending resolved closed"`
}

// ==================== 工单查询 ====================

// TicketListRequest 工单列表请求
type TicketListRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=open pending resolved closed"`
	Priority string `form:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// TicketMessageInfo 工单消息
type TicketMessageInfo struct {
	ID       int64     `json:"id"`
	SenderID int64     `json:"sender_id"`
	Body     string    `json:"body"`
	IsStaff  bool      `json:"is_staff"`
	SentAt   time.Time `json:"sent_at"`
}

// TicketInfo 工单信息
type TicketInfo struct {
	ID           int64  `json:"id"`
	TicketNumber string `json:"ticket_number"`
	UserID       int64  `json:"user_id"`

	Subject  string `json:"subject"`
	Category string `json:"category,omitempty"`
	Priority string `json:"priority"`
	Status   string `json:"status"`

	AssignedTo *int64     `json:"assigned_to,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TicketDetail 工单详情（含消息串）
type TicketDetail struct {
	TicketInfo
	Messages []*TicketMessageInfo `json:"messages"`
}
