package dto

import "time"

// ==================== 会话 ====================

// OpenConversationRequest 发起会话请求（客户侧）
type OpenConversationRequest struct {
	SupplierID int64  `json:"supplier_id" binding:"required,gt=0"`
	OrderID    *int64 `json:"order_id" binding:"omitempty,gt=0"`
}

// ConversationInfo 会话信息
type ConversationInfo struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	SupplierID int64  `json:"supplier_id"`
	OrderID    *int64 `json:"order_id,omitempty"`

	// 对端显示名（客户视角为供应商名，反之为客户名）
	CounterpartName string `json:"counterpart_name,omitempty"`

	UnreadCount   int64      `json:"unread_count"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ==================== 消息 ====================

// SendMessageRequest 发消息请求
type SendMessageRequest struct {
	Body        string   `json:"body" binding:"required,max=5000"`
	Attachments []string `json:"attachments" binding:"omitempty,max=9"`
}

// ChatMessageInfo 消息信息
type ChatMessageInfo struct {
	ID             int64 `json:"id"`
	ConversationID int64 `json:"conversation_id"`
	SenderID       int64 `json:"sender_id"`

	Body        string   `json:"body"`
	Attachments []string `json:"attachments,omitempty"`

	IsRead bool      `json:"is_read"`
	SentAt time.Time `json:"sent_at"`
}

// MessageListRequest 消息历史请求
type MessageListRequest struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=50"`
}
