package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ==================== Conversation 会话 ====================

// Conversation 客户与供应商的私信会话
// 同一对客户/供应商（含订单上下文）只建一个会话
type Conversation struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID int64 `gorm:"index:idx_conv_pair;not null" json:"customer_id"`
	SupplierID int64 `gorm:"index:idx_conv_pair;not null" json:"supplier_id"`

	// 关联订单，可为空（通用咨询会话）
	OrderID *int64 `gorm:"index" json:"order_id"`

	LastMessageAt *time.Time `gorm:"index" json:"last_message_at"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	Messages []ChatMessage `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// HasParticipant 检查用户是否会话参与方（customer/supplier 档案 ID）
func (c *Conversation) HasParticipant(customerID, supplierID int64) bool {
	return c.CustomerID == customerID || c.SupplierID == supplierID
}

// ==================== ChatMessage 私信 ====================

// ChatMessage 会话消息
type ChatMessage struct {
	ID             int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID int64 `gorm:"index;not null" json:"conversation_id"`

	// 发送方 User ID
	SenderID int64 `gorm:"index;not null" json:"sender_id"`

	Body string `gorm:"type:text;not null" json:"body"`

	// 附件（报价单、图片 URL）
	Attachments pq.StringArray `gorm:"type:text[]" json:"attachments"`

	IsRead bool       `gorm:"default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
