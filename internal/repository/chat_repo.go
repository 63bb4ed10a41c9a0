package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== ConversationRepository 会话仓库 ====================

// ConversationRepository 会话仓库接口
type ConversationRepository interface {
	// GetOrCreate 查找既有会话，不存在则建新会话
	GetOrCreate(ctx context.Context, customerID, supplierID int64, orderID *int64) (*model.Conversation, error)
	GetByID(ctx context.Context, id int64) (*model.Conversation, error)
	ListByCustomer(ctx context.Context, customerID int64, page, pageSize int) ([]model.Conversation, int64, error)
	ListBySupplier(ctx context.Context, supplierID int64, page, pageSize int) ([]model.Conversation, int64, error)
	TouchLastMessage(ctx context.Context, id int64) error
}

// ChatMessageRepository 私信仓库接口
type ChatMessageRepository interface {
	Create(ctx context.Context, message *model.ChatMessage) error
	ListByConversation(ctx context.Context, conversationID int64, page, pageSize int) ([]model.ChatMessage, int64, error)
	// MarkRead 将会话内他人发送的未读消息置为已读
	MarkRead(ctx context.Context, conversationID, readerID int64) error
	CountUnread(ctx context.Context, conversationID, readerID int64) (int64, error)
}

// ==================== Conversation 实现 ====================

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话仓库
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) GetOrCreate(ctx context.Context, customerID, supplierID int64, orderID *int64) (*model.Conversation, error) {
	query := r.db.WithContext(ctx).
		Where("customer_id = ? AND supplier_id = ?", customerID, supplierID)
	if orderID != nil {
		query = query.Where("order_id = ?", *orderID)
	} else {
		query = query.Where("order_id IS NULL")
	}

	var conv model.Conversation
	err := query.First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = model.Conversation{
		CustomerID: customerID,
		SupplierID: supplierID,
		OrderID:    orderID,
	}
	if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).First(&conv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &conv, err
}

func (r *conversationRepository) ListByCustomer(ctx context.Context, customerID int64, page, pageSize int) ([]model.Conversation, int64, error) {
	return r.list(ctx, "customer_id = ?", customerID, page, pageSize)
}

func (r *conversationRepository) ListBySupplier(ctx context.Context, supplierID int64, page, pageSize int) ([]model.Conversation, int64, error) {
	return r.list(ctx, "supplier_id = ?", supplierID, page, pageSize)
}

func (r *conversationRepository) list(ctx context.Context, cond string, arg int64, page, pageSize int) ([]model.Conversation, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Conversation{}).Where(cond, arg)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	// NULLS LAST 仅 postgres 支持
	order := "last_message_at DESC"
	if r.db.Dialector.Name() == "postgres" {
		order += " NULLS LAST"
	}

	var convs []model.Conversation
	err := query.
		Order(order).
		Offset(offset).
		Limit(pageSize).
		Find(&convs).Error

	return convs, total, err
}

func (r *conversationRepository) TouchLastMessage(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", time.Now()).Error
}

// ==================== ChatMessage 实现 ====================

type chatMessageRepository struct {
	db *gorm.DB
}

// NewChatMessageRepository 创建私信仓库
func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

func (r *chatMessageRepository) Create(ctx context.Context, message *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *chatMessageRepository) ListByConversation(ctx context.Context, conversationID int64, page, pageSize int) ([]model.ChatMessage, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	var messages []model.ChatMessage
	err := query.
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&messages).Error

	return messages, total, err
}

func (r *chatMessageRepository) MarkRead(ctx context.Context, conversationID, readerID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conversationID, readerID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		}).Error
}

func (r *chatMessageRepository) CountUnread(ctx context.Context, conversationID, readerID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conversationID, readerID, false).
		Count(&count).Error
	return count, err
}
