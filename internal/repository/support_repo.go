package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== SupportTicketRepository 工单仓库 ====================

// SupportTicketRepository 客服工单仓库接口
type SupportTicketRepository interface {
	Create(ctx context.Context, ticket *model.SupportTicket) error
	GetByID(ctx context.Context, id int64) (*model.SupportTicket, error)
	// GetWithMessages 预加载全部回复
	GetWithMessages(ctx context.Context, id int64) (*model.SupportTicket, error)
	Update(ctx context.Context, ticket *model.SupportTicket) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Assign(ctx context.Context, id, adminUserID int64) error
	Close(ctx context.Context, id int64) error
	List(ctx context.Context, filter TicketFilter) ([]model.SupportTicket, int64, error)
}

// SupportMessageRepository 工单回复仓库接口
type SupportMessageRepository interface {
	Create(ctx context.Context, message *model.SupportMessage) error
	ListByTicket(ctx context.Context, ticketID int64) ([]model.SupportMessage, error)
}

// TicketFilter 工单筛选条件
type TicketFilter struct {
	UserID     int64
	Status     string
	Priority   string
	AssignedTo int64
	Page       int
	PageSize   int
}

// ==================== SupportTicket 实现 ====================

type supportTicketRepository struct {
	db *gorm.DB
}

// NewSupportTicketRepository 创建工单仓库
func NewSupportTicketRepository(db *gorm.DB) SupportTicketRepository {
	return &supportTicketRepository{db: db}
}

func (r *supportTicketRepository) Create(ctx context.Context, ticket *model.SupportTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *supportTicketRepository) GetByID(ctx context.Context, id int64) (*model.SupportTicket, error) {
	var ticket model.SupportTicket
	err := r.db.WithContext(ctx).First(&ticket, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ticket, err
}

func (r *supportTicketRepository) GetWithMessages(ctx context.Context, id int64) (*model.SupportTicket, error) {
	var ticket model.SupportTicket
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&ticket, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ticket, err
}

func (r *supportTicketRepository) Update(ctx context.Context, ticket *model.SupportTicket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *supportTicketRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.SupportTicket{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *supportTicketRepository) Assign(ctx context.Context, id, adminUserID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.SupportTicket{}).
		Where("id = ?", id).
		Update("assigned_to", adminUserID).Error
}

func (r *supportTicketRepository) Close(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.SupportTicket{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    model.TicketStatusClosed,
			"closed_at": time.Now(),
		}).Error
}

func (r *supportTicketRepository) List(ctx context.Context, filter TicketFilter) ([]model.SupportTicket, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.SupportTicket{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.AssignedTo > 0 {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var tickets []model.SupportTicket
	err := query.
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&tickets).Error

	return tickets, total, err
}

// ==================== SupportMessage 实现 ====================

type supportMessageRepository struct {
	db *gorm.DB
}

// NewSupportMessageRepository 创建工单回复仓库
func NewSupportMessageRepository(db *gorm.DB) SupportMessageRepository {
	return &supportMessageRepository{db: db}
}

func (r *supportMessageRepository) Create(ctx context.Context, message *model.SupportMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *supportMessageRepository) ListByTicket(ctx context.Context, ticketID int64) ([]model.SupportMessage, error) {
	var messages []model.SupportMessage
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("id ASC").
		Find(&messages).Error
	return messages, err
}
