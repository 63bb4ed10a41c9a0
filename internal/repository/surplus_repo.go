package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== SurplusRepository 尾货仓库 ====================

// SurplusRepository 尾货清仓单仓库接口
type SurplusRepository interface {
	Create(ctx context.Context, listing *model.SurplusListing) error
	GetByID(ctx context.Context, id int64) (*model.SurplusListing, error)
	// GetByIDForUpdate 加行级锁读取，购买扣数量事务内使用
	GetByIDForUpdate(ctx context.Context, id int64) (*model.SurplusListing, error)
	Update(ctx context.Context, listing *model.SurplusListing) error
	List(ctx context.Context, filter SurplusFilter) ([]model.SurplusListing, int64, error)

	// DecrementQuantity 原子扣减数量，不足时返回 0 行
	DecrementQuantity(ctx context.Context, id int64, quantity int) (int64, error)
	// IncrementQuantity 回补数量（取消订单）
	IncrementQuantity(ctx context.Context, id int64, quantity int) error
	UpdateStatus(ctx context.Context, id int64, status string) error

	// FindExpired 过期但仍标记在售的尾货单（定时任务）
	FindExpired(ctx context.Context, now time.Time) ([]model.SurplusListing, error)
	MarkExpired(ctx context.Context, id int64) error
}

// SurplusFilter 尾货筛选条件
type SurplusFilter struct {
	SupplierID    int64
	Condition     string
	Status        string
	MaxPriceCents int64
	// ActiveOnly 仅在售且未过期
	ActiveOnly bool
	Page       int
	PageSize   int
}

// ==================== 实现 ====================

type surplusRepository struct {
	db *gorm.DB
}

// NewSurplusRepository 创建尾货仓库
func NewSurplusRepository(db *gorm.DB) SurplusRepository {
	return &surplusRepository{db: db}
}

func (r *surplusRepository) Create(ctx context.Context, listing *model.SurplusListing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *surplusRepository) GetByID(ctx context.Context, id int64) (*model.SurplusListing, error) {
	var listing model.SurplusListing
	err := r.db.WithContext(ctx).First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &listing, err
}

func (r *surplusRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.SurplusListing, error) {
	var listing model.SurplusListing
	err := lockForUpdate(r.db.WithContext(ctx)).First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &listing, err
}

func (r *surplusRepository) Update(ctx context.Context, listing *model.SurplusListing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *surplusRepository) List(ctx context.Context, filter SurplusFilter) ([]model.SurplusListing, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.SurplusListing{})

	if filter.SupplierID > 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Condition != "" {
		query = query.Where("condition = ?", filter.Condition)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MaxPriceCents > 0 {
		query = query.Where("unit_price_cents <= ?", filter.MaxPriceCents)
	}
	if filter.ActiveOnly {
		query = query.Where("status = ? AND expires_at > ?", model.SurplusStatusActive, time.Now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var listings []model.SurplusListing
	err := query.
		Order("expires_at ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&listings).Error

	return listings, total, err
}

// DecrementQuantity 扣减尾货数量
// WHERE 带数量下限，并发下不会超卖
func (r *surplusRepository) DecrementQuantity(ctx context.Context, id int64, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.SurplusListing{}).
		Where("id = ? AND quantity >= ? AND status = ?", id, quantity, model.SurplusStatusActive).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	return result.RowsAffected, result.Error
}

// IncrementQuantity 回补尾货数量
func (r *surplusRepository) IncrementQuantity(ctx context.Context, id int64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&model.SurplusListing{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", quantity)).Error
}

func (r *surplusRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.SurplusListing{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *surplusRepository) FindExpired(ctx context.Context, now time.Time) ([]model.SurplusListing, error) {
	var listings []model.SurplusListing
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", model.SurplusStatusActive, now).
		Find(&listings).Error
	return listings, err
}

func (r *surplusRepository) MarkExpired(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.SurplusListing{}).
		Where("id = ?", id).
		Update("status", model.SurplusStatusExpired).Error
}
