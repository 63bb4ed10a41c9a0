package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== PromotionRepository 促销仓库 ====================

// PromotionRepository 促销码仓库接口
type PromotionRepository interface {
	Create(ctx context.Context, promotion *model.Promotion) error
	GetByID(ctx context.Context, id int64) (*model.Promotion, error)
	GetByCode(ctx context.Context, code string) (*model.Promotion, error)
	// GetByCodeForUpdate 加行级锁读取，下单占用名额事务内使用
	GetByCodeForUpdate(ctx context.Context, code string) (*model.Promotion, error)
	Update(ctx context.Context, promotion *model.Promotion) error
	List(ctx context.Context, filter PromotionFilter) ([]model.Promotion, int64, error)

	// IncrementUsage 原子占用一个名额，超限时返回 0 行
	IncrementUsage(ctx context.Context, id int64) (int64, error)

	// FindExpired 已过截止时间但仍标记生效的促销（定时任务）
	FindExpired(ctx context.Context, now time.Time) ([]model.Promotion, error)
	// FindExhausted 名额用尽但仍标记生效的促销（定时任务）
	FindExhausted(ctx context.Context) ([]model.Promotion, error)
	MarkExpired(ctx context.Context, id int64) error
}

// PromotionFilter 促销筛选条件
type PromotionFilter struct {
	SupplierID int64
	Status     string
	Page       int
	PageSize   int
}

// ==================== 实现 ====================

type promotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository 创建促销仓库
func NewPromotionRepository(db *gorm.DB) PromotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) Create(ctx context.Context, promotion *model.Promotion) error {
	return r.db.WithContext(ctx).Create(promotion).Error
}

func (r *promotionRepository) GetByID(ctx context.Context, id int64) (*model.Promotion, error) {
	var promotion model.Promotion
	err := r.db.WithContext(ctx).First(&promotion, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &promotion, err
}

func (r *promotionRepository) GetByCode(ctx context.Context, code string) (*model.Promotion, error) {
	var promotion model.Promotion
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&promotion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &promotion, err
}

func (r *promotionRepository) GetByCodeForUpdate(ctx context.Context, code string) (*model.Promotion, error) {
	var promotion model.Promotion
	err := lockForUpdate(r.db.WithContext(ctx)).Where("code = ?", code).First(&promotion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &promotion, err
}

func (r *promotionRepository) Update(ctx context.Context, promotion *model.Promotion) error {
	return r.db.WithContext(ctx).Save(promotion).Error
}

func (r *promotionRepository) List(ctx context.Context, filter PromotionFilter) ([]model.Promotion, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Promotion{})

	if filter.SupplierID > 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var promotions []model.Promotion
	err := query.
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&promotions).Error

	return promotions, total, err
}

// IncrementUsage 占用促销名额
// usage_limit = 0 表示不限量，否则 WHERE 卡上限防止超发
func (r *promotionRepository) IncrementUsage(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Promotion{}).
		Where("id = ? AND (usage_limit = 0 OR usage_count < usage_limit)", id).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	return result.RowsAffected, result.Error
}

func (r *promotionRepository) FindExpired(ctx context.Context, now time.Time) ([]model.Promotion, error) {
	var promotions []model.Promotion
	err := r.db.WithContext(ctx).
		Where("status = ? AND ends_at <= ?", model.PromoStatusActive, now).
		Find(&promotions).Error
	return promotions, err
}

func (r *promotionRepository) FindExhausted(ctx context.Context) ([]model.Promotion, error) {
	var promotions []model.Promotion
	err := r.db.WithContext(ctx).
		Where("status = ? AND usage_limit > 0 AND usage_count >= usage_limit", model.PromoStatusActive).
		Find(&promotions).Error
	return promotions, err
}

func (r *promotionRepository) MarkExpired(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Promotion{}).
		Where("id = ?", id).
		Update("status", model.PromoStatusExpired).Error
}
