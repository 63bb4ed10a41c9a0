package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== ReviewRepository 评价仓库 ====================

// ReviewRepository 评价仓库接口
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id int64) error
	ListByProduct(ctx context.Context, productID int64, filter ReviewFilter) ([]model.Review, int64, error)
	// ListBySupplier 供应商名下全部商品的评价
	ListBySupplier(ctx context.Context, supplierID int64, filter ReviewFilter) ([]model.Review, int64, error)
	// Exists 同一客户对同一订单内同一商品只能评一次
	Exists(ctx context.Context, productID, customerID, orderID int64) (bool, error)
	// Histogram 按星级统计商品评价条数
	Histogram(ctx context.Context, productID int64) (map[int]int64, error)
}

// ReviewFilter 评价筛选条件
type ReviewFilter struct {
	Rating   int // 0 表示不筛
	Page     int
	PageSize int
}

// ==================== 实现 ====================

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓库
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &review, err
}

func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Review{}, id).Error
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID int64, filter ReviewFilter) ([]model.Review, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("product_id = ?", productID)

	if filter.Rating > 0 {
		query = query.Where("rating = ?", filter.Rating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var reviews []model.Review
	err := query.
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&reviews).Error

	return reviews, total, err
}

func (r *reviewRepository) ListBySupplier(ctx context.Context, supplierID int64, filter ReviewFilter) ([]model.Review, int64, error) {
	sub := r.db.Model(&model.Product{}).
		Select("id").
		Where("supplier_id = ?", supplierID)

	query := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("product_id IN (?)", sub)

	if filter.Rating > 0 {
		query = query.Where("rating = ?", filter.Rating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var reviews []model.Review
	err := query.
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&reviews).Error

	return reviews, total, err
}

func (r *reviewRepository) Exists(ctx context.Context, productID, customerID, orderID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("product_id = ? AND customer_id = ? AND order_id = ?", productID, customerID, orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *reviewRepository) Histogram(ctx context.Context, productID int64) (map[int]int64, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Group("rating").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	histogram := make(map[int]int64, 5)
	for star := 1; star <= 5; star++ {
		histogram[star] = 0
	}
	for _, row := range rows {
		histogram[row.Rating] = row.Count
	}
	return histogram, nil
}
