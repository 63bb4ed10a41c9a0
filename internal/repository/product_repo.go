package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== ProductRepository 商品仓库 ====================

// ProductRepository 商品仓库接口
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	// GetByIDForUpdate 加行级锁读取，下单扣库存事务内使用
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Product, error)
	// GetWithDetails 预加载供应商与分类
	GetWithDetails(ctx context.Context, id int64) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)

	// DecrementStock 原子扣减库存，库存不足时不更新并返回 0 行
	DecrementStock(ctx context.Context, id int64, quantity int) (int64, error)
	// IncrementStock 回补库存（取消订单）
	IncrementStock(ctx context.Context, id int64, quantity int) error
	IncrementSold(ctx context.Context, id int64, quantity int) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	// RefreshRating 按评价表重算评分统计
	RefreshRating(ctx context.Context, id int64) error

	CountBySupplier(ctx context.Context, supplierID int64) (int64, error)
	// FindLowStock 供应商库存低于阈值的在售商品
	FindLowStock(ctx context.Context, supplierID int64) ([]model.Product, error)
}

// ProductFilter 商品筛选条件
type ProductFilter struct {
	Keyword       string
	CategoryID    int64
	SupplierID    int64
	Status        string
	MinPriceCents int64
	MaxPriceCents int64
	InStockOnly   bool
	SortBy        string // price_asc | price_desc | rating | newest | sold
	Page          int
	PageSize      int
}

// ==================== 实现 ====================

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

func (r *productRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := lockForUpdate(r.db.WithContext(ctx)).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

func (r *productRepository) GetWithDetails(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Category").
		First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

// List 商品搜索
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR sku LIKE ? OR brand LIKE ?", keyword, keyword, keyword)
	}
	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.SupplierID > 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MinPriceCents > 0 {
		query = query.Where("price_cents >= ?", filter.MinPriceCents)
	}
	if filter.MaxPriceCents > 0 {
		query = query.Where("price_cents <= ?", filter.MaxPriceCents)
	}
	if filter.InStockOnly {
		query = query.Where("stock_quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 排序
	order := "id DESC"
	switch filter.SortBy {
	case "price_asc":
		order = "price_cents ASC"
	case "price_desc":
		order = "price_cents DESC"
	case "rating":
		order = "rating_avg DESC"
	case "sold":
		order = "sold_count DESC"
	case "newest":
		order = "created_at DESC"
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var products []model.Product
	err := query.
		Preload("Supplier").
		Order(order).
		Offset(offset).
		Limit(pageSize).
		Find(&products).Error

	return products, total, err
}

// DecrementStock 扣减库存
// WHERE 带库存下限，并发下也不会扣成负数；返回受影响行数供调用方判定
func (r *productRepository) DecrementStock(ctx context.Context, id int64, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	return result.RowsAffected, result.Error
}

// IncrementStock 回补库存
func (r *productRepository) IncrementStock(ctx context.Context, id int64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error
}

// IncrementSold 累计销量
func (r *productRepository) IncrementSold(ctx context.Context, id int64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("sold_count", gorm.Expr("sold_count + ?", quantity)).Error
}

func (r *productRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// RefreshRating 重算商品评分
func (r *productRepository) RefreshRating(ctx context.Context, id int64) error {
	var stats struct {
		Avg float64
		Cnt int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS cnt").
		Where("product_id = ?", id).
		Scan(&stats).Error
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating_avg":   stats.Avg,
			"rating_count": stats.Cnt,
		}).Error
}

func (r *productRepository) CountBySupplier(ctx context.Context, supplierID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("supplier_id = ?", supplierID).
		Count(&count).Error
	return count, err
}

func (r *productRepository) FindLowStock(ctx context.Context, supplierID int64) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND status = ? AND stock_quantity <= low_stock_threshold",
			supplierID, model.ProductStatusActive).
		Order("stock_quantity ASC").
		Find(&products).Error
	return products, err
}
