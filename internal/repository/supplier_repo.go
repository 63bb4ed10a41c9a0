package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== SupplierRepository 供应商仓库 ====================

// SupplierRepository 供应商仓库接口
type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	GetByID(ctx context.Context, id int64) (*model.Supplier, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Supplier, error)
	// GetByIDForUpdate 加行级锁读取，审核事务内使用
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Supplier, error)
	Update(ctx context.Context, supplier *model.Supplier) error
	List(ctx context.Context, filter SupplierFilter) ([]model.Supplier, int64, error)
	// RefreshRating 按评价表重算评分统计
	RefreshRating(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// SupplierFilter 供应商筛选条件
type SupplierFilter struct {
	Keyword  string
	Status   string
	Area     string
	Category string
	Page     int
	PageSize int
}

// ==================== 实现 ====================

type supplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository 创建供应商仓库
func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *supplierRepository) GetByID(ctx context.Context, id int64) (*model.Supplier, error) {
	var supplier model.Supplier
	err := r.db.WithContext(ctx).First(&supplier, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &supplier, err
}

func (r *supplierRepository) GetByUserID(ctx context.Context, userID int64) (*model.Supplier, error) {
	var supplier model.Supplier
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&supplier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &supplier, err
}

func (r *supplierRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Supplier, error) {
	var supplier model.Supplier
	err := lockForUpdate(r.db.WithContext(ctx)).First(&supplier, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &supplier, err
}

func (r *supplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

// List 供应商列表
// Area/Category 在 postgres 上走数组包含查询，其他方言退化为全量过滤
func (r *supplierRepository) List(ctx context.Context, filter SupplierFilter) ([]model.Supplier, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Supplier{})

	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		query = query.Where("business_name LIKE ?", keyword)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if r.db.Dialector.Name() == "postgres" {
		if filter.Area != "" {
			query = query.Where("? = ANY(service_areas)", filter.Area)
		}
		if filter.Category != "" {
			query = query.Where("? = ANY(categories)", filter.Category)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var suppliers []model.Supplier
	err := query.
		Order("rating_avg DESC, id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&suppliers).Error

	return suppliers, total, err
}

// RefreshRating 重算供应商评分
// 评价落在商品上，按该供应商全部商品的评价聚合
func (r *supplierRepository) RefreshRating(ctx context.Context, id int64) error {
	sub := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS cnt").
		Where("product_id IN (?)",
			r.db.Model(&model.Product{}).Select("id").Where("supplier_id = ?", id))

	var stats struct {
		Avg float64
		Cnt int64
	}
	if err := sub.Scan(&stats).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&model.Supplier{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating_avg":   stats.Avg,
			"rating_count": stats.Cnt,
		}).Error
}

func (r *supplierRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Supplier{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
