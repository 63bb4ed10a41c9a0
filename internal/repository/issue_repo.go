package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== IssueRepository 售后纠纷仓库 ====================

// IssueRepository 售后纠纷仓库接口
type IssueRepository interface {
	Create(ctx context.Context, issue *model.Issue) error
	GetByID(ctx context.Context, id int64) (*model.Issue, error)
	Update(ctx context.Context, issue *model.Issue) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	// Resolve 写入裁定结果并关单
	Resolve(ctx context.Context, id int64, resolution string, resolvedBy int64) error
	List(ctx context.Context, filter IssueFilter) ([]model.Issue, int64, error)
	CountOpen(ctx context.Context) (int64, error)
}

// IssueFilter 纠纷筛选条件
type IssueFilter struct {
	CustomerID int64
	SupplierID int64
	OrderID    int64
	Status     string
	Type       string
	Page       int
	PageSize   int
}

// ==================== 实现 ====================

type issueRepository struct {
	db *gorm.DB
}

// NewIssueRepository 创建纠纷仓库
func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) error {
	return r.db.WithContext(ctx).Create(issue).Error
}

func (r *issueRepository) GetByID(ctx context.Context, id int64) (*model.Issue, error) {
	var issue model.Issue
	err := r.db.WithContext(ctx).First(&issue, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &issue, err
}

func (r *issueRepository) Update(ctx context.Context, issue *model.Issue) error {
	return r.db.WithContext(ctx).Save(issue).Error
}

func (r *issueRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Issue{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *issueRepository) Resolve(ctx context.Context, id int64, resolution string, resolvedBy int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Issue{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.IssueStatusResolved,
			"resolution":  resolution,
			"resolved_by": resolvedBy,
			"resolved_at": time.Now(),
		}).Error
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]model.Issue, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Issue{})

	if filter.CustomerID > 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.SupplierID > 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.OrderID > 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var issues []model.Issue
	err := query.
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&issues).Error

	return issues, total, err
}

func (r *issueRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Issue{}).
		Where("status IN ?", []string{model.IssueStatusOpen, model.IssueStatusInvestigating}).
		Count(&count).Error
	return count, err
}
