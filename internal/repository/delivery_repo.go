package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== DeliveryRepository 配送单仓库 ====================

// DeliveryRepository 配送单仓库接口
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *model.Delivery) error
	CreateBatch(ctx context.Context, deliveries []model.Delivery) error
	GetByID(ctx context.Context, id int64) (*model.Delivery, error)
	Update(ctx context.Context, delivery *model.Delivery) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	ListByOrder(ctx context.Context, orderID int64) ([]model.Delivery, error)
	ListBySupplier(ctx context.Context, supplierID int64, filter DeliveryFilter) ([]model.Delivery, int64, error)
	// ListByCustomer 经订单关联查客户名下配送单
	ListByCustomer(ctx context.Context, customerID int64, filter DeliveryFilter) ([]model.Delivery, int64, error)
	// AllDelivered 订单下全部配送单是否已送达
	AllDelivered(ctx context.Context, orderID int64) (bool, error)
	// FindUpcoming 时间窗在 [now, now+within) 内开始且未提醒过的配送单
	FindUpcoming(ctx context.Context, now time.Time, within time.Duration) ([]model.Delivery, error)
	// MarkReminded 记录提醒已发送，去重用
	MarkReminded(ctx context.Context, id int64, at time.Time) error
	CountActiveBySupplier(ctx context.Context, supplierID int64) (int64, error)
}

// DeliveryFilter 配送单筛选条件
type DeliveryFilter struct {
	Status   string
	Page     int
	PageSize int
}

// ==================== 实现 ====================

type deliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository 创建配送单仓库
func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, delivery *model.Delivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *deliveryRepository) CreateBatch(ctx context.Context, deliveries []model.Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&deliveries).Error
}

func (r *deliveryRepository) GetByID(ctx context.Context, id int64) (*model.Delivery, error) {
	var delivery model.Delivery
	err := r.db.WithContext(ctx).First(&delivery, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &delivery, err
}

func (r *deliveryRepository) Update(ctx context.Context, delivery *model.Delivery) error {
	return r.db.WithContext(ctx).Save(delivery).Error
}

func (r *deliveryRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == model.DeliveryStatusDelivered {
		updates["delivered_at"] = time.Now()
	}
	return r.db.WithContext(ctx).
		Model(&model.Delivery{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *deliveryRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.Delivery, error) {
	var deliveries []model.Delivery
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&deliveries).Error
	return deliveries, err
}

func (r *deliveryRepository) ListBySupplier(ctx context.Context, supplierID int64, filter DeliveryFilter) ([]model.Delivery, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Delivery{}).
		Where("supplier_id = ?", supplierID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var deliveries []model.Delivery
	err := query.
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&deliveries).Error

	return deliveries, total, err
}

func (r *deliveryRepository) ListByCustomer(ctx context.Context, customerID int64, filter DeliveryFilter) ([]model.Delivery, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Delivery{}).
		Joins("JOIN orders ON orders.id = deliveries.order_id").
		Where("orders.customer_id = ?", customerID)

	if filter.Status != "" {
		query = query.Where("deliveries.status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var deliveries []model.Delivery
	err := query.
		Order("deliveries.id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&deliveries).Error

	return deliveries, total, err
}

func (r *deliveryRepository) AllDelivered(ctx context.Context, orderID int64) (bool, error) {
	var pending int64
	err := r.db.WithContext(ctx).
		Model(&model.Delivery{}).
		Where("order_id = ? AND status != ?", orderID, model.DeliveryStatusDelivered).
		Count(&pending).Error
	return pending == 0, err
}

func (r *deliveryRepository) FindUpcoming(ctx context.Context, now time.Time, within time.Duration) ([]model.Delivery, error) {
	var deliveries []model.Delivery
	err := r.db.WithContext(ctx).
		Where("status = ? AND window_start > ? AND window_start <= ? AND reminder_sent_at IS NULL",
			model.DeliveryStatusScheduled,
			now, now.Add(within)).
		Find(&deliveries).Error
	return deliveries, err
}

func (r *deliveryRepository) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Delivery{}).
		Where("id = ?", id).
		Update("reminder_sent_at", at).Error
}

func (r *deliveryRepository) CountActiveBySupplier(ctx context.Context, supplierID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Delivery{}).
		Where("supplier_id = ? AND status IN ?", supplierID,
			[]string{model.DeliveryStatusScheduled, model.DeliveryStatusInTransit}).
		Count(&count).Error
	return count, err
}
