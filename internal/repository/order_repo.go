package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
type OrderRepository interface {
	// Create 连同 Items 关联一起落库
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	// GetByIDForUpdate 加行级锁读取（连同订单项），取消与状态推进事务内使用
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error)
	// GetWithDetails 预加载订单项、配送单与流转记录
	GetWithDetails(ctx context.Context, id int64) (*model.Order, error)
	Update(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	// MarkPaid 写入支付结果
	MarkPaid(ctx context.Context, id int64, transactionID string) error
	MarkCancelled(ctx context.Context, id int64, reason string) error
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	// ListBySupplier 含该供应商订单项的订单
	ListBySupplier(ctx context.Context, supplierID int64, filter OrderFilter) ([]model.Order, int64, error)
	AppendTimeline(ctx context.Context, entry *model.OrderTimeline) error
	GetTimeline(ctx context.Context, orderID int64) ([]model.OrderTimeline, error)

	// HasDeliveredProduct 客户是否有包含该商品的已送达订单（评价资格）
	HasDeliveredProduct(ctx context.Context, customerID, productID, orderID int64) (bool, error)
	// CountByPromotionAndCustomer 客户使用某促销码的次数
	CountByPromotionAndCustomer(ctx context.Context, promotionID, customerID int64) (int64, error)

	// 报表统计
	CountSince(ctx context.Context, since time.Time) (int64, error)
	SumRevenueSince(ctx context.Context, since time.Time) (int64, error)
	SupplierSales(ctx context.Context, supplierID int64, since time.Time) (SupplierSalesStats, error)
}

// OrderFilter 订单筛选条件
type OrderFilter struct {
	CustomerID int64
	Status     string
	Page       int
	PageSize   int
}

// SupplierSalesStats 供应商销售统计
type SupplierSalesStats struct {
	OrderCount   int64
	ItemCount    int64
	RevenueCents int64
}

// ==================== 实现 ====================

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	// 先锁订单行，再单独加载订单项，避免锁子句作用到 JOIN 上
	var order model.Order
	err := lockForUpdate(r.db.WithContext(ctx)).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("id ASC").
		Find(&order.Items).Error
	return &order, err
}

func (r *orderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) GetWithDetails(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Deliveries").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *orderRepository) MarkPaid(ctx context.Context, id int64, transactionID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatusPaid,
			"transaction_id": transactionID,
			"paid_at":        time.Now(),
		}).Error
}

func (r *orderRepository) MarkCancelled(ctx context.Context, id int64, reason string) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.OrderStatusCancelled,
			"cancelled_at":  time.Now(),
			"cancel_reason": reason,
		}).Error
}

// List 客户订单列表
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})

	if filter.CustomerID > 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
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

	var orders []model.Order
	err := query.
		Preload("Items").
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}

// ListBySupplier 供应商视角的订单列表（订单项中含其商品）
func (r *orderRepository) ListBySupplier(ctx context.Context, supplierID int64, filter OrderFilter) ([]model.Order, int64, error) {
	sub := r.db.Model(&model.OrderItem{}).
		Select("DISTINCT order_id").
		Where("supplier_id = ?", supplierID)

	query := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id IN (?)", sub)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var orders []model.Order
	err := query.
		Preload("Items", "supplier_id = ?", supplierID).
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepository) AppendTimeline(ctx context.Context, entry *model.OrderTimeline) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *orderRepository) GetTimeline(ctx context.Context, orderID int64) ([]model.OrderTimeline, error) {
	var entries []model.OrderTimeline
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// HasDeliveredProduct 评价资格校验
func (r *orderRepository) HasDeliveredProduct(ctx context.Context, customerID, productID, orderID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.id = ? AND orders.customer_id = ? AND orders.status = ? AND order_items.product_id = ?",
			orderID, customerID, model.OrderStatusDelivered, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *orderRepository) CountByPromotionAndCustomer(ctx context.Context, promotionID, customerID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("promotion_id = ? AND customer_id = ? AND status != ?",
			promotionID, customerID, model.OrderStatusCancelled).
		Count(&count).Error
	return count, err
}

// ==================== 报表统计 ====================

func (r *orderRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *orderRepository) SumRevenueSince(ctx context.Context, since time.Time) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("COALESCE(SUM(grand_total_cents), 0)").
		Where("created_at >= ? AND payment_status = ? AND status != ?",
			since, model.PaymentStatusPaid, model.OrderStatusCancelled).
		Scan(&sum).Error
	return sum, err
}

func (r *orderRepository) SupplierSales(ctx context.Context, supplierID int64, since time.Time) (SupplierSalesStats, error) {
	var stats SupplierSalesStats
	err := r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Select("COUNT(DISTINCT order_items.order_id) AS order_count, COALESCE(SUM(order_items.quantity), 0) AS item_count, COALESCE(SUM(order_items.total_cents), 0) AS revenue_cents").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.supplier_id = ? AND orders.created_at >= ? AND orders.status != ?",
			supplierID, since, model.OrderStatusCancelled).
		Scan(&stats).Error
	return stats, err
}

// ==================== 事务支持 ====================

// UnitOfWork 跨仓库事务单元
// 下单事务横跨购物车、商品库存、尾货数量、促销用量、赊购额度、配送单与通知；
// 评价聚合、供应商审核等多表写入也复用同一单元
type UnitOfWork struct {
	db            *gorm.DB
	Orders        OrderRepository
	Products      ProductRepository
	Carts         CartRepository
	CartItems     CartItemRepository
	Customers     CustomerRepository
	Suppliers     SupplierRepository
	Surplus       SurplusRepository
	Promotions    PromotionRepository
	Deliveries    DeliveryRepository
	Notifications NotificationRepository
	Reviews       ReviewRepository
	Users         UserRepository
}

// NewUnitOfWork 创建工作单元
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:            db,
		Orders:        NewOrderRepository(db),
		Products:      NewProductRepository(db),
		Carts:         NewCartRepository(db),
		CartItems:     NewCartItemRepository(db),
		Customers:     NewCustomerRepository(db),
		Suppliers:     NewSupplierRepository(db),
		Surplus:       NewSurplusRepository(db),
		Promotions:    NewPromotionRepository(db),
		Deliveries:    NewDeliveryRepository(db),
		Notifications: NewNotificationRepository(db),
		Reviews:       NewReviewRepository(db),
		Users:         NewUserRepository(db),
	}
}

// Transaction 执行事务，fn 返回错误即整体回滚
func (u *UnitOfWork) Transaction(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUnitOfWork(tx))
	})
}
