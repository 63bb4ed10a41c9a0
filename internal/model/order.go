package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 订单状态常量 ====================

// OrderStatus 订单状态
const (
	OrderStatusPending            = "pending"             // 待确认
	OrderStatusConfirmed          = "confirmed"           // 已确认（供应商接单）
	OrderStatusProcessing         = "processing"          // 备货中
	OrderStatusPartiallyDelivered = "partially_delivered" // 部分送达（多供应商订单）
	OrderStatusDelivered          = "delivered"           // 已送达
	OrderStatusCancelled          = "cancelled"           // 已取消
)

// PaymentMethod 支付方式
const (
	PaymentMethodCard        = "card"         // 银行卡
	PaymentMethodTradeCredit = "trade_credit" // 赊购（企业客户）
)

// PaymentStatus 支付状态
const (
	PaymentStatusPending  = "pending"  // 待支付
	PaymentStatusPaid     = "paid"     // 已支付
	PaymentStatusFailed   = "failed"   // 支付失败
	PaymentStatusRefunded = "refunded" // 已退款
)

// orderTransitions 合法状态流转表
var orderTransitions = map[string][]string{
	OrderStatusPending:            {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:          {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:         {OrderStatusPartiallyDelivered, OrderStatusDelivered},
	OrderStatusPartiallyDelivered: {OrderStatusDelivered},
}

// ==================== Order 订单主表 ====================

// Order 订单
type Order struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo    string `gorm:"size:40;uniqueIndex;not null" json:"order_no"`
	CustomerID int64  `gorm:"index;not null" json:"customer_id"`

	Status string `gorm:"size:20;index;default:pending" json:"status"`

	// 金额（分为单位存储）
	SubtotalCents    int64  `json:"subtotal_cents"`
	TaxCents         int64  `json:"tax_cents"`
	DeliveryFeeCents int64  `json:"delivery_fee_cents"`
	DiscountCents    int64  `json:"discount_cents"`
	GrandTotalCents  int64  `json:"grand_total_cents"`
	Currency         string `gorm:"size:10;default:USD" json:"currency"`

	// 优惠
	PromotionID *int64 `gorm:"index" json:"promotion_id"`
	PromoCode   string `gorm:"size:64" json:"promo_code"`

	// 支付
	PaymentMethod string `gorm:"size:32" json:"payment_method"`
	PaymentStatus string `gorm:"size:20;default:pending" json:"payment_status"`
	TransactionID string `gorm:"size:64" json:"transaction_id"`
	PaidAt        *time.Time `json:"paid_at"`

	// 收货地址（PostgreSQL JSONB）
	DeliveryAddress datatypes.JSONMap `gorm:"type:jsonb" json:"delivery_address"`

	// 客户备注
	Notes string `gorm:"type:text" json:"notes"`

	// 取消信息
	CancelledAt  *time.Time `json:"cancelled_at"`
	CancelReason string     `gorm:"size:500" json:"cancel_reason"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	Items      []OrderItem      `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Deliveries []Delivery       `gorm:"foreignKey:OrderID" json:"deliveries,omitempty"`
	Timeline   []OrderTimeline  `gorm:"foreignKey:OrderID" json:"timeline,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// GetSubtotal 获取小计金额（元）
func (o *Order) GetSubtotal() float64 {
	return float64(o.SubtotalCents) / 100
}

// GetTax 获取税费（元）
func (o *Order) GetTax() float64 {
	return float64(o.TaxCents) / 100
}

// GetDeliveryFee 获取配送费（元）
func (o *Order) GetDeliveryFee() float64 {
	return float64(o.DeliveryFeeCents) / 100
}

// GetDiscount 获取折扣（元）
func (o *Order) GetDiscount() float64 {
	return float64(o.DiscountCents) / 100
}

// GetGrandTotal 获取总金额（元）
func (o *Order) GetGrandTotal() float64 {
	return float64(o.GrandTotalCents) / 100
}

// IsPaid 检查是否已支付
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// CanCancel 检查是否可以取消（发货前）
func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// CanTransitionTo 检查状态流转是否合法
func (o *Order) CanTransitionTo(next string) bool {
	for _, s := range orderTransitions[o.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// SupplierIDs 去重返回订单涉及的供应商
func (o *Order) SupplierIDs() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, item := range o.Items {
		if !seen[item.SupplierID] {
			seen[item.SupplierID] = true
			ids = append(ids, item.SupplierID)
		}
	}
	return ids
}

// ==================== OrderItem 订单项 ====================

// OrderItem 订单项，商品信息为下单时快照
type OrderItem struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64 `gorm:"index;not null" json:"order_id"`
	ProductID  int64 `gorm:"index;not null" json:"product_id"`
	SupplierID int64 `gorm:"index;not null" json:"supplier_id"`

	// 尾货购买时指向尾货单
	SurplusListingID *int64 `gorm:"index" json:"surplus_listing_id"`

	// 下单时快照
	ProductName string `gorm:"size:255" json:"product_name"`
	SKU         string `gorm:"size:100" json:"sku"`
	Unit        string `gorm:"size:20" json:"unit"`

	Quantity       int   `gorm:"not null" json:"quantity"`
	UnitPriceCents int64 `gorm:"not null" json:"unit_price_cents"`
	TotalCents     int64 `gorm:"not null" json:"total_cents"`

	// 审计字段
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// GetUnitPrice 获取单价（元）
func (i *OrderItem) GetUnitPrice() float64 {
	return float64(i.UnitPriceCents) / 100
}

// GetTotal 获取小计（元）
func (i *OrderItem) GetTotal() float64 {
	return float64(i.TotalCents) / 100
}

// ==================== OrderTimeline 订单流转记录 ====================

// OrderTimeline 订单状态流转记录，只追加不修改
type OrderTimeline struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64  `gorm:"index;not null" json:"order_id"`
	Status  string `gorm:"size:20;not null" json:"status"`
	Note    string `gorm:"size:500" json:"note"`

	// 操作人（0 表示系统）
	ActorID int64 `json:"actor_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (OrderTimeline) TableName() string {
	return "order_timelines"
}
