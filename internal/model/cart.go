package model

import (
	"time"

	"gorm.io/gorm"
)

// ==================== 购物车状态常量 ====================

// CartStatus 购物车状态
const (
	CartStatusActive    = "active"    // 活跃（每个客户同时仅一个）
	CartStatusConverted = "converted" // 已转为订单
	CartStatusAbandoned = "abandoned" // 已放弃
)

// ==================== Cart 购物车 ====================

// Cart 购物车，下单成功后置为 converted
type Cart struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID int64  `gorm:"index:idx_customer_status;not null" json:"customer_id"`
	Status     string `gorm:"size:20;index:idx_customer_status;default:active" json:"status"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`
}

func (Cart) TableName() string {
	return "carts"
}

// IsActive 检查是否活跃购物车
func (c *Cart) IsActive() bool {
	return c.Status == CartStatusActive
}

// SubtotalCents 按快照单价计算商品小计（分）
func (c *Cart) SubtotalCents() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPriceCents * int64(item.Quantity)
	}
	return total
}

// ==================== CartItem 购物车条目 ====================

// CartItem 购物车条目，单价为加入时的快照。
// 同一商品普通购买与尾货购买分属两条（尾货条目带 SurplusListingID），
// 去重由服务层合并数量保证。
type CartItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64 `gorm:"index:idx_cart_product;not null" json:"cart_id"`
	ProductID int64 `gorm:"index:idx_cart_product;not null" json:"product_id"`

	// 尾货购买时指向尾货单，普通购买为空
	SurplusListingID *int64 `gorm:"index" json:"surplus_listing_id"`

	Quantity int `gorm:"not null" json:"quantity"`

	// 加入时单价快照（分为单位存储）
	UnitPriceCents int64 `gorm:"not null" json:"unit_price_cents"`

	// 审计字段
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Product        *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SurplusListing *SurplusListing `gorm:"foreignKey:SurplusListingID" json:"surplus_listing,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// GetUnitPrice 获取单价（元）
func (i *CartItem) GetUnitPrice() float64 {
	return float64(i.UnitPriceCents) / 100
}

// LineTotalCents 条目小计（分）
func (i *CartItem) LineTotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// IsSurplus 检查是否尾货条目
func (i *CartItem) IsSurplus() bool {
	return i.SurplusListingID != nil
}
