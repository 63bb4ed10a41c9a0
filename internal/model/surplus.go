package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ==================== 尾货状态常量 ====================

// SurplusStatus 尾货单状态
const (
	SurplusStatusActive    = "active"    // 在售
	SurplusStatusSoldOut   = "sold_out"  // 售罄
	SurplusStatusExpired   = "expired"   // 已过期（定时任务标记）
	SurplusStatusWithdrawn = "withdrawn" // 已撤回
)

// SurplusCondition 货品成色
const (
	ConditionNew             = "new"              // 全新
	ConditionOpenBox         = "open_box"         // 已开封
	ConditionSlightlyDamaged = "slightly_damaged" // 轻微破损
)

// ==================== SurplusListing 尾货清仓单 ====================

// SurplusListing 工程剩余/清仓建材，限时折价出售
type SurplusListing struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	SupplierID int64 `gorm:"index;not null" json:"supplier_id"`

	// 关联在售商品，可为空（独立尾货）
	ProductID *int64 `gorm:"index" json:"product_id"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Condition   string `gorm:"size:20;default:new" json:"condition"`

	Quantity int    `gorm:"not null" json:"quantity"`
	Unit     string `gorm:"size:20;default:piece" json:"unit"`

	// 折后价与原价（分为单位存储）
	UnitPriceCents     int64 `gorm:"not null" json:"unit_price_cents"`
	OriginalPriceCents int64 `json:"original_price_cents"`

	Images pq.StringArray `gorm:"type:text[]" json:"images"`

	// 过期即下架
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`

	Status string `gorm:"size:20;index;default:active" json:"status"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SurplusListing) TableName() string {
	return "surplus_listings"
}

// GetUnitPrice 获取折后单价（元）
func (s *SurplusListing) GetUnitPrice() float64 {
	return float64(s.UnitPriceCents) / 100
}

// DiscountPercent 折扣百分比（无原价时为 0）
func (s *SurplusListing) DiscountPercent() int {
	if s.OriginalPriceCents <= 0 || s.UnitPriceCents >= s.OriginalPriceCents {
		return 0
	}
	return int((s.OriginalPriceCents - s.UnitPriceCents) * 100 / s.OriginalPriceCents)
}

// IsExpired 检查是否已过截止时间
func (s *SurplusListing) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// CanPurchase 检查数量是否可购买
func (s *SurplusListing) CanPurchase(quantity int, now time.Time) bool {
	return s.Status == SurplusStatusActive && !s.IsExpired(now) && s.Quantity >= quantity
}
