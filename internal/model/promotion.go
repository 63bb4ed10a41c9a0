package model

import (
	"time"

	"gorm.io/gorm"
)

// ==================== 促销常量 ====================

// PromotionType 折扣类型
const (
	PromoTypePercent = "percent" // 按比例（DiscountValue 为百分比，如 15 = 85 折）
	PromoTypeFixed   = "fixed"   // 固定金额（DiscountValue 为分）
)

// PromotionStatus 促销状态
const (
	PromoStatusActive  = "active"  // 生效中
	PromoStatusPaused  = "paused"  // 已暂停
	PromoStatusExpired = "expired" // 已过期（定时任务标记）
)

// ==================== Promotion 促销码 ====================

// Promotion 促销码，下单时按码校验并抵扣
type Promotion struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Code string `gorm:"size:64;uniqueIndex;not null" json:"code"`

	Description string `gorm:"size:500" json:"description"`

	// 归属供应商，空表示平台级活动
	SupplierID *int64 `gorm:"index" json:"supplier_id"`

	DiscountType  string `gorm:"size:20;not null" json:"discount_type"`
	DiscountValue int64  `gorm:"not null" json:"discount_value"`

	// 使用门槛与封顶（分为单位存储）
	MinOrderCents    int64 `gorm:"default:0" json:"min_order_cents"`
	MaxDiscountCents int64 `gorm:"default:0" json:"max_discount_cents"`

	StartsAt time.Time `gorm:"not null" json:"starts_at"`
	EndsAt   time.Time `gorm:"index;not null" json:"ends_at"`

	// 用量控制（0 表示不限）
	UsageLimit int64 `gorm:"default:0" json:"usage_limit"`
	UsageCount int64 `gorm:"default:0" json:"usage_count"`

	Status string `gorm:"size:20;index;default:active" json:"status"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Promotion) TableName() string {
	return "promotions"
}

// IsLive 检查当前时刻是否生效
func (p *Promotion) IsLive(now time.Time) bool {
	if p.Status != PromoStatusActive {
		return false
	}
	if now.Before(p.StartsAt) || now.After(p.EndsAt) {
		return false
	}
	if p.UsageLimit > 0 && p.UsageCount >= p.UsageLimit {
		return false
	}
	return true
}

// MeetsMinOrder 检查订单小计是否达到使用门槛
func (p *Promotion) MeetsMinOrder(subtotalCents int64) bool {
	return subtotalCents >= p.MinOrderCents
}

// DiscountFor 计算可抵扣金额（分），不超过小计与封顶值
func (p *Promotion) DiscountFor(subtotalCents int64) int64 {
	var discount int64
	switch p.DiscountType {
	case PromoTypePercent:
		discount = subtotalCents * p.DiscountValue / 100
	case PromoTypeFixed:
		discount = p.DiscountValue
	}
	if p.MaxDiscountCents > 0 && discount > p.MaxDiscountCents {
		discount = p.MaxDiscountCents
	}
	if discount > subtotalCents {
		discount = subtotalCents
	}
	return discount
}
