package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 供应商状态常量 ====================

// SupplierStatus 入驻审核状态
const (
	SupplierStatusPending   = "pending"   // 待审核
	SupplierStatusApproved  = "approved"  // 已通过
	SupplierStatusRejected  = "rejected"  // 已驳回
	SupplierStatusSuspended = "suspended" // 已停用
)

// ==================== Supplier 供应商 ====================

// Supplier 供应商档案，审核通过后才能上架商品
type Supplier struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"uniqueIndex;not null" json:"user_id"`

	BusinessName string `gorm:"size:255;not null" json:"business_name"`
	Description  string `gorm:"type:text" json:"description"`

	// 营业执照/税号
	LicenseNumber string `gorm:"size:64" json:"license_number"`
	TaxNumber     string `gorm:"size:64" json:"tax_number"`

	Status string `gorm:"size:20;index;default:pending" json:"status"`

	// 审核记录
	ReviewedBy   int64      `json:"reviewed_by"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	RejectReason string     `gorm:"type:text" json:"reject_reason"`

	// 配送范围（邮编前缀或城市名）
	ServiceAreas pq.StringArray `gorm:"type:text[]" json:"service_areas"`

	// 经营品类
	Categories pq.StringArray `gorm:"type:text[]" json:"categories"`

	// 仓库地址（PostgreSQL JSONB）
	WarehouseAddress datatypes.JSONMap `gorm:"type:jsonb" json:"warehouse_address"`

	// 起订金额与配送费（分为单位存储）
	MinOrderCents    int64 `gorm:"default:0" json:"min_order_cents"`
	DeliveryFeeCents int64 `gorm:"default:0" json:"delivery_fee_cents"`

	// 评分统计（评价写入时更新）
	RatingAvg   float64 `gorm:"default:0" json:"rating_avg"`
	RatingCount int64   `gorm:"default:0" json:"rating_count"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// GetMinOrder 获取起订金额（元）
func (s *Supplier) GetMinOrder() float64 {
	return float64(s.MinOrderCents) / 100
}

// GetDeliveryFee 获取配送费（元）
func (s *Supplier) GetDeliveryFee() float64 {
	return float64(s.DeliveryFeeCents) / 100
}

// IsApproved 检查是否已通过审核
func (s *Supplier) IsApproved() bool {
	return s.Status == SupplierStatusApproved
}

// CanSell 检查是否允许售卖（上架商品、接单）
func (s *Supplier) CanSell() bool {
	return s.Status == SupplierStatusApproved
}

// CanReview 检查是否处于可审核状态
func (s *Supplier) CanReview() bool {
	return s.Status == SupplierStatusPending
}

// ServesArea 检查配送范围是否覆盖指定区域（空列表视为全区域）
func (s *Supplier) ServesArea(area string) bool {
	if len(s.ServiceAreas) == 0 {
		return true
	}
	for _, a := range s.ServiceAreas {
		if a == area {
			return true
		}
	}
	return false
}
