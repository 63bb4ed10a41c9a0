package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 商品状态常量 ====================

// ProductStatus 商品状态
const (
	ProductStatusActive     = "active"       // 在售
	ProductStatusInactive   = "inactive"     // 下架
	ProductStatusOutOfStock = "out_of_stock" // 售罄（库存归零时标记，补货后恢复）
)

// ProductUnit 常见计量单位
const (
	UnitPiece  = "piece"  // 件
	UnitBag    = "bag"    // 袋
	UnitTonne  = "tonne"  // 吨
	UnitMetre  = "metre"  // 米
	UnitSqm    = "sqm"    // 平方米
	UnitCbm    = "cbm"    // 立方米
	UnitPallet = "pallet" // 托
)

// ==================== Product 商品主表 ====================

// Product 建材商品
type Product struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	SupplierID int64 `gorm:"index:idx_supplier_status;not null" json:"supplier_id"`
	CategoryID int64 `gorm:"index;not null" json:"category_id"`

	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	SKU         string `gorm:"size:100;index" json:"sku"`
	Brand       string `gorm:"size:100" json:"brand"`

	Status string `gorm:"size:20;index:idx_supplier_status;default:active" json:"status"`

	// 单价（分为单位存储）与计量单位
	PriceCents int64  `gorm:"not null" json:"price_cents"`
	Unit       string `gorm:"size:20;default:piece" json:"unit"`

	// 库存，任何时刻不允许为负
	StockQuantity     int `gorm:"default:0" json:"stock_quantity"`
	LowStockThreshold int `gorm:"default:10" json:"low_stock_threshold"`

	// 起购量
	MinOrderQuantity int `gorm:"default:1" json:"min_order_quantity"`

	// 商品图（对象存储 URL）
	Images pq.StringArray `gorm:"type:text[]" json:"images"`

	// 规格参数（PostgreSQL JSONB：强度等级、规格尺寸、执行标准等）
	Specs datatypes.JSONMap `gorm:"type:jsonb" json:"specs"`

	// 评分统计（评价写入时更新）
	RatingAvg   float64 `gorm:"default:0" json:"rating_avg"`
	RatingCount int64   `gorm:"default:0" json:"rating_count"`

	// 销量统计
	SoldCount int64 `gorm:"default:0" json:"sold_count"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// GetPrice 获取单价（元）
func (p *Product) GetPrice() float64 {
	return float64(p.PriceCents) / 100
}

// IsActive 检查是否在售
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// HasStock 检查库存是否满足数量
func (p *Product) HasStock(quantity int) bool {
	return p.StockQuantity >= quantity
}

// IsLowStock 检查是否低于补货阈值
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// CanPurchase 检查数量是否可下单（在售、达到起购量、库存充足）
func (p *Product) CanPurchase(quantity int) bool {
	return p.IsActive() && quantity >= p.MinOrderQuantity && p.HasStock(quantity)
}
