package dto

import "time"

// ==================== 供应商目录 ====================

// SupplierListRequest 供应商目录检索请求
type SupplierListRequest struct {
	Keyword  string `form:"keyword"`
	Area     string `form:"area"`
	Category string `form:"category"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// SupplierBrief 供应商摘要（商品详情内嵌用）
type SupplierBrief struct {
	ID           int64   `json:"id"`
	BusinessName string  `json:"business_name"`
	RatingAvg    float64 `json:"rating_avg"`
	RatingCount  int64   `json:"rating_count"`
}

// SupplierInfo 供应商公开信息
type SupplierInfo struct {
	ID           int64  `json:"id"`
	BusinessName string `json:"business_name"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status"`

	ServiceAreas []string `json:"service_areas,omitempty"`
	Categories   []string `json:"categories,omitempty"`

	MinOrderCents    int64 `json:"min_order_cents"`
	DeliveryFeeCents int64 `json:"delivery_fee_cents"`

	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int64   `json:"rating_count"`

	CreatedAt time.Time `json:"created_at"`
}

// SupplierProfile 供应商完整档案（本人视角，含资质与审核记录）
type SupplierProfile struct {
	SupplierInfo
	LicenseNumber    string                 `json:"license_number,omitempty"`
	TaxNumber        string                 `json:"tax_number,omitempty"`
	WarehouseAddress map[string]interface{} `json:"warehouse_address,omitempty"`
	ReviewedAt       *time.Time             `json:"reviewed_at,omitempty"`
	RejectReason     string                 `json:"reject_reason,omitempty"`
}

// ==================== 档案维护 ====================

// UpdateSupplierRequest 更新供应商档案请求
type UpdateSupplierRequest struct {
	BusinessName *string `json:"business_name" binding:"omitempty,max=255"`
	Description  *string `json:"description" binding:"omitempty,max=2000"`

	ServiceAreas []string `json:"service_areas" binding:"omitempty,max=50"`
	Categories   []string `json:"categories" binding:"omitempty,max=20"`

	MinOrderCents    *int64 `json:"min_order_cents" binding:"omitempty,gte=0"`
	DeliveryFeeCents *int64 `json:"delivery_fee_cents" binding:"omitempty,gte=0"`

	WarehouseAddress map[string]interface{} `json:"warehouse_address"`
}

// ==================== 经营看板 ====================

// SupplierDashboard 供应商经营看板
type SupplierDashboard struct {
	ProductCount     int64 `json:"product_count"`
	ActiveDeliveries int64 `json:"active_deliveries"`

	// 近 30 天成交
	OrderCount   int64 `json:"order_count"`
	ItemCount    int64 `json:"item_count"`
	RevenueCents int64 `json:"revenue_cents"`

	Rating      float64 `json:"rating"`
	RatingCount int64   `json:"rating_count"`

	// 低库存预警
	LowStockProducts []*ProductInfo `json:"low_stock_products,omitempty"`
}
