package dto

import "time"

// ==================== 尾货发布 ====================

// CreateSurplusRequest 尾货上架请求（供应商）
type CreateSurplusRequest struct {
	// 关联在售商品，折价与库存校验以其为准
	ProductID *int64 `json:"product_id" binding:"omitempty,gt=0"`

	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"omitempty,max=5000"`
	Condition   string `json:"condition" binding:"omitempty,oneof=new open_box slightly_damaged"`

	Quantity int    `json:"quantity" binding:"required,gte=1"`
	Unit     string `json:"unit" binding:"omitempty,oneof=piece bag tonne metre sqm cbm pallet"`

	UnitPriceCents     int64 `json:"unit_price_cents" binding:"required,gt=0"`
	OriginalPriceCents int64 `json:"original_price_cents" binding:"omitempty,gt=0"`

	Images []string `json:"images" binding:"omitempty,max=20"`

	ExpiresAt time.Time `json:"expires_at" binding:"required"`
}

// UpdateSurplusRequest 尾货修改请求
type UpdateSurplusRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description" binding:"omitempty,max=5000"`

	Quantity       *int   `json:"quantity" binding:"omitempty,gte=0"`
	UnitPriceCents *int64 `json:"unit_price_cents" binding:"omitempty,gt=0"`

	ExpiresAt *time.Time `json:"expires_at"`
}

// ==================== 尾货查询 ====================

// SurplusListRequest 尾货列表请求
type SurplusListRequest struct {
	SupplierID    int64  `form:"supplier_id"`
	Condition     string `form:"condition" binding:"omitempty,oneof=new open_box slightly_damaged"`
	MaxPriceCents int64  `form:"max_price_cents"`
	Page          int    `form:"page,default=1"`
	PageSize      int    `form:"page_size,default=20"`
}

// SurplusInfo 尾货信息
type SurplusInfo struct {
	ID         int64  `json:"id"`
	SupplierID int64  `json:"supplier_id"`
	ProductID  *int64 `json:"product_id,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Condition   string `json:"condition"`
	Status      string `json:"status"`

	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`

	UnitPriceCents     int64 `json:"unit_price_cents"`
	OriginalPriceCents int64 `json:"original_price_cents,omitempty"`
	DiscountPercent    int   `json:"discount_percent"`

	Images []string `json:"images,omitempty"`

	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
