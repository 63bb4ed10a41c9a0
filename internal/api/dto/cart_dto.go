package dto

import "time"

// ==================== 购物车操作 ====================

// AddCartItemRequest 加购请求
// SurplusListingID 非空表示按尾货价购买
type AddCartItemRequest struct {
	ProductID        int64  `json:"product_id" binding:"required_without=SurplusListingID,omitempty,gt=0"`
	SurplusListingID *int64 `json:"surplus_listing_id" binding:"omitempty,gt=0"`
	Quantity         int    `json:"quantity" binding:"required,gte=1"`
}

// UpdateCartItemRequest 修改数量请求
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gte=1"`
}

// ==================== 购物车视图 ====================

// CartItemInfo 购物车条目
type CartItemInfo struct {
	ID               int64  `json:"id"`
	ProductID        int64  `json:"product_id"`
	SurplusListingID *int64 `json:"surplus_listing_id,omitempty"`

	ProductName string `json:"product_name"`
	Unit        string `json:"unit"`
	SupplierID  int64  `json:"supplier_id"`

	Quantity       int   `json:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents"`
	LineTotalCents int64 `json:"line_total_cents"`

	// 当前可购状态（库存变化后提示用）
	InStock bool `json:"in_stock"`
}

// CartInfo 购物车视图
type CartInfo struct {
	ID            int64           `json:"id"`
	Status        string          `json:"status"`
	Items         []*CartItemInfo `json:"items"`
	SubtotalCents int64           `json:"subtotal_cents"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
