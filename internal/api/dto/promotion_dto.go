package dto

import "time"

// ==================== 促销维护 ====================

// CreatePromotionRequest 创建促销码请求
// 供应商创建的码只作用于自家商品小计，管理员创建平台码
// code 留空时由服务端自动生成
type CreatePromotionRequest struct {
	Code        string `json:"code" binding:"omitempty,min=3,max=64"`
	Description string `json:"description" binding:"omitempty,max=500"`

	DiscountType  string `json:"discount_type" binding:"required,oneof=percent fixed"`
	DiscountValue int64  `json:"discount_value" binding:"required,gt=0"`

	MinOrderCents    int64 `json:"min_order_cents" binding:"omitempty,gte=0"`
	MaxDiscountCents int64 `json:"max_discount_cents" binding:"omitempty,gte=0"`

	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required"`

	UsageLimit int64 `json:"usage_limit" binding:"omitempty,gte=0"`
}

// UpdatePromotionRequest 促销修改请求
type UpdatePromotionRequest struct {
	Description *string `json:"description" binding:"omitempty,max=500"`

	MinOrderCents    *int64 `json:"min_order_cents" binding:"omitempty,gte=0"`
	MaxDiscountCents *int64 `json:"max_discount_cents" binding:"omitempty,gte=0"`

	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`

	UsageLimit *int64  `json:"usage_limit" binding:"omitempty,gte=0"`
	Status     *string `json:"status" binding:"omitempty,oneof=active paused"`
}

// ==================== 促销查询 ====================

// PromotionListRequest 促销列表请求
type PromotionListRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=active paused expired"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// PromotionInfo 促销信息
type PromotionInfo struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	SupplierID  *int64 `json:"supplier_id,omitempty"`

	DiscountType  string `json:"discount_type"`
	DiscountValue int64  `json:"discount_value"`

	MinOrderCents    int64 `json:"min_order_cents"`
	MaxDiscountCents int64 `json:"max_discount_cents,omitempty"`

	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`

	UsageLimit int64  `json:"usage_limit"`
	UsageCount int64  `json:"usage_count"`
	Status     string `json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

// ==================== 促销校验 ====================

// ValidatePromotionRequest 结算前校验请求
type ValidatePromotionRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

// ValidatePromotionResponse 校验结果
type ValidatePromotionResponse struct {
	Valid         bool   `json:"valid"`
	Reason        string `json:"reason,omitempty"`
	DiscountCents int64  `json:"discount_cents"`
	SubtotalCents int64  `json:"subtotal_cents"`
}
