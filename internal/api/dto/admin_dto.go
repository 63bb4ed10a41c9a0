package dto

import "time"

// ==================== 供应商审核 ====================

// RejectSupplierRequest 驳回入驻请求
type RejectSupplierRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// PendingSupplierInfo 待审核供应商（审核队列视图）
type PendingSupplierInfo struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Email         string    `json:"email"`
	BusinessName  string    `json:"business_name"`
	LicenseNumber string    `json:"license_number,omitempty"`
	TaxNumber     string    `json:"tax_number,omitempty"`
	Description   string    `json:"description,omitempty"`
	AppliedAt     time.Time `json:"applied_at"`
}

// ==================== 用户管理 ====================

// UserListRequest 用户列表请求
type UserListRequest struct {
	Keyword  string `form:"keyword"`
	Role     string `form:"role" binding:"omitempty,oneof=customer supplier admin"`
	Status   string `form:"status" binding:"omitempty,oneof=active suspended"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// UpdateUserStatusRequest 停用/恢复账号请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ==================== 平台报表 ====================

// PlatformStats 平台运营总览
type PlatformStats struct {
	CustomerCount int64 `json:"customer_count"`
	SupplierCount int64 `json:"supplier_count"`

	PendingSuppliers int64 `json:"pending_suppliers"`
	OpenIssues       int64 `json:"open_issues"`

	// 近 30 天
	OrderCount   int64 `json:"order_count"`
	RevenueCents int64 `json:"revenue_cents"`
}
