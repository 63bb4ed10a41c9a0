package dto

import "time"

// ==================== 售后提交 ====================

// CreateIssueRequest 售后纠纷提交请求（客户，针对自己的订单）
type CreateIssueRequest struct {
	OrderID int64 `json:"order_id" binding:"required,gt=0"`

	// 多供应商订单必填，单供应商订单可省略
	SupplierID int64 `json:"supplier_id" binding:"omitempty,gt=0"`

	Type        string `json:"type" binding:"required,oneof=damaged missing wrong_item late other"`
	Description string `json:"description" binding:"required,max=5000"`

	Photos []string `json:"photos" binding:"omitempty,max=9"`
}

// ResolveIssueRequest 裁定请求（管理员）
type ResolveIssueRequest struct {
	Status     string `json:"status" binding:"required,oneof=investigating resolved closed"`
	Resolution string `json:"resolution" binding:"omitempty,max=5000"`
}

// ==================== 售后查询 ====================

// IssueListRequest 纠纷列表请求
type IssueListRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=open investigating resolved closed"`
	Type     string `form:"type" binding:"omitempty,oneof=damaged missing wrong_item late other"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// IssueInfo 纠纷信息
type IssueInfo struct {
	ID         int64 `json:"id"`
	OrderID    int64 `json:"order_id"`
	CustomerID int64 `json:"customer_id"`
	SupplierID int64 `json:"supplier_id"`

	Type        string   `json:"type"`
	Description string   `json:"description"`
	Photos      []string `json:"photos,omitempty"`
	Status      string   `json:"status"`

	Resolution string     `json:"resolution,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
