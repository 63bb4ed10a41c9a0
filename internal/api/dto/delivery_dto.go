package dto

import "time"

// ==================== 配送查询 ====================

// DeliveryListRequest 配送单列表请求
type DeliveryListRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=scheduled in_transit delivered failed"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// DeliveryInfo 配送单信息
type DeliveryInfo struct {
	ID         int64  `json:"id"`
	OrderID    int64  `json:"order_id"`
	SupplierID int64  `json:"supplier_id"`
	Status     string `json:"status"`

	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`

	Address  map[string]interface{} `json:"address,omitempty"`
	FeeCents int64                  `json:"fee_cents"`

	DriverName  string `json:"driver_name,omitempty"`
	DriverPhone string `json:"driver_phone,omitempty"`
	VehicleReg  string `json:"vehicle_reg,omitempty"`

	ProofURL      string     `json:"proof_url,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ==================== 配送操作 ====================

// UpdateDeliveryWindowRequest 排期/改期请求（供应商）
type UpdateDeliveryWindowRequest struct {
	WindowStart time.Time `json:"window_start" binding:"required"`
	WindowEnd   time.Time `json:"window_end" binding:"required"`

	DriverName  string `json:"driver_name" binding:"omitempty,max=100"`
	DriverPhone string `json:"driver_phone" binding:"omitempty,max=32"`
	VehicleReg  string `json:"vehicle_reg" binding:"omitempty,max=32"`
}

// UpdateDeliveryStatusRequest 配送状态推进请求
type UpdateDeliveryStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=scheduled in_transit delivered failed"`

	// delivered 时可附签收凭证，failed 时填原因
	ProofURL      string `json:"proof_url" binding:"omitempty,max=500"`
	FailureReason string `json:"failure_reason" binding:"omitempty,max=500"`
}
