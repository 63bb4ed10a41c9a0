package dto

import "time"

// ==================== WebSocket 事件负载 ====================

// InventoryEvent 库存变化事件
type InventoryEvent struct {
	ProductID     int64  `json:"product_id"`
	StockQuantity int    `json:"stock_quantity"`
	Status        string `json:"status"`
}

// OrderCreatedEvent 新订单事件（推给供应商）
type OrderCreatedEvent struct {
	OrderID    int64  `json:"order_id"`
	OrderNo    string `json:"order_no"`
	SupplierID int64  `json:"supplier_id"`
	ItemCount  int    `json:"item_count"`
	TotalCents int64  `json:"total_cents"`
}

// OrderStatusEvent 订单状态变化事件
type OrderStatusEvent struct {
	OrderID int64  `json:"order_id"`
	OrderNo string `json:"order_no"`
	Status  string `json:"status"`
	Note    string `json:"note,omitempty"`
}

// DeliveryEvent 配送排期/状态变化事件
type DeliveryEvent struct {
	DeliveryID  int64      `json:"delivery_id"`
	OrderID     int64      `json:"order_id"`
	Status      string     `json:"status"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
}

// SupplierReviewEvent 入驻审核结果事件
type SupplierReviewEvent struct {
	SupplierID int64  `json:"supplier_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}
