package dto

import "time"

// ==================== 下单 ====================

// PlaceOrderRequest 下单请求，购物车整车结算
type PlaceOrderRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=card trade_credit"`

	// 收货地址，缺省用客户档案默认地址
	DeliveryAddress map[string]interface{} `json:"delivery_address"`

	PromoCode string `json:"promo_code" binding:"omitempty,max=64"`
	Notes     string `json:"notes" binding:"omitempty,max=1000"`

	// 银行卡支付的卡引用（网关令牌）
	CardRef string `json:"card_ref" binding:"omitempty,max=64"`
}

// ==================== 订单查询 ====================

// OrderListRequest 订单列表请求
type OrderListRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed processing partially_delivered delivered cancelled"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// OrderItemInfo 订单项
type OrderItemInfo struct {
	ID               int64  `json:"id"`
	ProductID        int64  `json:"product_id"`
	SupplierID       int64  `json:"supplier_id"`
	SurplusListingID *int64 `json:"surplus_listing_id,omitempty"`

	ProductName string `json:"product_name"`
	SKU         string `json:"sku,omitempty"`
	Unit        string `json:"unit"`

	Quantity       int   `json:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents"`
	TotalCents     int64 `json:"total_cents"`
}

// OrderTimelineEntry 订单流转记录
type OrderTimelineEntry struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	ActorID   int64     `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderInfo 订单信息
type OrderInfo struct {
	ID         int64  `json:"id"`
	OrderNo    string `json:"order_no"`
	CustomerID int64  `json:"customer_id"`
	Status     string `json:"status"`

	SubtotalCents    int64  `json:"subtotal_cents"`
	TaxCents         int64  `json:"tax_cents"`
	DeliveryFeeCents int64  `json:"delivery_fee_cents"`
	DiscountCents    int64  `json:"discount_cents"`
	GrandTotalCents  int64  `json:"grand_total_cents"`
	Currency         string `json:"currency"`

	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	PromoCode     string `json:"promo_code,omitempty"`

	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderDetail 订单详情
type OrderDetail struct {
	OrderInfo
	DeliveryAddress map[string]interface{} `json:"delivery_address,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	CancelReason    string                 `json:"cancel_reason,omitempty"`

	Items      []*OrderItemInfo      `json:"items"`
	Deliveries []*DeliveryInfo       `json:"deliveries,omitempty"`
	Timeline   []*OrderTimelineEntry `json:"timeline,omitempty"`
}

// ==================== 订单操作 ====================

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// UpdateOrderStatusRequest 订单状态推进请求（供应商/管理员）
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed processing partially_delivered delivered"`
	Note   string `json:"note" binding:"omitempty,max=500"`
}
