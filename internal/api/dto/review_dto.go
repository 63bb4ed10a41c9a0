package dto

import "time"

// ==================== 评价提交 ====================

// CreateReviewRequest 评价请求，须有包含该商品的已送达订单
type CreateReviewRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	OrderID   int64 `json:"order_id" binding:"required,gt=0"`

	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Title  string `json:"title" binding:"omitempty,max=255"`
	Body   string `json:"body" binding:"omitempty,max=5000"`

	Images []string `json:"images" binding:"omitempty,max=9"`
}

// ReplyReviewRequest 供应商回复请求
type ReplyReviewRequest struct {
	Reply string `json:"reply" binding:"required,max=2000"`
}

// ==================== 评价查询 ====================

// ReviewListRequest 评价列表请求
type ReviewListRequest struct {
	Rating   int `form:"rating" binding:"omitempty,min=1,max=5"`
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20"`
}

// ReviewInfo 评价信息
type ReviewInfo struct {
	ID         int64 `json:"id"`
	ProductID  int64 `json:"product_id"`
	CustomerID int64 `json:"customer_id"`
	OrderID    int64 `json:"order_id"`

	Rating int    `json:"rating"`
	Title  string `json:"title,omitempty"`
	Body   string `json:"body,omitempty"`

	Images []string `json:"images,omitempty"`

	SupplierReply string     `json:"supplier_reply,omitempty"`
	RepliedAt     *time.Time `json:"replied_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RatingSummary 评分汇总
type RatingSummary struct {
	Average   float64       `json:"average"`
	Count     int64         `json:"count"`
	Histogram map[int]int64 `json:"histogram"`
}

// ProductReviewsResponse 商品评价页
type ProductReviewsResponse struct {
	Summary RatingSummary `json:"summary"`
	List    []*ReviewInfo `json:"list"`
	Total   int64         `json:"total"`
}
