package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Review 商品评价，仅限已签收订单的买家（验证购买）
type Review struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  int64 `gorm:"index;uniqueIndex:idx_review_once;not null" json:"product_id"`
	CustomerID int64 `gorm:"index;uniqueIndex:idx_review_once;not null" json:"customer_id"`

	// 评价依据的订单，证明真实购买
	OrderID int64 `gorm:"index;uniqueIndex:idx_review_once;not null" json:"order_id"`

	// 1-5 星
	Rating int    `gorm:"not null" json:"rating"`
	Title  string `gorm:"size:255" json:"title"`
	Body   string `gorm:"type:text" json:"body"`

	// 晒图
	Images pq.StringArray `gorm:"type:text[]" json:"images"`

	// 供应商回复
	SupplierReply string     `gorm:"type:text" json:"supplier_reply"`
	RepliedAt     *time.Time `json:"replied_at"`

	// 审计字段
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

// HasReply 检查供应商是否已回复
func (r *Review) HasReply() bool {
	return r.SupplierReply != ""
}

// ValidRating 检查评分是否在合法区间
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
