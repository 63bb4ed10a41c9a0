package model

import (
	"time"

	"gorm.io/gorm"
)

// Category 商品分类（两级树：ParentID 为空即顶级分类）
type Category struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Slug     string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	ParentID *int64 `gorm:"index" json:"parent_id"`

	Description string `gorm:"size:500" json:"description"`
	// 排序权重，越小越靠前
	SortOrder int `gorm:"default:0" json:"sort_order"`

	// 审计字段（CreatedBy/UpdatedBy 由 GORM 审计回调自动填充）
	CreatedBy int64          `gorm:"default:0" json:"-"`
	UpdatedBy int64          `gorm:"default:0" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

// IsRoot 检查是否顶级分类
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
