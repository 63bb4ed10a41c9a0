package dto

import "time"

// ==================== 商品维护 ====================

// CreateProductRequest 创建商品请求（供应商）
type CreateProductRequest struct {
	CategoryID  int64  `json:"category_id" binding:"required,gt=0"`
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"omitempty,max=10000"`
	SKU         string `json:"sku" binding:"omitempty,max=100"`
	Brand       string `json:"brand" binding:"omitempty,max=100"`

	PriceCents int64  `json:"price_cents" binding:"required,gt=0"`
	Unit       string `json:"unit" binding:"omitempty,oneof=piece bag tonne metre sqm cbm pallet"`

	StockQuantity     int `json:"stock_quantity" binding:"gte=0"`
	LowStockThreshold int `json:"low_stock_threshold" binding:"omitempty,gte=0"`
	MinOrderQuantity  int `json:"min_order_quantity" binding:"omitempty,gte=1"`

	Images []string               `json:"images" binding:"omitempty,max=20"`
	Specs  map[string]interface{} `json:"specs"`
}

// UpdateProductRequest 更新商品请求，未传字段不更新
type UpdateProductRequest struct {
	CategoryID  *int64  `json:"category_id" binding:"omitempty,gt=0"`
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description" binding:"omitempty,max=10000"`
	Brand       *string `json:"brand" binding:"omitempty,max=100"`

	PriceCents *int64  `json:"price_cents" binding:"omitempty,gt=0"`
	Unit       *string `json:"unit" binding:"omitempty,oneof=piece bag tonne metre sqm cbm pallet"`

	LowStockThreshold *int `json:"low_stock_threshold" binding:"omitempty,gte=0"`
	MinOrderQuantity  *int `json:"min_order_quantity" binding:"omitempty,gte=1"`

	Status *string `json:"status" binding:"omitempty,oneof=active inactive"`

	Images []string               `json:"images" binding:"omitempty,max=20"`
	Specs  map[string]interface{} `json:"specs"`
}

// AdjustStockRequest 库存调整请求，Delta 与 Absolute 二选一
type AdjustStockRequest struct {
	Delta    *int   `json:"delta"`
	Absolute *int   `json:"absolute" binding:"omitempty,gte=0"`
	Reason   string `json:"reason" binding:"omitempty,max=255"`
}

// ==================== 商品查询 ====================

// ProductListRequest 商品检索请求
type ProductListRequest struct {
	Keyword       string `form:"keyword"`
	CategoryID    int64  `form:"category_id"`
	SupplierID    int64  `form:"supplier_id"`
	MinPriceCents int64  `form:"min_price_cents"`
	MaxPriceCents int64  `form:"max_price_cents"`
	InStockOnly   bool   `form:"in_stock_only"`
	SortBy        string `form:"sort_by" binding:"omitempty,oneof=price_asc price_desc rating newest sold"`
	Page          int    `form:"page,default=1"`
	PageSize      int    `form:"page_size,default=20"`
}

// ProductInfo 商品信息
type ProductInfo struct {
	ID         int64 `json:"id"`
	SupplierID int64 `json:"supplier_id"`
	CategoryID int64 `json:"category_id"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Status      string `json:"status"`

	PriceCents int64  `json:"price_cents"`
	Unit       string `json:"unit"`

	StockQuantity    int `json:"stock_quantity"`
	MinOrderQuantity int `json:"min_order_quantity"`

	Images []string               `json:"images,omitempty"`
	Specs  map[string]interface{} `json:"specs,omitempty"`

	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int64   `json:"rating_count"`
	SoldCount   int64   `json:"sold_count"`

	CreatedAt time.Time `json:"created_at"`
}

// ProductDetail 商品详情，附带供应商与分类摘要
type ProductDetail struct {
	ProductInfo
	LowStockThreshold int            `json:"low_stock_threshold,omitempty"`
	Supplier          *SupplierBrief `json:"supplier,omitempty"`
	Category          *CategoryInfo  `json:"category,omitempty"`
}

// ==================== 分类 ====================

// CreateCategoryRequest 创建分类请求（管理员）
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug" binding:"required,max=100"`
	ParentID    *int64 `json:"parent_id" binding:"omitempty,gt=0"`
	Description string `json:"description" binding:"omitempty,max=500"`
	SortOrder   int    `json:"sort_order"`
}

// UpdateCategoryRequest 更新分类请求
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	SortOrder   *int    `json:"sort_order"`
}

// CategoryInfo 分类信息（含子级）
type CategoryInfo struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	ParentID    *int64          `json:"parent_id,omitempty"`
	Description string          `json:"description,omitempty"`
	SortOrder   int             `json:"sort_order"`
	Children    []*CategoryInfo `json:"children,omitempty"`
}

// ==================== 图片上传 ====================

// UploadImageRequest 商品图上传请求，Base64 内容和图片 URL 二选一
type UploadImageRequest struct {
	ImageBase64 string `json:"image_base64" binding:"omitempty"`
	ImageURL    string `json:"image_url" binding:"omitempty,url,max=2048"`
	FileName    string `json:"file_name" binding:"omitempty,max=255"`
}

// UploadImageResponse 上传结果
type UploadImageResponse struct {
	URL string `json:"url"`
}
