package service

import (
	"context"
	"strings"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/ws"
	"buildmart_dev_v1_202608/pkg/storage"
	"buildmart_dev_v1_202608/pkg/utils"
)

// 商品图上传上限（Base64 与 URL 拉取共用）
const maxImageBytes = 5 << 20

// ==================== ProductService 商品服务 ====================

// ProductService 商品维护、检索与库存调整
// 上架与库存操作仅限审核通过的供应商本人
type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	supplierRepo repository.SupplierRepository
	notifRepo    repository.NotificationRepository
	storage      storage.Provider
	events       EventPublisher
}

// NewProductService 创建商品服务
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	supplierRepo repository.SupplierRepository,
	notifRepo repository.NotificationRepository,
	store storage.Provider,
	events EventPublisher,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		supplierRepo: supplierRepo,
		notifRepo:    notifRepo,
		storage:      store,
		events:       events,
	}
}

// requireApprovedSupplier 解析当前用户的供应商档案并校验可售状态
func (s *ProductService) requireApprovedSupplier(ctx context.Context, userID int64) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, ErrSupplierNotFound
	}
	if !supplier.CanSell() {
		return nil, ErrSupplierNotApproved
	}
	return supplier, nil
}

// ==================== 商品维护 ====================

// CreateProduct 上架商品
func (s *ProductService) CreateProduct(ctx context.Context, userID int64, req *dto.CreateProductRequest) (*dto.ProductInfo, error) {
	supplier, err := s.requireApprovedSupplier(ctx, userID)
	if err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	product := &model.Product{
		SupplierID:        supplier.ID,
		CategoryID:        req.CategoryID,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		SKU:               req.SKU,
		Brand:             req.Brand,
		Status:            model.ProductStatusActive,
		PriceCents:        req.PriceCents,
		Unit:              req.Unit,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		MinOrderQuantity:  req.MinOrderQuantity,
		Images:            pq.StringArray(req.Images),
		Specs:             datatypes.JSONMap(req.Specs),
	}
	if product.Unit == "" {
		product.Unit = model.UnitPiece
	}
	if product.LowStockThreshold <= 0 {
		product.LowStockThreshold = 10
	}
	if product.MinOrderQuantity <= 0 {
		product.MinOrderQuantity = 1
	}
	// 零库存上架直接标记售罄，补货后恢复
	if product.StockQuantity == 0 {
		product.Status = model.ProductStatusOutOfStock
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductInfo(product), nil
}

// UpdateProduct 更新商品，未传字段保持原值
func (s *ProductService) UpdateProduct(ctx context.Context, userID, productID int64, req *dto.UpdateProductRequest) (*dto.ProductInfo, error) {
	supplier, err := s.requireApprovedSupplier(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.SupplierID != supplier.ID {
		return nil, ErrNotProductOwner
	}

	if req.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.PriceCents != nil {
		product.PriceCents = *req.PriceCents
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.MinOrderQuantity != nil {
		product.MinOrderQuantity = *req.MinOrderQuantity
	}
	if req.Images != nil {
		product.Images = pq.StringArray(req.Images)
	}
	if req.Specs != nil {
		product.Specs = datatypes.JSONMap(req.Specs)
	}
	if req.Status != nil {
		// 零库存商品不能直接转在售
		if *req.Status == model.ProductStatusActive && product.StockQuantity == 0 {
			product.Status = model.ProductStatusOutOfStock
		} else {
			product.Status = *req.Status
		}
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductInfo(product), nil
}

// DeleteProduct 下架删除（软删除）
func (s *ProductService) DeleteProduct(ctx context.Context, userID, productID int64) error {
	supplier, err := s.requireApprovedSupplier(ctx, userID)
	if err != nil {
		return err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if product.SupplierID != supplier.ID {
		return ErrNotProductOwner
	}

	return s.productRepo.Delete(ctx, productID)
}

// ==================== 商品查询 ====================

// GetProduct 商品详情（公开），已下架商品不可见
func (s *ProductService) GetProduct(ctx context.Context, productID int64) (*dto.ProductDetail, error) {
	product, err := s.productRepo.GetWithDetails(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.Status == model.ProductStatusInactive {
		return nil, ErrProductNotFound
	}
	return s.toDetail(product, false), nil
}

// GetOwnProduct 商品详情（供应商后台），含下架商品与补货阈值
func (s *ProductService) GetOwnProduct(ctx context.Context, userID, productID int64) (*dto.ProductDetail, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, ErrSupplierNotFound
	}

	product, err := s.productRepo.GetWithDetails(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.SupplierID != supplier.ID {
		return nil, ErrNotProductOwner
	}
	return s.toDetail(product, true), nil
}

// ListProducts 商品检索（公开），只返回在售商品
func (s *ProductService) ListProducts(ctx context.Context, req *dto.ProductListRequest) ([]*dto.ProductInfo, int64, error) {
	filter := repository.ProductFilter{
		Keyword:       req.Keyword,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
		Status:        model.ProductStatusActive,
		MinPriceCents: req.MinPriceCents,
		MaxPriceCents: req.MaxPriceCents,
		InStockOnly:   req.InStockOnly,
		SortBy:        req.SortBy,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	return s.listByFilter(ctx, filter)
}

// ListOwnProducts 供应商后台商品列表，全部状态可见
func (s *ProductService) ListOwnProducts(ctx context.Context, userID int64, req *dto.ProductListRequest) ([]*dto.ProductInfo, int64, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if supplier == nil {
		return nil, 0, ErrSupplierNotFound
	}

	filter := repository.ProductFilter{
		Keyword:    req.Keyword,
		CategoryID: req.CategoryID,
		SupplierID: supplier.ID,
		SortBy:     req.SortBy,
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
	return s.listByFilter(ctx, filter)
}

func (s *ProductService) listByFilter(ctx context.Context, filter repository.ProductFilter) ([]*dto.ProductInfo, int64, error) {
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.ProductInfo, 0, len(products))
	for i := range products {
		infos = append(infos, toProductInfo(&products[i]))
	}
	return infos, total, nil
}

func (s *ProductService) toDetail(product *model.Product, ownerView bool) *dto.ProductDetail {
	detail := &dto.ProductDetail{
		ProductInfo: *toProductInfo(product),
		Supplier:    toSupplierBrief(product.Supplier),
	}
	if product.Category != nil {
		detail.Category = toCategoryInfo(product.Category)
	}
	if ownerView {
		detail.LowStockThreshold = product.LowStockThreshold
	}
	return detail
}

// ==================== 库存调整 ====================

// AdjustStock 手工调整库存（补货/盘亏），Delta 与 Absolute 二选一
// 调整后推送库存事件；跌破补货阈值时给供应商发低库存通知
func (s *ProductService) AdjustStock(ctx context.Context, userID, productID int64, req *dto.AdjustStockRequest) (*dto.ProductInfo, error) {
	supplier, err := s.requireApprovedSupplier(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.SupplierID != supplier.ID {
		return nil, ErrNotProductOwner
	}

	if (req.Delta == nil) == (req.Absolute == nil) {
		return nil, apperr.Validation("exactly one of delta or absolute is required")
	}

	oldQuantity := product.StockQuantity
	newQuantity := oldQuantity
	if req.Delta != nil {
		newQuantity = oldQuantity + *req.Delta
	} else {
		newQuantity = *req.Absolute
	}
	if newQuantity < 0 {
		return nil, apperr.InsufficientStock("stock cannot go negative")
	}

	newStatus := product.Status
	switch {
	case newQuantity == 0:
		newStatus = model.ProductStatusOutOfStock
	case product.Status == model.ProductStatusOutOfStock:
		newStatus = model.ProductStatusActive
	}

	err = s.productRepo.UpdateFields(ctx, productID, map[string]interface{}{
		"stock_quantity": newQuantity,
		"status":         newStatus,
	})
	if err != nil {
		return nil, err
	}
	product.StockQuantity = newQuantity
	product.Status = newStatus

	s.events.Publish(ws.RoomProduct(productID), ws.EventInventoryUpdate, &dto.InventoryEvent{
		ProductID:     productID,
		StockQuantity: newQuantity,
		Status:        newStatus,
	})

	// 只在跌破阈值的瞬间提醒一次
	if newQuantity <= product.LowStockThreshold && oldQuantity > product.LowStockThreshold {
		_ = pushNotification(ctx, s.notifRepo, s.events, supplier.UserID, model.NotifyLowStock,
			"Low stock alert", product.Name+" is running low",
			map[string]interface{}{"product_id": productID, "stock_quantity": newQuantity})
	}

	return toProductInfo(product), nil
}

// ListLowStock 供应商低库存商品清单
func (s *ProductService) ListLowStock(ctx context.Context, userID int64) ([]*dto.ProductInfo, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, ErrSupplierNotFound
	}

	products, err := s.productRepo.FindLowStock(ctx, supplier.ID)
	if err != nil {
		return nil, err
	}

	infos := make([]*dto.ProductInfo, 0, len(products))
	for i := range products {
		infos = append(infos, toProductInfo(&products[i]))
	}
	return infos, nil
}

// ==================== 图片上传 ====================

// UploadImage 商品图上传（Base64 或远程 URL 拉取），返回对象存储 URL
func (s *ProductService) UploadImage(ctx context.Context, userID int64, req *dto.UploadImageRequest) (*dto.UploadImageResponse, error) {
	if _, err := s.requireApprovedSupplier(ctx, userID); err != nil {
		return nil, err
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	switch {
	case req.ImageBase64 != "":
		data, contentType, err = storage.DecodeBase64Image(req.ImageBase64, maxImageBytes)
	case req.ImageURL != "":
		data, contentType, err = utils.FetchImage(ctx, req.ImageURL, maxImageBytes)
	default:
		return nil, apperr.Validation("image_base64 or image_url is required")
	}
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	filename := req.FileName
	if filename == "" {
		filename = "product" + storage.ExtFromContentType(contentType)
	}

	url, err := s.storage.Upload(ctx, data, filename, contentType)
	if err != nil {
		return nil, err
	}
	return &dto.UploadImageResponse{URL: url}, nil
}

// ==================== 错误定义 ====================

var (
	ErrProductNotFound     = apperr.NotFound("product not found")
	ErrCategoryNotFound    = apperr.NotFound("category not found")
	ErrSupplierNotFound    = apperr.NotFound("supplier profile not found")
	ErrSupplierNotApproved = apperr.Forbidden("supplier not approved")
	ErrNotProductOwner     = apperr.Forbidden("product belongs to another supplier")
)
