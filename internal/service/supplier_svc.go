package service

import (
	"context"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
)

// ==================== SupplierService 供应商服务 ====================

// SupplierService 供应商目录、档案维护与经营看板
type SupplierService struct {
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	orderRepo    repository.OrderRepository
	deliveryRepo repository.DeliveryRepository
}

// NewSupplierService 创建供应商服务
func NewSupplierService(
	supplierRepo repository.SupplierRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	deliveryRepo repository.DeliveryRepository,
) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		deliveryRepo: deliveryRepo,
	}
}

// ==================== 公开目录 ====================

// ListSuppliers 供应商目录，仅展示审核通过的
func (s *SupplierService) ListSuppliers(ctx context.Context, req *dto.SupplierListRequest) ([]*dto.SupplierInfo, int64, error) {
	filter := repository.SupplierFilter{
		Keyword:  req.Keyword,
		Status:   model.SupplierStatusApproved,
		Area:     req.Area,
		Category: req.Category,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	suppliers, total, err := s.supplierRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.SupplierInfo, 0, len(suppliers))
	for i := range suppliers {
		infos = append(infos, toSupplierInfo(&suppliers[i]))
	}
	return infos, total, nil
}

// GetSupplier 供应商公开主页，未过审的不可见
func (s *SupplierService) GetSupplier(ctx context.Context, supplierID int64) (*dto.SupplierInfo, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil || !supplier.IsApproved() {
		return nil, ErrSupplierNotFound
	}
	return toSupplierInfo(supplier), nil
}

// ==================== 本人档案 ====================

// GetOwnProfile 供应商本人档案，含资质与审核记录
func (s *SupplierService) GetOwnProfile(ctx context.Context, userID int64) (*dto.SupplierProfile, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, ErrSupplierNotFound
	}
	return toSupplierProfile(supplier), nil
}

// UpdateProfile 更新供应商档案，未传字段保持原值
// 审核状态不在此处变更，驳回后修改资料需重新提交审核
func (s *SupplierService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateSupplierRequest) (*dto.SupplierProfile, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, ErrSupplierNotFound
	}

	if req.BusinessName != nil {
		supplier.BusinessName = strings.TrimSpace(*req.BusinessName)
	}
	if req.Description != nil {
		supplier.Description = *req.Description
	}
	if req.ServiceAreas != nil {
		supplier.ServiceAreas = pq.StringArray(req.ServiceAreas)
	}
	if req.Categories != nil {
		supplier.Categories = pq.StringArray(req.Categories)
	}
	if req.MinOrderCents != nil {
		supplier.MinOrderCents = *req.MinOrderCents
	}
	if req.DeliveryFeeCents != nil {
		supplier.DeliveryFeeCents = *req.DeliveryFeeCents
	}
	if req.WarehouseAddress != nil {
		supplier.WarehouseAddress = datatypes.JSONMap(req.WarehouseAddress)
	}

	// 驳回后改档案重新排队审核
	if supplier.Status == model.SupplierStatusRejected {
		supplier.Status = model.SupplierStatusPending
		supplier.RejectReason = ""
	}

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return toSupplierProfile(supplier), nil
}

// ==================== 经营看板 ====================

// Dashboard 近 30 天经营数据与低库存预警
func (s *SupplierService) Dashboard(ctx context.Context, userID int64) (*dto.SupplierDashboard, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, ErrSupplierNotFound
	}

	productCount, err := s.productRepo.CountBySupplier(ctx, supplier.ID)
	if err != nil {
		return nil, err
	}

	activeDeliveries, err := s.deliveryRepo.CountActiveBySupplier(ctx, supplier.ID)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -30)
	sales, err := s.orderRepo.SupplierSales(ctx, supplier.ID, since)
	if err != nil {
		return nil, err
	}

	lowStock, err := s.productRepo.FindLowStock(ctx, supplier.ID)
	if err != nil {
		return nil, err
	}
	lowStockInfos := make([]*dto.ProductInfo, 0, len(lowStock))
	for i := range lowStock {
		lowStockInfos = append(lowStockInfos, toProductInfo(&lowStock[i]))
	}

	return &dto.SupplierDashboard{
		ProductCount:     productCount,
		ActiveDeliveries: activeDeliveries,
		OrderCount:       sales.OrderCount,
		ItemCount:        sales.ItemCount,
		RevenueCents:     sales.RevenueCents,
		Rating:           supplier.RatingAvg,
		RatingCount:      supplier.RatingCount,
		LowStockProducts: lowStockInfos,
	}, nil
}

func toSupplierProfile(s *model.Supplier) *dto.SupplierProfile {
	return &dto.SupplierProfile{
		SupplierInfo:     *toSupplierInfo(s),
		LicenseNumber:    s.LicenseNumber,
		TaxNumber:        s.TaxNumber,
		WarehouseAddress: s.WarehouseAddress,
		ReviewedAt:       s.ReviewedAt,
		RejectReason:     s.RejectReason,
	}
}
