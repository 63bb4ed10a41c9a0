package service

import (
	"context"
	"time"

	"github.com/lib/pq"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
)

// ==================== SurplusService 尾货清仓服务 ====================

// SurplusService 工程剩余/清仓建材的限时折价单
type SurplusService struct {
	surplusRepo  repository.SurplusRepository
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
}

// NewSurplusService 创建尾货服务
func NewSurplusService(
	surplusRepo repository.SurplusRepository,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
) *SurplusService {
	return &SurplusService{
		surplusRepo:  surplusRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
	}
}

// ==================== 发布与维护 ====================

// CreateListing 供应商上架尾货
// 挂在商品下时数量不得超过商品当前库存，折后价必须低于商品现价
func (s *SurplusService) CreateListing(ctx context.Context, userID int64, req *dto.CreateSurplusRequest) (*dto.SurplusInfo, error) {
	supplier, err := s.requireSeller(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !req.ExpiresAt.After(time.Now()) {
		return nil, apperr.Validation("expires_at must be in the future")
	}

	listing := &model.SurplusListing{
		SupplierID:         supplier.ID,
		Title:              req.Title,
		Description:        req.Description,
		Condition:          req.Condition,
		Quantity:           req.Quantity,
		Unit:               req.Unit,
		UnitPriceCents:     req.UnitPriceCents,
		OriginalPriceCents: req.OriginalPriceCents,
		Images:             pq.StringArray(req.Images),
		ExpiresAt:          req.ExpiresAt,
		Status:             model.SurplusStatusActive,
	}
	if listing.Condition == "" {
		listing.Condition = model.ConditionNew
	}
	if listing.Unit == "" {
		listing.Unit = model.UnitPiece
	}

	if req.ProductID != nil {
		product, err := s.productRepo.GetByID(ctx, *req.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || product.SupplierID != supplier.ID {
			return nil, ErrProductNotFound
		}
		if req.Quantity > product.StockQuantity {
			return nil, apperr.Validation("surplus quantity exceeds product stock")
		}
		if req.UnitPriceCents >= product.PriceCents {
			return nil, apperr.Validation("surplus price must be below the current product price")
		}
		listing.ProductID = req.ProductID
		if listing.OriginalPriceCents == 0 {
			listing.OriginalPriceCents = product.PriceCents
		}
		if req.Unit == "" {
			listing.Unit = product.Unit
		}
	}

	if err := s.surplusRepo.Create(ctx, listing); err != nil {
		return nil, err
	}
	return toSurplusInfo(listing), nil
}

// UpdateListing 修改尾货单（仅在售状态）
func (s *SurplusService) UpdateListing(ctx context.Context, userID int64, listingID int64, req *dto.UpdateSurplusRequest) (*dto.SurplusInfo, error) {
	listing, _, err := s.ownedListing(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != model.SurplusStatusActive && listing.Status != model.SurplusStatusSoldOut {
		return nil, ErrSurplusNotEditable
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Quantity != nil {
		listing.Quantity = *req.Quantity
		// 数量改回正数时恢复在售
		switch {
		case listing.Quantity == 0:
			listing.Status = model.SurplusStatusSoldOut
		case listing.Status == model.SurplusStatusSoldOut:
			listing.Status = model.SurplusStatusActive
		}
	}
	if req.UnitPriceCents != nil {
		listing.UnitPriceCents = *req.UnitPriceCents
	}
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(time.Now()) {
			return nil, apperr.Validation("expires_at must be in the future")
		}
		listing.ExpiresAt = *req.ExpiresAt
		// 延期把过期单拉回在售
		if listing.Status == model.SurplusStatusExpired && listing.Quantity > 0 {
			listing.Status = model.SurplusStatusActive
		}
	}

	if err := s.surplusRepo.Update(ctx, listing); err != nil {
		return nil, err
	}
	return toSurplusInfo(listing), nil
}

// WithdrawListing 撤回尾货单，购物车里的存量条目结算时会被拦下
func (s *SurplusService) WithdrawListing(ctx context.Context, userID int64, listingID int64) error {
	listing, _, err := s.ownedListing(ctx, userID, listingID)
	if err != nil {
		return err
	}
	if listing.Status == model.SurplusStatusWithdrawn {
		return nil
	}
	return s.surplusRepo.UpdateStatus(ctx, listing.ID, model.SurplusStatusWithdrawn)
}

// ==================== 查询 ====================

// ListPublic 公开尾货列表，仅在售且未过期
func (s *SurplusService) ListPublic(ctx context.Context, req *dto.SurplusListRequest) ([]*dto.SurplusInfo, int64, error) {
	listings, total, err := s.surplusRepo.List(ctx, repository.SurplusFilter{
		SupplierID:    req.SupplierID,
		Condition:     req.Condition,
		MaxPriceCents: req.MaxPriceCents,
		ActiveOnly:    true,
		Page:          req.Page,
		PageSize:      req.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return toSurplusInfos(listings), total, nil
}

// ListOwn 供应商查看自己的全部尾货单（含售罄/过期/撤回）
func (s *SurplusService) ListOwn(ctx context.Context, userID int64, req *dto.SurplusListRequest) ([]*dto.SurplusInfo, int64, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if supplier == nil {
		return nil, 0, ErrSupplierNotFound
	}

	listings, total, err := s.surplusRepo.List(ctx, repository.SurplusFilter{
		SupplierID: supplier.ID,
		Condition:  req.Condition,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return toSurplusInfos(listings), total, nil
}

// GetListing 尾货详情，公开可见（撤回单除外）
func (s *SurplusService) GetListing(ctx context.Context, listingID int64) (*dto.SurplusInfo, error) {
	listing, err := s.surplusRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil || listing.Status == model.SurplusStatusWithdrawn {
		return nil, ErrSurplusNotFound
	}
	return toSurplusInfo(listing), nil
}

// ==================== 辅助 ====================

// requireSeller 解析供应商档案并校验可售状态
func (s *SurplusService) requireSeller(ctx context.Context, userID int64) (*model.Supplier, error) {
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

func (s *SurplusService) ownedListing(ctx context.Context, userID int64, listingID int64) (*model.SurplusListing, *model.Supplier, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if supplier == nil {
		return nil, nil, ErrSupplierNotFound
	}

	listing, err := s.surplusRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	if listing == nil {
		return nil, nil, ErrSurplusNotFound
	}
	if listing.SupplierID != supplier.ID {
		return nil, nil, ErrNotSurplusOwner
	}
	return listing, supplier, nil
}

func toSurplusInfos(listings []model.SurplusListing) []*dto.SurplusInfo {
	infos := make([]*dto.SurplusInfo, 0, len(listings))
	for i := range listings {
		infos = append(infos, toSurplusInfo(&listings[i]))
	}
	return infos
}

// ==================== 错误定义 ====================

var (
	ErrNotSurplusOwner    = apperr.Forbidden("listing belongs to another supplier")
	ErrSurplusNotEditable = apperr.Conflict("listing can no longer be edited")
)
