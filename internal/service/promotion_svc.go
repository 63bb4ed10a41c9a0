package service

import (
	"context"
	"strings"
	"time"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/pkg/utils"
)

// ==================== PromotionService 促销服务 ====================

// PromotionService 促销码的创建、维护与结算前校验
// 供应商码只抵扣自家商品小计，平台码抵扣整车小计
type PromotionService struct {
	promoRepo    repository.PromotionRepository
	supplierRepo repository.SupplierRepository
	customerRepo repository.CustomerRepository
	cartRepo     repository.CartRepository
	orderRepo    repository.OrderRepository
}

// NewPromotionService 创建促销服务
func NewPromotionService(
	promoRepo repository.PromotionRepository,
	supplierRepo repository.SupplierRepository,
	customerRepo repository.CustomerRepository,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
) *PromotionService {
	return &PromotionService{
		promoRepo:    promoRepo,
		supplierRepo: supplierRepo,
		customerRepo: customerRepo,
		cartRepo:     cartRepo,
		orderRepo:    orderRepo,
	}
}

// ==================== 创建与维护 ====================

// CreatePromotion 创建促销码。供应商建自家码，管理员建平台码
func (s *PromotionService) CreatePromotion(ctx context.Context, userID int64, role string, req *dto.CreatePromotionRequest) (*dto.PromotionInfo, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, apperr.Validation("ends_at must be after starts_at")
	}
	if req.DiscountType == model.PromoTypePercent && req.DiscountValue > 100 {
		return nil, apperr.Validation("percent discount cannot exceed 100")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		generated, err := s.allocateCode(ctx)
		if err != nil {
			return nil, err
		}
		code = generated
	} else {
		existing, err := s.promoRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrPromoCodeTaken
		}
	}

	promo := &model.Promotion{
		Code:             code,
		Description:      req.Description,
		DiscountType:     req.DiscountType,
		DiscountValue:    req.DiscountValue,
		MinOrderCents:    req.MinOrderCents,
		MaxDiscountCents: req.MaxDiscountCents,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
		UsageLimit:       req.UsageLimit,
		Status:           model.PromoStatusActive,
	}

	if role == model.RoleSupplier {
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
		promo.SupplierID = &supplier.ID
	}

	if err := s.promoRepo.Create(ctx, promo); err != nil {
		return nil, err
	}
	return toPromotionInfo(promo), nil
}

// allocateCode 生成未被占用的 8 位促销码
func (s *PromotionService) allocateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := utils.GenerateCode(8)
		if err != nil {
			return "", err
		}
		existing, err := s.promoRepo.GetByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", apperr.Internal("promotion code allocation failed")
}

// ListPromotions 供应商看自家码，管理员看全部
func (s *PromotionService) ListPromotions(ctx context.Context, userID int64, role string, req *dto.PromotionListRequest) ([]*dto.PromotionInfo, int64, error) {
	filter := repository.PromotionFilter{
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	if role == model.RoleSupplier {
		supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, 0, err
		}
		if supplier == nil {
			return nil, 0, ErrSupplierNotFound
		}
		filter.SupplierID = supplier.ID
	}

	promos, total, err := s.promoRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.PromotionInfo, 0, len(promos))
	for i := range promos {
		infos = append(infos, toPromotionInfo(&promos[i]))
	}
	return infos, total, nil
}

// UpdatePromotion 修改促销。供应商只能改自家码，码和折扣力度不可改
func (s *PromotionService) UpdatePromotion(ctx context.Context, userID int64, role string, promoID int64, req *dto.UpdatePromotionRequest) (*dto.PromotionInfo, error) {
	promo, err := s.promoRepo.GetByID(ctx, promoID)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrPromoNotFound
	}

	if role == model.RoleSupplier {
		supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if supplier == nil || promo.SupplierID == nil || *promo.SupplierID != supplier.ID {
			return nil, ErrNotPromoOwner
		}
	}

	if req.Description != nil {
		promo.Description = *req.Description
	}
	if req.MinOrderCents != nil {
		promo.MinOrderCents = *req.MinOrderCents
	}
	if req.MaxDiscountCents != nil {
		promo.MaxDiscountCents = *req.MaxDiscountCents
	}
	if req.StartsAt != nil {
		promo.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		promo.EndsAt = *req.EndsAt
	}
	if !promo.EndsAt.After(promo.StartsAt) {
		return nil, apperr.Validation("ends_at must be after starts_at")
	}
	if req.UsageLimit != nil {
		promo.UsageLimit = *req.UsageLimit
	}
	if req.Status != nil {
		promo.Status = *req.Status
	}

	if err := s.promoRepo.Update(ctx, promo); err != nil {
		return nil, err
	}
	return toPromotionInfo(promo), nil
}

// ==================== 结算前校验 ====================

// ValidateCode 按客户当前购物车校验促销码并预估抵扣额
// 不占用名额；真正占用发生在下单事务里
func (s *PromotionService) ValidateCode(ctx context.Context, userID int64, req *dto.ValidatePromotionRequest) (*dto.ValidatePromotionResponse, error) {
	customer, err := s.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	cart, err := s.cartRepo.GetActiveByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return invalidPromo("cart is empty"), nil
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	promo, err := s.promoRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return invalidPromo("promo code not found"), nil
	}
	if !promo.IsLive(time.Now()) {
		return invalidPromo("promo code is not active"), nil
	}

	used, err := s.orderRepo.CountByPromotionAndCustomer(ctx, promo.ID, customer.ID)
	if err != nil {
		return nil, err
	}
	if used > 0 {
		return invalidPromo("promo code already used"), nil
	}

	basis := promoBasisCents(cart, promo)
	if basis == 0 {
		return invalidPromo("promo code does not apply to items in cart"), nil
	}
	if !promo.MeetsMinOrder(basis) {
		return invalidPromo("order does not meet promo minimum amount"), nil
	}

	return &dto.ValidatePromotionResponse{
		Valid:         true,
		DiscountCents: promo.DiscountFor(basis),
		SubtotalCents: basis,
	}, nil
}

// promoBasisCents 抵扣基数：平台码取整车小计，供应商码只取该供应商的条目
func promoBasisCents(cart *model.Cart, promo *model.Promotion) int64 {
	if promo.SupplierID == nil {
		return cart.SubtotalCents()
	}

	var basis int64
	for i := range cart.Items {
		item := &cart.Items[i]
		var supplierID int64
		switch {
		case item.IsSurplus() && item.SurplusListing != nil:
			supplierID = item.SurplusListing.SupplierID
		case item.Product != nil:
			supplierID = item.Product.SupplierID
		}
		if supplierID == *promo.SupplierID {
			basis += item.LineTotalCents()
		}
	}
	return basis
}

func invalidPromo(reason string) *dto.ValidatePromotionResponse {
	return &dto.ValidatePromotionResponse{Valid: false, Reason: reason}
}

// ==================== 错误定义 ====================

var (
	ErrPromoCodeTaken = apperr.Conflict("promo code already exists")
	ErrNotPromoOwner  = apperr.Forbidden("promotion belongs to another supplier")
)
