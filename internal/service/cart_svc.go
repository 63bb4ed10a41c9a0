package service

import (
	"context"
	"time"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
)

// ==================== CartService 购物车服务 ====================

// CartService 购物车维护，单价在加购时快照
// 每个客户同时只有一个活跃购物车，下单成功后转为 converted
type CartService struct {
	cartRepo     repository.CartRepository
	itemRepo     repository.CartItemRepository
	productRepo  repository.ProductRepository
	surplusRepo  repository.SurplusRepository
	customerRepo repository.CustomerRepository
}

// NewCartService 创建购物车服务
func NewCartService(
	cartRepo repository.CartRepository,
	itemRepo repository.CartItemRepository,
	productRepo repository.ProductRepository,
	surplusRepo repository.SurplusRepository,
	customerRepo repository.CustomerRepository,
) *CartService {
	return &CartService{
		cartRepo:     cartRepo,
		itemRepo:     itemRepo,
		productRepo:  productRepo,
		surplusRepo:  surplusRepo,
		customerRepo: customerRepo,
	}
}

// resolveCustomer 解析当前用户的客户档案
func (s *CartService) resolveCustomer(ctx context.Context, userID int64) (*model.Customer, error) {
	customer, err := s.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// getOrCreateCart 取活跃购物车，没有则新建
func (s *CartService) getOrCreateCart(ctx context.Context, customerID int64) (*model.Cart, error) {
	cart, err := s.cartRepo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	cart = &model.Cart{
		CustomerID: customerID,
		Status:     model.CartStatusActive,
	}
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ==================== 查询 ====================

// GetCart 当前购物车视图，空车返回空条目列表
func (s *CartService) GetCart(ctx context.Context, userID int64) (*dto.CartInfo, error) {
	customer, err := s.resolveCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart, err := s.getOrCreateCart(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	return s.toCartInfo(cart), nil
}

// ==================== 条目操作 ====================

// AddItem 加购。同一商品（或同一尾货单）重复加购合并数量，单价保持首次快照
func (s *CartService) AddItem(ctx context.Context, userID int64, req *dto.AddCartItemRequest) (*dto.CartInfo, error) {
	customer, err := s.resolveCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart, err := s.getOrCreateCart(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	if req.SurplusListingID != nil {
		err = s.addSurplusItem(ctx, cart, *req.SurplusListingID, req.Quantity)
	} else {
		err = s.addProductItem(ctx, cart, req.ProductID, req.Quantity)
	}
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, customer.ID)
}

func (s *CartService) addProductItem(ctx context.Context, cart *model.Cart, productID int64, quantity int) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil || product.Status == model.ProductStatusInactive {
		return ErrProductNotFound
	}

	existing, err := s.itemRepo.GetByCartAndProduct(ctx, cart.ID, productID)
	if err != nil {
		return err
	}

	merged := quantity
	if existing != nil {
		merged += existing.Quantity
	}
	if !product.CanPurchase(merged) {
		return cartAvailabilityError(product, merged)
	}

	if existing != nil {
		return s.itemRepo.UpdateQuantity(ctx, existing.ID, merged)
	}
	return s.itemRepo.Create(ctx, &model.CartItem{
		CartID:         cart.ID,
		ProductID:      productID,
		Quantity:       quantity,
		UnitPriceCents: product.PriceCents,
	})
}

func (s *CartService) addSurplusItem(ctx context.Context, cart *model.Cart, surplusID int64, quantity int) error {
	listing, err := s.surplusRepo.GetByID(ctx, surplusID)
	if err != nil {
		return err
	}
	if listing == nil || listing.Status == model.SurplusStatusWithdrawn {
		return ErrSurplusNotFound
	}

	existing, err := s.itemRepo.GetByCartAndSurplus(ctx, cart.ID, surplusID)
	if err != nil {
		return err
	}

	merged := quantity
	if existing != nil {
		merged += existing.Quantity
	}
	if !listing.CanPurchase(merged, time.Now()) {
		return ErrSurplusUnavailable
	}

	if existing != nil {
		return s.itemRepo.UpdateQuantity(ctx, existing.ID, merged)
	}

	item := &model.CartItem{
		CartID:           cart.ID,
		SurplusListingID: &surplusID,
		Quantity:         quantity,
		UnitPriceCents:   listing.UnitPriceCents,
	}
	// 独立尾货没有商品关联，ProductID 置 0
	if listing.ProductID != nil {
		item.ProductID = *listing.ProductID
	}
	return s.itemRepo.Create(ctx, item)
}

// UpdateItem 修改条目数量
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID int64, req *dto.UpdateCartItemRequest) (*dto.CartInfo, error) {
	customer, err := s.resolveCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart, item, err := s.ownedItem(ctx, customer.ID, itemID)
	if err != nil {
		return nil, err
	}

	if item.IsSurplus() {
		listing, err := s.surplusRepo.GetByID(ctx, *item.SurplusListingID)
		if err != nil {
			return nil, err
		}
		if listing == nil || !listing.CanPurchase(req.Quantity, time.Now()) {
			return nil, ErrSurplusUnavailable
		}
	} else {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		if !product.CanPurchase(req.Quantity) {
			return nil, cartAvailabilityError(product, req.Quantity)
		}
	}

	if err := s.itemRepo.UpdateQuantity(ctx, item.ID, req.Quantity); err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.CustomerID)
}

// RemoveItem 移除条目
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) (*dto.CartInfo, error) {
	customer, err := s.resolveCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart, item, err := s.ownedItem(ctx, customer.ID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.itemRepo.Delete(ctx, item.ID); err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.CustomerID)
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, userID int64) (*dto.CartInfo, error) {
	customer, err := s.resolveCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart, err := s.getOrCreateCart(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	if err := s.itemRepo.DeleteByCart(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.reload(ctx, customer.ID)
}

// ownedItem 校验条目属于该客户的活跃购物车
func (s *CartService) ownedItem(ctx context.Context, customerID, itemID int64) (*model.Cart, *model.CartItem, error) {
	cart, err := s.cartRepo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}
	if cart == nil {
		return nil, nil, ErrCartItemNotFound
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil || item.CartID != cart.ID {
		return nil, nil, ErrCartItemNotFound
	}
	return cart, item, nil
}

func (s *CartService) reload(ctx context.Context, customerID int64) (*dto.CartInfo, error) {
	cart, err := s.cartRepo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartItemNotFound
	}
	return s.toCartInfo(cart), nil
}

// ==================== 视图组装 ====================

func (s *CartService) toCartInfo(cart *model.Cart) *dto.CartInfo {
	now := time.Now()
	items := make([]*dto.CartItemInfo, 0, len(cart.Items))
	for i := range cart.Items {
		items = append(items, toCartItemInfo(&cart.Items[i], now))
	}
	return &dto.CartInfo{
		ID:            cart.ID,
		Status:        cart.Status,
		Items:         items,
		SubtotalCents: cart.SubtotalCents(),
		UpdatedAt:     cart.UpdatedAt,
	}
}

func toCartItemInfo(item *model.CartItem, now time.Time) *dto.CartItemInfo {
	info := &dto.CartItemInfo{
		ID:               item.ID,
		ProductID:        item.ProductID,
		SurplusListingID: item.SurplusListingID,
		Quantity:         item.Quantity,
		UnitPriceCents:   item.UnitPriceCents,
		LineTotalCents:   item.LineTotalCents(),
	}

	switch {
	case item.IsSurplus() && item.SurplusListing != nil:
		info.ProductName = item.SurplusListing.Title
		info.Unit = item.SurplusListing.Unit
		info.SupplierID = item.SurplusListing.SupplierID
		info.InStock = item.SurplusListing.CanPurchase(item.Quantity, now)
	case item.Product != nil:
		info.ProductName = item.Product.Name
		info.Unit = item.Product.Unit
		info.SupplierID = item.Product.SupplierID
		info.InStock = item.Product.CanPurchase(item.Quantity)
	}
	return info
}

// cartAvailabilityError 购买校验失败的具体原因
func cartAvailabilityError(product *model.Product, quantity int) error {
	switch {
	case !product.IsActive():
		return ErrProductUnavailable
	case quantity < product.MinOrderQuantity:
		return apperr.Validation("quantity below minimum order quantity")
	default:
		return ErrInsufficientStock
	}
}

// ==================== 错误定义 ====================

var (
	ErrCustomerNotFound   = apperr.NotFound("customer profile not found")
	ErrCartItemNotFound   = apperr.NotFound("cart item not found")
	ErrProductUnavailable = apperr.Conflict("product is not available")
	ErrInsufficientStock  = apperr.InsufficientStock("insufficient stock")
	ErrSurplusNotFound    = apperr.NotFound("surplus listing not found")
	ErrSurplusUnavailable = apperr.Conflict("surplus listing unavailable or quantity exceeded")
)
