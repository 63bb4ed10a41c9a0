package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/ws"
	"buildmart_dev_v1_202608/pkg/payment"
)

// ==================== 计价配置 ====================

// PricingConfig 订单计价参数
type PricingConfig struct {
	// TaxRateBps 税率（基点，825 = 8.25%），对折后小计计税
	TaxRateBps int64
	// FreeDeliveryMultiplier 供应商小计达到起订额 N 倍时免配送费
	FreeDeliveryMultiplier int64
}

// ==================== OrderService 订单服务 ====================

// OrderService 下单、查询、取消与状态推进
// 下单是跨购物车/库存/尾货/促销/赊购/配送/通知的单一事务，
// 任何一步失败（含扣款被拒）整体回滚
type OrderService struct {
	uow          *repository.UnitOfWork
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	supplierRepo repository.SupplierRepository
	gateway      payment.Gateway
	events       EventPublisher
	pricing      PricingConfig
}

// NewOrderService 创建订单服务
func NewOrderService(
	uow *repository.UnitOfWork,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	supplierRepo repository.SupplierRepository,
	gateway payment.Gateway,
	events EventPublisher,
	pricing PricingConfig,
) *OrderService {
	if pricing.FreeDeliveryMultiplier <= 0 {
		pricing.FreeDeliveryMultiplier = 3
	}
	return &OrderService{
		uow:          uow,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		gateway:      gateway,
		events:       events,
		pricing:      pricing,
	}
}

// ==================== 下单 ====================

// orderDraft 事务内逐步组装的下单上下文
type orderDraft struct {
	customer *model.Customer
	address  datatypes.JSONMap

	items             []model.OrderItem
	supplierSubtotals map[int64]int64
	suppliers         map[int64]*model.Supplier

	subtotalCents int64
	discountCents int64
	taxCents      int64
	deliveryCents int64
	grandCents    int64

	promotion *model.Promotion
}

// PlaceOrder 购物车整车结算下单
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, req *dto.PlaceOrderRequest) (*dto.OrderDetail, error) {
	customer, err := s.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	address := datatypes.JSONMap(req.DeliveryAddress)
	if len(address) == 0 {
		address = customer.DefaultAddress
	}
	if len(address) == 0 {
		return nil, apperr.Validation("delivery address is required")
	}

	var order *model.Order
	var publishQueue []func()

	err = s.uow.Transaction(ctx, func(u *repository.UnitOfWork) error {
		draft := &orderDraft{
			customer:          customer,
			address:           address,
			supplierSubtotals: make(map[int64]int64),
			suppliers:         make(map[int64]*model.Supplier),
		}

		// 锁购物车并校验条目
		cart, err := u.Carts.GetActiveByCustomerForUpdate(ctx, customer.ID)
		if err != nil {
			return err
		}
		if cart == nil || len(cart.Items) == 0 {
			return ErrCartEmpty
		}

		if err := s.buildItems(ctx, u, cart, draft); err != nil {
			return err
		}
		if err := s.checkSuppliers(ctx, u, draft); err != nil {
			return err
		}
		if err := s.applyPromotion(ctx, u, draft, req.PromoCode); err != nil {
			return err
		}
		s.computeTotals(draft)

		// 扣款：被拒则整体回滚
		order = s.newOrder(draft, req)
		if err := s.charge(ctx, u, draft, order, req); err != nil {
			return err
		}

		// 订单连同订单项落库
		order.Items = draft.items
		if err := u.Orders.Create(ctx, order); err != nil {
			return err
		}

		// 扣库存/尾货数量、占用促销名额
		if err := s.commitInventory(ctx, u, draft, &publishQueue); err != nil {
			return err
		}

		// 每个供应商一张配送单
		deliveries := s.newDeliveries(order, draft)
		if err := u.Deliveries.CreateBatch(ctx, deliveries); err != nil {
			return err
		}
		order.Deliveries = deliveries

		if err := u.Orders.AppendTimeline(ctx, &model.OrderTimeline{
			OrderID: order.ID,
			Status:  model.OrderStatusPending,
			Note:    "order placed",
			ActorID: userID,
		}); err != nil {
			return err
		}

		if err := s.placementNotifications(ctx, u, order, draft, &publishQueue); err != nil {
			return err
		}

		return u.Carts.UpdateStatus(ctx, cart.ID, model.CartStatusConverted)
	})
	if err != nil {
		return nil, err
	}

	// 提交成功后才对外发事件
	for _, publish := range publishQueue {
		publish()
	}

	return s.toOrderDetail(order), nil
}

// buildItems 锁定商品/尾货行，校验可购性并生成订单项快照
func (s *OrderService) buildItems(ctx context.Context, u *repository.UnitOfWork, cart *model.Cart, draft *orderDraft) error {
	now := time.Now()

	for i := range cart.Items {
		cartItem := &cart.Items[i]

		if cartItem.IsSurplus() {
			listing, err := u.Surplus.GetByIDForUpdate(ctx, *cartItem.SurplusListingID)
			if err != nil {
				return err
			}
			if listing == nil || !listing.CanPurchase(cartItem.Quantity, now) {
				return ErrSurplusUnavailable
			}

			item := model.OrderItem{
				ProductID:        cartItem.ProductID,
				SupplierID:       listing.SupplierID,
				SurplusListingID: cartItem.SurplusListingID,
				ProductName:      listing.Title,
				Unit:             listing.Unit,
				Quantity:         cartItem.Quantity,
				UnitPriceCents:   cartItem.UnitPriceCents,
				TotalCents:       cartItem.LineTotalCents(),
			}
			draft.items = append(draft.items, item)
			draft.supplierSubtotals[listing.SupplierID] += item.TotalCents
			continue
		}

		product, err := u.Products.GetByIDForUpdate(ctx, cartItem.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if !product.CanPurchase(cartItem.Quantity) {
			return cartAvailabilityError(product, cartItem.Quantity)
		}

		item := model.OrderItem{
			ProductID:      product.ID,
			SupplierID:     product.SupplierID,
			ProductName:    product.Name,
			SKU:            product.SKU,
			Unit:           product.Unit,
			Quantity:       cartItem.Quantity,
			UnitPriceCents: cartItem.UnitPriceCents,
			TotalCents:     cartItem.LineTotalCents(),
		}
		draft.items = append(draft.items, item)
		draft.supplierSubtotals[product.SupplierID] += item.TotalCents
	}

	for _, item := range draft.items {
		draft.subtotalCents += item.TotalCents
	}
	return nil
}

// checkSuppliers 校验各供应商可售状态与起订金额
func (s *OrderService) checkSuppliers(ctx context.Context, u *repository.UnitOfWork, draft *orderDraft) error {
	for supplierID, subtotal := range draft.supplierSubtotals {
		supplier, err := u.Suppliers.GetByID(ctx, supplierID)
		if err != nil {
			return err
		}
		if supplier == nil || !supplier.CanSell() {
			return ErrSupplierNotSelling
		}
		if supplier.MinOrderCents > 0 && subtotal < supplier.MinOrderCents {
			return apperr.Validation(fmt.Sprintf(
				"subtotal for %s is below the supplier minimum order amount", supplier.BusinessName))
		}
		draft.suppliers[supplierID] = supplier
	}
	return nil
}

// applyPromotion 校验促销码并计算抵扣
// 供应商专属码只作用于该供应商的小计；每个客户同一码限用一次
func (s *OrderService) applyPromotion(ctx context.Context, u *repository.UnitOfWork, draft *orderDraft, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}

	promo, err := u.Promotions.GetByCodeForUpdate(ctx, code)
	if err != nil {
		return err
	}
	if promo == nil {
		return ErrPromoNotFound
	}
	if !promo.IsLive(time.Now()) {
		return ErrPromoNotLive
	}

	used, err := u.Orders.CountByPromotionAndCustomer(ctx, promo.ID, draft.customer.ID)
	if err != nil {
		return err
	}
	if used > 0 {
		return ErrPromoAlreadyUsed
	}

	basis := draft.subtotalCents
	if promo.SupplierID != nil {
		basis = draft.supplierSubtotals[*promo.SupplierID]
		if basis == 0 {
			return ErrPromoNotApplicable
		}
	}
	if !promo.MeetsMinOrder(basis) {
		return ErrPromoMinNotMet
	}

	draft.promotion = promo
	draft.discountCents = promo.DiscountFor(basis)
	return nil
}

// computeTotals 折后小计计税，配送费按供应商累加
// 供应商小计达到起订额 N 倍时该供应商免运
func (s *OrderService) computeTotals(draft *orderDraft) {
	taxable := draft.subtotalCents - draft.discountCents
	draft.taxCents = taxable * s.pricing.TaxRateBps / 10000

	for supplierID, supplier := range draft.suppliers {
		subtotal := draft.supplierSubtotals[supplierID]
		draft.deliveryCents += s.deliveryFeeFor(supplier, subtotal)
	}

	draft.grandCents = taxable + draft.taxCents + draft.deliveryCents
}

func (s *OrderService) deliveryFeeFor(supplier *model.Supplier, subtotalCents int64) int64 {
	if supplier.DeliveryFeeCents == 0 {
		return 0
	}
	if supplier.MinOrderCents > 0 &&
		subtotalCents >= supplier.MinOrderCents*s.pricing.FreeDeliveryMultiplier {
		return 0
	}
	return supplier.DeliveryFeeCents
}

func (s *OrderService) newOrder(draft *orderDraft, req *dto.PlaceOrderRequest) *model.Order {
	order := &model.Order{
		OrderNo:          newOrderNo(),
		CustomerID:       draft.customer.ID,
		Status:           model.OrderStatusPending,
		Currency:         "USD",
		SubtotalCents:    draft.subtotalCents,
		TaxCents:         draft.taxCents,
		DeliveryFeeCents: draft.deliveryCents,
		DiscountCents:    draft.discountCents,
		GrandTotalCents:  draft.grandCents,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    model.PaymentStatusPending,
		DeliveryAddress:  draft.address,
		Notes:            req.Notes,
	}
	if draft.promotion != nil {
		order.PromotionID = &draft.promotion.ID
		order.PromoCode = draft.promotion.Code
	}
	return order
}

// charge 扣款。赊购走额度守护更新，银行卡走网关
func (s *OrderService) charge(ctx context.Context, u *repository.UnitOfWork, draft *orderDraft, order *model.Order, req *dto.PlaceOrderRequest) error {
	switch req.PaymentMethod {
	case model.PaymentMethodTradeCredit:
		if !draft.customer.IsTrade() {
			return ErrTradeCreditNotAllowed
		}
		rows, err := u.Customers.AdjustCreditUsed(ctx, draft.customer.ID, draft.grandCents)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrCreditExceeded
		}
		order.PaymentStatus = model.PaymentStatusPaid
		now := time.Now()
		order.PaidAt = &now
		return nil

	case model.PaymentMethodCard:
		result, err := s.gateway.Charge(ctx, &payment.ChargeRequest{
			OrderNo:     order.OrderNo,
			AmountCents: draft.grandCents,
			Currency:    order.Currency,
			Method:      req.PaymentMethod,
			CustomerRef: req.CardRef,
		})
		if errors.Is(err, payment.ErrDeclined) {
			return ErrPaymentDeclined
		}
		if err != nil {
			return apperr.PaymentFailed("payment gateway error").WithCause(err)
		}
		order.PaymentStatus = model.PaymentStatusPaid
		order.TransactionID = result.TransactionID
		now := time.Now()
		order.PaidAt = &now
		return nil

	default:
		return apperr.Validation("unsupported payment method")
	}
}

// commitInventory 扣减库存与尾货数量、占用促销名额
// 带守护条件的原子更新兜底，锁读后理论上不会命中
func (s *OrderService) commitInventory(ctx context.Context, u *repository.UnitOfWork, draft *orderDraft, publishQueue *[]func()) error {
	for i := range draft.items {
		item := &draft.items[i]

		if item.SurplusListingID != nil {
			rows, err := u.Surplus.DecrementQuantity(ctx, *item.SurplusListingID, item.Quantity)
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrSurplusUnavailable
			}

			listing, err := u.Surplus.GetByID(ctx, *item.SurplusListingID)
			if err != nil {
				return err
			}
			if listing != nil && listing.Quantity == 0 {
				if err := u.Surplus.UpdateStatus(ctx, listing.ID, model.SurplusStatusSoldOut); err != nil {
					return err
				}
			}
			continue
		}

		rows, err := u.Products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInsufficientStock
		}
		if err := u.Products.IncrementSold(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}

		product, err := u.Products.GetByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			continue
		}
		if product.StockQuantity == 0 {
			if err := u.Products.UpdateStatus(ctx, product.ID, model.ProductStatusOutOfStock); err != nil {
				return err
			}
			product.Status = model.ProductStatusOutOfStock
		}

		productID, stock, status := product.ID, product.StockQuantity, product.Status
		*publishQueue = append(*publishQueue, func() {
			s.events.Publish(ws.RoomProduct(productID), ws.EventInventoryUpdate, &dto.InventoryEvent{
				ProductID:     productID,
				StockQuantity: stock,
				Status:        status,
			})
		})
	}

	if draft.promotion != nil {
		rows, err := u.Promotions.IncrementUsage(ctx, draft.promotion.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPromoNotLive
		}
	}
	return nil
}

func (s *OrderService) newDeliveries(order *model.Order, draft *orderDraft) []model.Delivery {
	deliveries := make([]model.Delivery, 0, len(draft.suppliers))
	for supplierID, supplier := range draft.suppliers {
		deliveries = append(deliveries, model.Delivery{
			OrderID:    order.ID,
			SupplierID: supplierID,
			Status:     model.DeliveryStatusScheduled,
			Address:    draft.address,
			FeeCents:   s.deliveryFeeFor(supplier, draft.supplierSubtotals[supplierID]),
		})
	}
	return deliveries
}

// placementNotifications 事务内落通知，提交后发事件
func (s *OrderService) placementNotifications(ctx context.Context, u *repository.UnitOfWork, order *model.Order, draft *orderDraft, publishQueue *[]func()) error {
	notifications := []model.Notification{{
		UserID: draft.customer.UserID,
		Type:   model.NotifyOrderStatus,
		Title:  "Order placed",
		Body:   fmt.Sprintf("Order %s has been placed", order.OrderNo),
		Data:   datatypes.JSONMap{"order_id": order.ID, "order_no": order.OrderNo},
	}}

	itemCounts := make(map[int64]int)
	for _, item := range draft.items {
		itemCounts[item.SupplierID] += item.Quantity
	}

	for supplierID, supplier := range draft.suppliers {
		notifications = append(notifications, model.Notification{
			UserID: supplier.UserID,
			Type:   model.NotifyOrderCreated,
			Title:  "New order received",
			Body:   fmt.Sprintf("Order %s includes your products", order.OrderNo),
			Data:   datatypes.JSONMap{"order_id": order.ID, "order_no": order.OrderNo},
		})

		event := &dto.OrderCreatedEvent{
			OrderID:    order.ID,
			OrderNo:    order.OrderNo,
			SupplierID: supplierID,
			ItemCount:  itemCounts[supplierID],
			TotalCents: draft.supplierSubtotals[supplierID],
		}
		supplierUserID := supplier.UserID
		*publishQueue = append(*publishQueue, func() {
			s.events.Publish(ws.RoomUser(supplierUserID), ws.EventOrderCreated, event)
		})
	}

	customerUserID := draft.customer.UserID
	orderID, orderNo := order.ID, order.OrderNo
	*publishQueue = append(*publishQueue, func() {
		s.events.Publish(ws.RoomUser(customerUserID), ws.EventOrderStatusChanged, &dto.OrderStatusEvent{
			OrderID: orderID,
			OrderNo: orderNo,
			Status:  model.OrderStatusPending,
		})
	})

	return u.Notifications.CreateBatch(ctx, notifications)
}

// newOrderNo 订单号：BM + 日期 + 随机段
func newOrderNo() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("BM%s%s", time.Now().Format("20060102"), suffix)
}

// ==================== 查询 ====================

// ListOrders 按角色返回订单列表：客户看自己的，供应商看含自家商品的，管理员看全部
func (s *OrderService) ListOrders(ctx context.Context, userID int64, role string, req *dto.OrderListRequest) ([]*dto.OrderInfo, int64, error) {
	filter := repository.OrderFilter{
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	var orders []model.Order
	var total int64
	var err error

	switch role {
	case model.RoleCustomer:
		customer, cerr := s.customerRepo.GetByUserID(ctx, userID)
		if cerr != nil {
			return nil, 0, cerr
		}
		if customer == nil {
			return nil, 0, ErrCustomerNotFound
		}
		filter.CustomerID = customer.ID
		orders, total, err = s.orderRepo.List(ctx, filter)

	case model.RoleSupplier:
		supplier, serr := s.supplierRepo.GetByUserID(ctx, userID)
		if serr != nil {
			return nil, 0, serr
		}
		if supplier == nil {
			return nil, 0, ErrSupplierNotFound
		}
		orders, total, err = s.orderRepo.ListBySupplier(ctx, supplier.ID, filter)

	case model.RoleAdmin:
		orders, total, err = s.orderRepo.List(ctx, filter)

	default:
		return nil, 0, apperr.Forbidden("unknown role")
	}
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.OrderInfo, 0, len(orders))
	for i := range orders {
		infos = append(infos, toOrderInfo(&orders[i]))
	}
	return infos, total, nil
}

// GetOrder 订单详情，仅订单参与方（客户、涉单供应商）与管理员可见
func (s *OrderService) GetOrder(ctx context.Context, userID int64, role string, orderID int64) (*dto.OrderDetail, error) {
	order, err := s.orderRepo.GetWithDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if err := s.authorizeOrderAccess(ctx, userID, role, order); err != nil {
		return nil, err
	}
	return s.toOrderDetail(order), nil
}

func (s *OrderService) authorizeOrderAccess(ctx context.Context, userID int64, role string, order *model.Order) error {
	switch role {
	case model.RoleAdmin:
		return nil

	case model.RoleCustomer:
		customer, err := s.customerRepo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if customer == nil || customer.ID != order.CustomerID {
			return ErrOrderAccessDenied
		}
		return nil

	case model.RoleSupplier:
		supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if supplier == nil {
			return ErrOrderAccessDenied
		}
		for _, id := range order.SupplierIDs() {
			if id == supplier.ID {
				return nil
			}
		}
		return ErrOrderAccessDenied
	}
	return ErrOrderAccessDenied
}

// ==================== 取消 ====================

// CancelOrder 取消订单（发货前）。回补库存与尾货数量，退款或释放赊购额度
func (s *OrderService) CancelOrder(ctx context.Context, userID int64, role string, orderID int64, req *dto.CancelOrderRequest) (*dto.OrderDetail, error) {
	var cancelled *model.Order
	var publishQueue []func()

	err := s.uow.Transaction(ctx, func(u *repository.UnitOfWork) error {
		order, err := u.Orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if err := s.authorizeCancel(ctx, userID, role, order); err != nil {
			return err
		}
		if !order.CanCancel() {
			return ErrOrderNotCancellable
		}

		// 回补库存与尾货数量
		for _, item := range order.Items {
			if item.SurplusListingID != nil {
				if err := u.Surplus.IncrementQuantity(ctx, *item.SurplusListingID, item.Quantity); err != nil {
					return err
				}
				listing, err := u.Surplus.GetByID(ctx, *item.SurplusListingID)
				if err != nil {
					return err
				}
				if listing != nil && listing.Status == model.SurplusStatusSoldOut && !listing.IsExpired(time.Now()) {
					if err := u.Surplus.UpdateStatus(ctx, listing.ID, model.SurplusStatusActive); err != nil {
						return err
					}
				}
				continue
			}

			if err := u.Products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			product, err := u.Products.GetByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product != nil && product.Status == model.ProductStatusOutOfStock {
				if err := u.Products.UpdateStatus(ctx, product.ID, model.ProductStatusActive); err != nil {
					return err
				}
			}
		}

		// 退款：赊购释放额度，银行卡走网关退款
		if order.IsPaid() {
			if err := s.refund(ctx, u, order); err != nil {
				return err
			}
		}

		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			reason = "cancelled by requester"
		}
		if err := u.Orders.MarkCancelled(ctx, order.ID, reason); err != nil {
			return err
		}
		if err := u.Orders.AppendTimeline(ctx, &model.OrderTimeline{
			OrderID: order.ID,
			Status:  model.OrderStatusCancelled,
			Note:    reason,
			ActorID: userID,
		}); err != nil {
			return err
		}

		if err := s.cancelNotifications(ctx, u, order, &publishQueue); err != nil {
			return err
		}

		order.Status = model.OrderStatusCancelled
		order.CancelReason = reason
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, publish := range publishQueue {
		publish()
	}
	return s.toOrderDetail(cancelled), nil
}

// authorizeCancel 客户本人或管理员可取消
func (s *OrderService) authorizeCancel(ctx context.Context, userID int64, role string, order *model.Order) error {
	if role == model.RoleAdmin {
		return nil
	}
	if role != model.RoleCustomer {
		return ErrOrderAccessDenied
	}
	customer, err := s.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if customer == nil || customer.ID != order.CustomerID {
		return ErrOrderAccessDenied
	}
	return nil
}

func (s *OrderService) refund(ctx context.Context, u *repository.UnitOfWork, order *model.Order) error {
	switch order.PaymentMethod {
	case model.PaymentMethodTradeCredit:
		if _, err := u.Customers.AdjustCreditUsed(ctx, order.CustomerID, -order.GrandTotalCents); err != nil {
			return err
		}
	case model.PaymentMethodCard:
		if err := s.gateway.Refund(ctx, order.TransactionID, order.GrandTotalCents); err != nil {
			return apperr.Internal("refund failed").WithCause(err)
		}
	}
	return u.Orders.Update(ctx, &model.Order{
		ID:            order.ID,
		PaymentStatus: model.PaymentStatusRefunded,
	})
}

func (s *OrderService) cancelNotifications(ctx context.Context, u *repository.UnitOfWork, order *model.Order, publishQueue *[]func()) error {
	customer, err := u.Customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return err
	}

	var notifications []model.Notification
	if customer != nil {
		notifications = append(notifications, model.Notification{
			UserID: customer.UserID,
			Type:   model.NotifyOrderStatus,
			Title:  "Order cancelled",
			Body:   fmt.Sprintf("Order %s has been cancelled", order.OrderNo),
			Data:   datatypes.JSONMap{"order_id": order.ID, "order_no": order.OrderNo},
		})
	}

	for _, supplierID := range order.SupplierIDs() {
		supplier, err := u.Suppliers.GetByID(ctx, supplierID)
		if err != nil {
			return err
		}
		if supplier == nil {
			continue
		}
		notifications = append(notifications, model.Notification{
			UserID: supplier.UserID,
			Type:   model.NotifyOrderStatus,
			Title:  "Order cancelled",
			Body:   fmt.Sprintf("Order %s has been cancelled", order.OrderNo),
			Data:   datatypes.JSONMap{"order_id": order.ID, "order_no": order.OrderNo},
		})
	}

	event := &dto.OrderStatusEvent{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		Status:  model.OrderStatusCancelled,
	}
	orderID := order.ID
	*publishQueue = append(*publishQueue, func() {
		s.events.Publish(ws.RoomOrder(orderID), ws.EventOrderStatusChanged, event)
	})

	if len(notifications) == 0 {
		return nil
	}
	return u.Notifications.CreateBatch(ctx, notifications)
}

// ==================== 状态推进 ====================

// AdvanceStatus 供应商/管理员沿生命周期推进订单状态
func (s *OrderService) AdvanceStatus(ctx context.Context, userID int64, role string, orderID int64, req *dto.UpdateOrderStatusRequest) (*dto.OrderDetail, error) {
	var updated *model.Order
	var publishQueue []func()

	err := s.uow.Transaction(ctx, func(u *repository.UnitOfWork) error {
		order, err := u.Orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}

		if role != model.RoleAdmin {
			if role != model.RoleSupplier {
				return ErrOrderAccessDenied
			}
			if err := s.authorizeOrderAccess(ctx, userID, role, order); err != nil {
				return err
			}
		}

		if !order.CanTransitionTo(req.Status) {
			return ErrInvalidTransition
		}

		if err := u.Orders.UpdateStatus(ctx, order.ID, req.Status); err != nil {
			return err
		}
		if err := u.Orders.AppendTimeline(ctx, &model.OrderTimeline{
			OrderID: order.ID,
			Status:  req.Status,
			Note:    req.Note,
			ActorID: userID,
		}); err != nil {
			return err
		}

		customer, err := u.Customers.GetByID(ctx, order.CustomerID)
		if err != nil {
			return err
		}
		if customer != nil {
			if err := u.Notifications.Create(ctx, &model.Notification{
				UserID: customer.UserID,
				Type:   model.NotifyOrderStatus,
				Title:  "Order " + req.Status,
				Body:   fmt.Sprintf("Order %s is now %s", order.OrderNo, req.Status),
				Data:   datatypes.JSONMap{"order_id": order.ID, "order_no": order.OrderNo},
			}); err != nil {
				return err
			}
		}

		event := &dto.OrderStatusEvent{
			OrderID: order.ID,
			OrderNo: order.OrderNo,
			Status:  req.Status,
			Note:    req.Note,
		}
		orderRoomID := order.ID
		publishQueue = append(publishQueue, func() {
			s.events.Publish(ws.RoomOrder(orderRoomID), ws.EventOrderStatusChanged, event)
		})
		if customer != nil {
			customerUserID := customer.UserID
			publishQueue = append(publishQueue, func() {
				s.events.Publish(ws.RoomUser(customerUserID), ws.EventOrderStatusChanged, event)
			})
		}

		order.Status = req.Status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, publish := range publishQueue {
		publish()
	}
	return s.toOrderDetail(updated), nil
}

// ==================== 视图组装 ====================

func (s *OrderService) toOrderDetail(order *model.Order) *dto.OrderDetail {
	detail := &dto.OrderDetail{
		OrderInfo:       *toOrderInfo(order),
		DeliveryAddress: order.DeliveryAddress,
		Notes:           order.Notes,
		CancelReason:    order.CancelReason,
	}
	for i := range order.Items {
		detail.Items = append(detail.Items, toOrderItemInfo(&order.Items[i]))
	}
	for i := range order.Deliveries {
		detail.Deliveries = append(detail.Deliveries, toDeliveryInfo(&order.Deliveries[i]))
	}
	for i := range order.Timeline {
		entry := &order.Timeline[i]
		detail.Timeline = append(detail.Timeline, &dto.OrderTimelineEntry{
			Status:    entry.Status,
			Note:      entry.Note,
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		})
	}
	return detail
}

// ==================== 错误定义 ====================

var (
	ErrCartEmpty             = apperr.Validation("cart is empty")
	ErrOrderNotFound         = apperr.NotFound("order not found")
	ErrOrderAccessDenied     = apperr.Forbidden("not a participant of this order")
	ErrOrderNotCancellable   = apperr.Conflict("order can no longer be cancelled")
	ErrInvalidTransition     = apperr.Conflict("invalid status transition")
	ErrSupplierNotSelling    = apperr.Conflict("supplier is not accepting orders")
	ErrTradeCreditNotAllowed = apperr.Forbidden("trade credit is only available to trade customers")
	ErrCreditExceeded        = apperr.PaymentFailed("trade credit limit exceeded")
	ErrPaymentDeclined       = apperr.PaymentFailed("payment declined")
	ErrPromoNotFound         = apperr.NotFound("promo code not found")
	ErrPromoNotLive          = apperr.Conflict("promo code is not active")
	ErrPromoAlreadyUsed      = apperr.Conflict("promo code already used")
	ErrPromoNotApplicable    = apperr.Conflict("promo code does not apply to items in cart")
	ErrPromoMinNotMet        = apperr.Conflict("order does not meet promo minimum amount")
)
