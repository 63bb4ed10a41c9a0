package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/ws"
)

// ==================== 下单：正常路径 ====================

func TestOrderService_PlaceOrder_MultiSupplier(t *testing.T) {
	db := openSvcDB(t)
	events := &recordingPublisher{}
	svc := newTestOrderService(db, mockGateway(t, 0), events)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier1 := seedSupplier(t, db, "vendor1@example.com", model.SupplierStatusApproved)
	_, supplier2 := seedSupplier(t, db, "vendor2@example.com", model.SupplierStatusApproved)
	supplier1.DeliveryFeeCents = 500
	if err := db.Save(supplier1).Error; err != nil {
		t.Fatalf("更新供应商失败: %v", err)
	}

	p1 := seedProduct(t, db, supplier1.ID, 1000, 10)
	p2 := seedProduct(t, db, supplier2.ID, 2000, 3)
	seedCartItem(t, db, customer.ID, p1, 2)
	seedCartItem(t, db, customer.ID, p2, 1)

	detail, err := svc.PlaceOrder(context.Background(), user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	// 金额：小计 4000，税 20% = 800，配送费 500（仅 supplier1 收）
	if detail.SubtotalCents != 4000 {
		t.Errorf("subtotal = %d, want 4000", detail.SubtotalCents)
	}
	if detail.TaxCents != 800 {
		t.Errorf("tax = %d, want 800", detail.TaxCents)
	}
	if detail.DeliveryFeeCents != 500 {
		t.Errorf("delivery fee = %d, want 500", detail.DeliveryFeeCents)
	}
	if detail.GrandTotalCents != 5300 {
		t.Errorf("grand total = %d, want 5300", detail.GrandTotalCents)
	}
	if detail.PaymentStatus != model.PaymentStatusPaid {
		t.Errorf("payment status = %s, want paid", detail.PaymentStatus)
	}

	// 库存已扣
	var fresh1, fresh2 model.Product
	db.First(&fresh1, p1.ID)
	db.First(&fresh2, p2.ID)
	if fresh1.StockQuantity != 8 || fresh2.StockQuantity != 2 {
		t.Errorf("库存 = %d/%d, want 8/2", fresh1.StockQuantity, fresh2.StockQuantity)
	}

	// 每个供应商一张配送单
	if len(detail.Deliveries) != 2 {
		t.Errorf("deliveries = %d, want 2", len(detail.Deliveries))
	}

	// 购物车转为 converted
	var cart model.Cart
	db.Where("customer_id = ?", customer.ID).First(&cart)
	if cart.Status != model.CartStatusConverted {
		t.Errorf("cart status = %s, want converted", cart.Status)
	}

	// 通知：客户 1 条 + 供应商各 1 条
	if n := countRows(t, db, &model.Notification{}); n != 3 {
		t.Errorf("notifications = %d, want 3", n)
	}

	// 流转记录
	if n := countRows(t, db, &model.OrderTimeline{}); n != 1 {
		t.Errorf("timeline entries = %d, want 1", n)
	}

	// 提交后事件：每个供应商一条 order_created
	if n := events.countEvent(ws.EventOrderCreated); n != 2 {
		t.Errorf("order_created events = %d, want 2", n)
	}
	if n := events.countEvent(ws.EventInventoryUpdate); n != 2 {
		t.Errorf("inventory_update events = %d, want 2", n)
	}
}

func TestOrderService_PlaceOrder_FreeDeliveryThreshold(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestOrderService(db, mockGateway(t, 0), nil)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	supplier.DeliveryFeeCents = 500
	supplier.MinOrderCents = 1000
	if err := db.Save(supplier).Error; err != nil {
		t.Fatalf("更新供应商失败: %v", err)
	}

	// 小计 4000 ≥ 起订额 1000 × 3 倍，免配送费
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	seedCartItem(t, db, customer.ID, product, 4)

	detail, err := svc.PlaceOrder(context.Background(), user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}
	if detail.DeliveryFeeCents != 0 {
		t.Errorf("delivery fee = %d, want 0（达到免运门槛）", detail.DeliveryFeeCents)
	}
}

// ==================== 下单：失败整体回滚 ====================

func TestOrderService_PlaceOrder_PaymentDeclinedRollsBack(t *testing.T) {
	db := openSvcDB(t)
	// 任意金额都拒绝
	svc := newTestOrderService(db, mockGateway(t, 1), nil)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	seedCartItem(t, db, customer.ID, product, 2)

	_, err := svc.PlaceOrder(context.Background(), user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodCard,
	})
	if !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("扣款被拒应 ErrPaymentDeclined, got %v", err)
	}

	// 全部回滚：无订单、库存原样、购物车仍活跃、无通知
	if n := countRows(t, db, &model.Order{}); n != 0 {
		t.Errorf("orders = %d, want 0", n)
	}
	var fresh model.Product
	db.First(&fresh, product.ID)
	if fresh.StockQuantity != 10 {
		t.Errorf("stock = %d, want 10", fresh.StockQuantity)
	}
	var cart model.Cart
	db.Where("customer_id = ?", customer.ID).First(&cart)
	if cart.Status != model.CartStatusActive {
		t.Errorf("cart status = %s, want active", cart.Status)
	}
	if n := countRows(t, db, &model.Notification{}); n != 0 {
		t.Errorf("notifications = %d, want 0", n)
	}
}

func TestOrderService_PlaceOrder_InsufficientStock(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestOrderService(db, mockGateway(t, 0), nil)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	seedCartItem(t, db, customer.ID, product, 5)

	// 加购后库存被别的订单消耗
	if err := db.Model(&model.Product{}).Where("id = ?", product.ID).
		Update("stock_quantity", 3).Error; err != nil {
		t.Fatalf("压缩库存失败: %v", err)
	}

	_, err := svc.PlaceOrder(context.Background(), user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodCard,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("库存不足应拒绝, got %v", err)
	}
	if n := countRows(t, db, &model.Order{}); n != 0 {
		t.Errorf("orders = %d, want 0", n)
	}
}

func TestOrderService_PlaceOrder_EmptyCart(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestOrderService(db, mockGateway(t, 0), nil)
	user, _ := seedCustomer(t, db, "buyer@example.com")

	_, err := svc.PlaceOrder(context.Background(), user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodCard,
	})
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("空购物车应拒绝, got %v", err)
	}
}

// ==================== 赊购 ====================

func TestOrderService_PlaceOrder_TradeCredit(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestOrderService(db, mockGateway(t, 0), nil)

	user, customer := seedTradeCustomer(t, db, "trade@example.com", 10000)
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	seedCartItem(t, db, customer.ID, product, 2)

	detail, err := svc.PlaceOrder(context.Background(), user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodTradeCredit,
	})
	if err != nil {
		t.Fatalf("赊购下单失败: %v", err)
	}
	if detail.PaymentStatus != model.PaymentStatusPaid {
		t.Errorf("payment status = %s, want paid", detail.PaymentStatus)
	}

	// 总额 2000 + 税 400 = 2400 计入已用额度
	var fresh model.Customer
	db.First(&fresh, customer.ID)
	if fresh.CreditUsedCents != 2400 {
		t.Errorf("credit used = %d, want 2400", fresh.CreditUsedCents)
	}
}

func TestOrderService_PlaceOrder_TradeCreditGuards(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestOrderService(db, mockGateway(t, 0), nil)
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 50)

	// 个人客户没有赊购资格
	indUser, indCustomer := seedCustomer(t, db, "individual@example.com")
	seedCartItem(t, db, indCustomer.ID, product, 1)
	_, err := svc.PlaceOrder(context.Background(), indUser.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodTradeCredit,
	})
	if !errors.Is(err, ErrTradeCreditNotAllowed) {
		t.Fatalf("个人客户赊购应拒绝, got %v", err)
	}

	// 企业客户额度不足，整单回滚
	tradeUser, tradeCustomer := seedTradeCustomer(t, db, "trade@example.com", 1000)
	seedCartItem(t, db, tradeCustomer.ID, product, 2)
	_, err = svc.PlaceOrder(context.Background(), tradeUser.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodTradeCredit,
	})
	if !errors.Is(err, ErrCreditExceeded) {
		t.Fatalf("额度不足应拒绝, got %v", err)
	}
	var fresh model.Customer
	db.First(&fresh, tradeCustomer.ID)
	if fresh.CreditUsedCents != 0 {
		t.Errorf("失败后额度应回滚, credit used = %d", fresh.CreditUsedCents)
	}
}

// ==================== 尾货购买 ====================

func TestOrderService_PlaceOrder_SurplusSoldOut(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestOrderService(db, mockGateway(t, 0), nil)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)

	listing := &model.SurplusListing{
		SupplierID:     supplier.ID,
		Title:          "Site-surplus insulation",
		Quantity:       2,
		Unit:           model.UnitPiece,
		UnitPriceCents: 3000,
		ExpiresAt:      time.Now().Add(24 * time.Hour),
		Status:         model.SurplusStatusActive,
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("创建尾货单失败: %v", err)
	}

	cart := &model.Cart{CustomerID: customer.ID, Status: model.CartStatusActive}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("创建购物车失败: %v", err)
	}
	item := &model.CartItem{
		CartID:           cart.ID,
		SurplusListingID: &listing.ID,
		Quantity:         2,
		UnitPriceCents:   listing.UnitPriceCents,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("创建尾货条目失败: %v", err)
	}

	detail, err := svc.PlaceOrder(context.Background(), user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("尾货下单失败: %v", err)
	}
	if detail.SubtotalCents != 6000 {
		t.Errorf("subtotal = %d, want 6000", detail.SubtotalCents)
	}

	// 数量清零后标记售罄
	var fresh model.SurplusListing
	db.First(&fresh, listing.ID)
	if fresh.Quantity != 0 {
		t.Errorf("surplus quantity = %d, want 0", fresh.Quantity)
	}
	if fresh.Status != model.SurplusStatusSoldOut {
		t.Errorf("surplus status = %s, want sold_out", fresh.Status)
	}
}

// ==================== 促销 ====================

func TestOrderService_PlaceOrder_PromotionApplied(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestOrderService(db, mockGateway(t, 0), nil)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	seedCartItem(t, db, customer.ID, product, 4)

	promo := &model.Promotion{
		Code:          "SPRING10",
		DiscountType:  model.PromoTypePercent,
		DiscountValue: 10,
		StartsAt:      time.Now().Add(-time.Hour),
		EndsAt:        time.Now().Add(time.Hour),
		UsageLimit:    5,
		Status:        model.PromoStatusActive,
	}
	if err := db.Create(promo).Error; err != nil {
		t.Fatalf("创建促销失败: %v", err)
	}

	detail, err := svc.PlaceOrder(context.Background(), user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodCard,
		PromoCode:     "spring10", // 大小写不敏感
	})
	if err != nil {
		t.Fatalf("带促销码下单失败: %v", err)
	}

	// 小计 4000，折扣 400，税按折后 3600 × 20% = 720
	if detail.DiscountCents != 400 {
		t.Errorf("discount = %d, want 400", detail.DiscountCents)
	}
	if detail.TaxCents != 720 {
		t.Errorf("tax = %d, want 720", detail.TaxCents)
	}
	if detail.GrandTotalCents != 4320 {
		t.Errorf("grand total = %d, want 4320", detail.GrandTotalCents)
	}

	var fresh model.Promotion
	db.First(&fresh, promo.ID)
	if fresh.UsageCount != 1 {
		t.Errorf("usage count = %d, want 1", fresh.UsageCount)
	}
}

// ==================== 取消 ====================

func TestOrderService_CancelOrder_RestoresStockAndCredit(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestOrderService(db, mockGateway(t, 0), nil)

	user, customer := seedTradeCustomer(t, db, "trade@example.com", 100000)
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	seedCartItem(t, db, customer.ID, product, 3)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodTradeCredit,
	})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	cancelled, err := svc.CancelOrder(ctx, user.ID, model.RoleCustomer, placed.ID, &dto.CancelOrderRequest{
		Reason: "project postponed",
	})
	if err != nil {
		t.Fatalf("取消失败: %v", err)
	}
	if cancelled.Status != model.OrderStatusCancelled {
		t.Errorf("order status = %s, want cancelled", cancelled.Status)
	}

	// 库存回补、赊购额度释放、支付状态转退款
	var freshProduct model.Product
	db.First(&freshProduct, product.ID)
	if freshProduct.StockQuantity != 10 {
		t.Errorf("stock = %d, want 10", freshProduct.StockQuantity)
	}
	var freshCustomer model.Customer
	db.First(&freshCustomer, customer.ID)
	if freshCustomer.CreditUsedCents != 0 {
		t.Errorf("credit used = %d, want 0", freshCustomer.CreditUsedCents)
	}
	var freshOrder model.Order
	db.First(&freshOrder, placed.ID)
	if freshOrder.PaymentStatus != model.PaymentStatusRefunded {
		t.Errorf("payment status = %s, want refunded", freshOrder.PaymentStatus)
	}
}

func TestOrderService_CancelOrder_OnlyBeforeProcessing(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestOrderService(db, mockGateway(t, 0), nil)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	seedCartItem(t, db, customer.ID, product, 1)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	if err := db.Model(&model.Order{}).Where("id = ?", placed.ID).
		Update("status", model.OrderStatusProcessing).Error; err != nil {
		t.Fatalf("推进状态失败: %v", err)
	}

	_, err = svc.CancelOrder(ctx, user.ID, model.RoleCustomer, placed.ID, &dto.CancelOrderRequest{})
	if !errors.Is(err, ErrOrderNotCancellable) {
		t.Fatalf("备货中订单不可取消, got %v", err)
	}
}

// ==================== 状态推进 ====================

func TestOrderService_AdvanceStatus(t *testing.T) {
	db := openSvcDB(t)
	events := &recordingPublisher{}
	svc := newTestOrderService(db, mockGateway(t, 0), events)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	adminUser := seedUser(t, db, "admin@example.com", model.RoleAdmin, model.UserStatusActive)
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	seedCartItem(t, db, customer.ID, product, 1)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	// pending 不能直接跳 processing
	_, err = svc.AdvanceStatus(ctx, adminUser.ID, model.RoleAdmin, placed.ID, &dto.UpdateOrderStatusRequest{
		Status: model.OrderStatusProcessing,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("跳步流转应拒绝, got %v", err)
	}

	updated, err := svc.AdvanceStatus(ctx, adminUser.ID, model.RoleAdmin, placed.ID, &dto.UpdateOrderStatusRequest{
		Status: model.OrderStatusConfirmed,
		Note:   "confirmed by ops",
	})
	if err != nil {
		t.Fatalf("确认订单失败: %v", err)
	}
	if updated.Status != model.OrderStatusConfirmed {
		t.Errorf("status = %s, want confirmed", updated.Status)
	}
	if n := events.countEvent(ws.EventOrderStatusChanged); n == 0 {
		t.Error("状态推进应发布 order_status_changed")
	}
}

// ==================== 查询授权 ====================

func TestOrderService_GetOrder_ParticipantsOnly(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestOrderService(db, mockGateway(t, 0), nil)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	stranger, _ := seedCustomer(t, db, "stranger@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	seedCartItem(t, db, customer.ID, product, 1)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, user.ID, &dto.PlaceOrderRequest{
		PaymentMethod: model.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	if _, err := svc.GetOrder(ctx, user.ID, model.RoleCustomer, placed.ID); err != nil {
		t.Fatalf("买家应可见自己的订单: %v", err)
	}
	if _, err := svc.GetOrder(ctx, stranger.ID, model.RoleCustomer, placed.ID); !errors.Is(err, ErrOrderAccessDenied) {
		t.Fatalf("无关客户应拒绝, got %v", err)
	}
}
