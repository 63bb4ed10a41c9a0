package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buildmart_dev_v1_202608/internal/model"
)

func openRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{}, &model.Customer{}, &model.Supplier{},
		&model.Category{}, &model.Product{},
		&model.Order{}, &model.OrderItem{},
		&model.Delivery{}, &model.Notification{},
		&model.SurplusListing{}, &model.Promotion{},
	)
	if err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

// ==================== 库存扣减守卫 ====================

func TestProductRepository_DecrementStock_Guard(t *testing.T) {
	db := openRepoDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &model.Product{
		SupplierID: 1, CategoryID: 1, Name: "Rebar 12mm", SKU: "RB-12",
		Status: model.ProductStatusActive, PriceCents: 800, StockQuantity: 5,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}

	rows, err := repo.DecrementStock(ctx, product.ID, 3)
	if err != nil || rows != 1 {
		t.Fatalf("扣减失败: rows=%d err=%v", rows, err)
	}

	// 余量不足时条件不命中，零行受影响
	rows, err = repo.DecrementStock(ctx, product.ID, 3)
	if err != nil {
		t.Fatalf("扣减出错: %v", err)
	}
	if rows != 0 {
		t.Error("超量扣减应零行受影响")
	}

	var fresh model.Product
	db.First(&fresh, product.ID)
	if fresh.StockQuantity != 2 {
		t.Errorf("stock = %d, want 2", fresh.StockQuantity)
	}
}

func TestSurplusRepository_DecrementQuantity_Guard(t *testing.T) {
	db := openRepoDB(t)
	repo := NewSurplusRepository(db)
	ctx := context.Background()

	listing := &model.SurplusListing{
		SupplierID: 1, Title: "Leftover bricks", Quantity: 4,
		UnitPriceCents: 2000, ExpiresAt: time.Now().Add(time.Hour),
		Status: model.SurplusStatusActive,
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("创建尾货单失败: %v", err)
	}

	if rows, err := repo.DecrementQuantity(ctx, listing.ID, 4); err != nil || rows != 1 {
		t.Fatalf("扣减失败: rows=%d err=%v", rows, err)
	}
	if rows, _ := repo.DecrementQuantity(ctx, listing.ID, 1); rows != 0 {
		t.Error("数量见底后扣减应零行受影响")
	}

	// 非在售状态同样不命中
	if err := repo.UpdateStatus(ctx, listing.ID, model.SurplusStatusSoldOut); err != nil {
		t.Fatalf("更新状态失败: %v", err)
	}
	if err := repo.IncrementQuantity(ctx, listing.ID, 2); err != nil {
		t.Fatalf("回补失败: %v", err)
	}
	if rows, _ := repo.DecrementQuantity(ctx, listing.ID, 1); rows != 0 {
		t.Error("售罄状态下不应扣减")
	}
}

// ==================== 赊购额度守卫 ====================

func TestCustomerRepository_AdjustCreditUsed_Bounds(t *testing.T) {
	db := openRepoDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	customer := &model.Customer{
		UserID: 1, Name: "Acme Builders", CustomerType: model.CustomerTypeTrade,
		CreditLimitCents: 10000,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("创建客户失败: %v", err)
	}

	if rows, err := repo.AdjustCreditUsed(ctx, customer.ID, 8000); err != nil || rows != 1 {
		t.Fatalf("占用额度失败: rows=%d err=%v", rows, err)
	}
	// 超限不命中
	if rows, _ := repo.AdjustCreditUsed(ctx, customer.ID, 3000); rows != 0 {
		t.Error("超出额度应零行受影响")
	}
	// 负向释放
	if rows, err := repo.AdjustCreditUsed(ctx, customer.ID, -8000); err != nil || rows != 1 {
		t.Fatalf("释放额度失败: rows=%d err=%v", rows, err)
	}
	// 释放不能把已用额度打成负数
	if rows, _ := repo.AdjustCreditUsed(ctx, customer.ID, -1); rows != 0 {
		t.Error("已用额度为零时继续释放应零行受影响")
	}
}

// ==================== 评价资格查询 ====================

func TestOrderRepository_HasDeliveredProduct(t *testing.T) {
	db := openRepoDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := &model.Order{
		OrderNo: "BM-REPO-1", CustomerID: 7, Status: model.OrderStatusDelivered,
		PaymentMethod: model.PaymentMethodCard, PaymentStatus: model.PaymentStatusPaid,
		Items: []model.OrderItem{{ProductID: 11, SupplierID: 1, Quantity: 1, UnitPriceCents: 100, TotalCents: 100}},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}

	cases := []struct {
		name                           string
		customerID, productID, orderID int64
		want                           bool
	}{
		{"已送达订单内的商品", 7, 11, order.ID, true},
		{"别人的订单", 8, 11, order.ID, false},
		{"订单里没有的商品", 7, 12, order.ID, false},
		{"不存在的订单", 7, 11, order.ID + 99, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.HasDeliveredProduct(ctx, tc.customerID, tc.productID, tc.orderID)
			if err != nil {
				t.Fatalf("查询出错: %v", err)
			}
			if got != tc.want {
				t.Errorf("eligible = %v, want %v", got, tc.want)
			}
		})
	}
}

// ==================== 促销名额守卫 ====================

func TestPromotionRepository_IncrementUsage_Limit(t *testing.T) {
	db := openRepoDB(t)
	repo := NewPromotionRepository(db)
	ctx := context.Background()

	promo := &model.Promotion{
		Code: "LIMIT2", DiscountType: model.PromoTypeFixed, DiscountValue: 100,
		StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour),
		UsageLimit: 2, Status: model.PromoStatusActive,
	}
	if err := db.Create(promo).Error; err != nil {
		t.Fatalf("创建促销失败: %v", err)
	}

	for i := 0; i < 2; i++ {
		if rows, err := repo.IncrementUsage(ctx, promo.ID); err != nil || rows != 1 {
			t.Fatalf("第 %d 次占用失败: rows=%d err=%v", i+1, rows, err)
		}
	}
	if rows, _ := repo.IncrementUsage(ctx, promo.ID); rows != 0 {
		t.Error("名额用尽后应零行受影响")
	}
}

// ==================== 配送提醒查询 ====================

func TestDeliveryRepository_FindUpcoming(t *testing.T) {
	db := openRepoDB(t)
	repo := NewDeliveryRepository(db)
	ctx := context.Background()
	now := time.Now()

	in2h := now.Add(2 * time.Hour)
	in2d := now.Add(48 * time.Hour)
	reminded := now.Add(-10 * time.Minute)
	deliveries := []model.Delivery{
		{OrderID: 1, SupplierID: 1, Status: model.DeliveryStatusScheduled, WindowStart: &in2h},
		{OrderID: 2, SupplierID: 1, Status: model.DeliveryStatusScheduled, WindowStart: &in2d},
		{OrderID: 3, SupplierID: 1, Status: model.DeliveryStatusScheduled, WindowStart: &in2h, ReminderSentAt: &reminded},
		{OrderID: 4, SupplierID: 1, Status: model.DeliveryStatusDelivered, WindowStart: &in2h},
	}
	if err := db.Create(&deliveries).Error; err != nil {
		t.Fatalf("创建配送单失败: %v", err)
	}

	upcoming, err := repo.FindUpcoming(ctx, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("查询出错: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].OrderID != 1 {
		t.Fatalf("应只命中 24 小时窗口内未提醒的排期单, got %d 条", len(upcoming))
	}

	if err := repo.MarkReminded(ctx, upcoming[0].ID, now); err != nil {
		t.Fatalf("标记提醒失败: %v", err)
	}
	again, err := repo.FindUpcoming(ctx, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("查询出错: %v", err)
	}
	if len(again) != 0 {
		t.Error("已提醒的配送单不应再次命中")
	}
}

// ==================== 通知归属与已读 ====================

func TestNotificationRepository_MarkRead_OwnerOnly(t *testing.T) {
	db := openRepoDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	notif := &model.Notification{UserID: 5, Type: model.NotifyOrderStatus, Title: "Order placed"}
	if err := db.Create(notif).Error; err != nil {
		t.Fatalf("创建通知失败: %v", err)
	}

	// 他人标记不命中
	if rows, _ := repo.MarkRead(ctx, notif.ID, 6); rows != 0 {
		t.Error("非归属人标记应零行受影响")
	}
	if rows, err := repo.MarkRead(ctx, notif.ID, 5); err != nil || rows != 1 {
		t.Fatalf("标记已读失败: rows=%d err=%v", rows, err)
	}
	// 重复标记不命中
	if rows, _ := repo.MarkRead(ctx, notif.ID, 5); rows != 0 {
		t.Error("重复标记应零行受影响")
	}

	unread, err := repo.CountUnread(ctx, 5)
	if err != nil || unread != 0 {
		t.Errorf("unread = %d err=%v, want 0", unread, err)
	}
}
