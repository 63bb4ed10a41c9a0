package task

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/service"
)

func openTaskDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{}, &model.Customer{}, &model.Supplier{},
		&model.Order{}, &model.OrderItem{}, &model.Delivery{},
		&model.Notification{}, &model.SurplusListing{}, &model.Promotion{},
	)
	if err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

// ==================== 尾货过期 ====================

func TestSurplusExpiryTask_ExpireNow(t *testing.T) {
	db := openTaskDB(t)
	repo := repository.NewSurplusRepository(db)
	task := NewSurplusExpiryTask(repo, "")

	listings := []model.SurplusListing{
		{SupplierID: 1, Title: "Expired plasterboard", Quantity: 5, UnitPriceCents: 100,
			ExpiresAt: time.Now().Add(-time.Hour), Status: model.SurplusStatusActive},
		{SupplierID: 1, Title: "Still live timber", Quantity: 5, UnitPriceCents: 100,
			ExpiresAt: time.Now().Add(time.Hour), Status: model.SurplusStatusActive},
		{SupplierID: 1, Title: "Already sold out", Quantity: 0, UnitPriceCents: 100,
			ExpiresAt: time.Now().Add(-time.Hour), Status: model.SurplusStatusSoldOut},
	}
	if err := db.Create(&listings).Error; err != nil {
		t.Fatalf("创建尾货单失败: %v", err)
	}

	task.ExpireNow(context.Background())

	var statuses []string
	if err := db.Model(&model.SurplusListing{}).Order("id").Pluck("status", &statuses).Error; err != nil {
		t.Fatalf("查询状态失败: %v", err)
	}
	want := []string{model.SurplusStatusExpired, model.SurplusStatusActive, model.SurplusStatusSoldOut}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("listing %d status = %s, want %s", i, statuses[i], want[i])
		}
	}
}

// ==================== 促销下线 ====================

func TestPromotionSweepTask_SweepNow(t *testing.T) {
	db := openTaskDB(t)
	repo := repository.NewPromotionRepository(db)
	task := NewPromotionSweepTask(repo, "")

	promos := []model.Promotion{
		{Code: "ENDED", DiscountType: model.PromoTypeFixed, DiscountValue: 100,
			StartsAt: time.Now().Add(-2 * time.Hour), EndsAt: time.Now().Add(-time.Hour),
			Status: model.PromoStatusActive},
		{Code: "USEDUP", DiscountType: model.PromoTypeFixed, DiscountValue: 100,
			StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour),
			UsageLimit: 3, UsageCount: 3, Status: model.PromoStatusActive},
		{Code: "LIVE", DiscountType: model.PromoTypeFixed, DiscountValue: 100,
			StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour),
			Status: model.PromoStatusActive},
	}
	if err := db.Create(&promos).Error; err != nil {
		t.Fatalf("创建促销失败: %v", err)
	}

	task.SweepNow(context.Background())

	var statuses []string
	if err := db.Model(&model.Promotion{}).Order("id").Pluck("status", &statuses).Error; err != nil {
		t.Fatalf("查询状态失败: %v", err)
	}
	want := []string{model.PromoStatusExpired, model.PromoStatusExpired, model.PromoStatusActive}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("promo %d status = %s, want %s", i, statuses[i], want[i])
		}
	}
}

// ==================== 配送提醒 ====================

func TestDeliveryReminderTask_RemindNow(t *testing.T) {
	db := openTaskDB(t)

	customer := &model.Customer{UserID: 101, Name: "Site Buyer"}
	supplier := &model.Supplier{UserID: 102, BusinessName: "Gravel Co", Status: model.SupplierStatusApproved}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("创建客户失败: %v", err)
	}
	if err := db.Create(supplier).Error; err != nil {
		t.Fatalf("创建供应商失败: %v", err)
	}

	order := &model.Order{
		OrderNo: "BM-TASK-1", CustomerID: customer.ID, Status: model.OrderStatusConfirmed,
		PaymentMethod: model.PaymentMethodCard, PaymentStatus: model.PaymentStatusPaid,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}

	windowStart := time.Now().Add(2 * time.Hour)
	delivery := &model.Delivery{
		OrderID: order.ID, SupplierID: supplier.ID,
		Status: model.DeliveryStatusScheduled, WindowStart: &windowStart,
	}
	if err := db.Create(delivery).Error; err != nil {
		t.Fatalf("创建配送单失败: %v", err)
	}

	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), service.NopPublisher())
	task := NewDeliveryReminderTask(
		repository.NewDeliveryRepository(db),
		repository.NewOrderRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewSupplierRepository(db),
		notifications,
		"",
	)
	task.SetConcurrency(1, 0)

	task.RemindNow(context.Background())

	// 客户与供应商各一条提醒
	var count int64
	db.Model(&model.Notification{}).Where("type = ?", model.NotifyDeliveryReminder).Count(&count)
	if count != 2 {
		t.Errorf("reminder notifications = %d, want 2", count)
	}

	var fresh model.Delivery
	db.First(&fresh, delivery.ID)
	if fresh.ReminderSentAt == nil {
		t.Error("reminder_sent_at 应已记录")
	}

	// 再跑一轮不重复提醒
	task.RemindNow(context.Background())
	db.Model(&model.Notification{}).Where("type = ?", model.NotifyDeliveryReminder).Count(&count)
	if count != 2 {
		t.Errorf("二轮后 reminder notifications = %d, want 2（单次提醒）", count)
	}
}
