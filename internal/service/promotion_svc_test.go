package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"gorm.io/gorm"
)

func newTestPromotionService(db *gorm.DB) *PromotionService {
	return NewPromotionService(
		repository.NewPromotionRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewCartRepository(db),
		repository.NewOrderRepository(db),
	)
}

func seedPromotion(t *testing.T, db *gorm.DB, code string, mutate func(*model.Promotion)) *model.Promotion {
	t.Helper()
	promo := &model.Promotion{
		Code:          code,
		DiscountType:  model.PromoTypePercent,
		DiscountValue: 10,
		StartsAt:      time.Now().Add(-time.Hour),
		EndsAt:        time.Now().Add(time.Hour),
		Status:        model.PromoStatusActive,
	}
	if mutate != nil {
		mutate(promo)
	}
	if err := db.Create(promo).Error; err != nil {
		t.Fatalf("创建促销失败: %v", err)
	}
	return promo
}

// ==================== 创建 ====================

func TestPromotionService_CreatePromotion(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestPromotionService(db)
	vendorUser, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	ctx := context.Background()

	info, err := svc.CreatePromotion(ctx, vendorUser.ID, model.RoleSupplier, &dto.CreatePromotionRequest{
		Code:          "bulk20",
		DiscountType:  model.PromoTypePercent,
		DiscountValue: 20,
		StartsAt:      time.Now(),
		EndsAt:        time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if info.Code != "BULK20" {
		t.Errorf("code = %s, want BULK20（统一大写）", info.Code)
	}
	if info.SupplierID == nil || *info.SupplierID != supplier.ID {
		t.Error("供应商码应挂在自家供应商名下")
	}

	// 码占用后不可重复
	_, err = svc.CreatePromotion(ctx, vendorUser.ID, model.RoleSupplier, &dto.CreatePromotionRequest{
		Code:          "BULK20",
		DiscountType:  model.PromoTypeFixed,
		DiscountValue: 500,
		StartsAt:      time.Now(),
		EndsAt:        time.Now().Add(24 * time.Hour),
	})
	if !errors.Is(err, ErrPromoCodeTaken) {
		t.Fatalf("重复码应拒绝, got %v", err)
	}

	// 不填码则自动分配
	generated, err := svc.CreatePromotion(ctx, vendorUser.ID, model.RoleSupplier, &dto.CreatePromotionRequest{
		DiscountType:  model.PromoTypeFixed,
		DiscountValue: 500,
		StartsAt:      time.Now(),
		EndsAt:        time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("自动分配码失败: %v", err)
	}
	if len(generated.Code) != 8 {
		t.Errorf("自动码长度 = %d, want 8", len(generated.Code))
	}
}

func TestPromotionService_CreatePromotion_Guards(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestPromotionService(db)
	ctx := context.Background()

	// 未过审供应商不能发码
	pendingUser, _ := seedSupplier(t, db, "pending@example.com", model.SupplierStatusPending)
	_, err := svc.CreatePromotion(ctx, pendingUser.ID, model.RoleSupplier, &dto.CreatePromotionRequest{
		DiscountType:  model.PromoTypePercent,
		DiscountValue: 10,
		StartsAt:      time.Now(),
		EndsAt:        time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrSupplierNotApproved) {
		t.Fatalf("未过审供应商应拒绝, got %v", err)
	}

	// 时间窗倒挂
	adminUser := seedUser(t, db, "admin@example.com", model.RoleAdmin, model.UserStatusActive)
	_, err = svc.CreatePromotion(ctx, adminUser.ID, model.RoleAdmin, &dto.CreatePromotionRequest{
		DiscountType:  model.PromoTypePercent,
		DiscountValue: 10,
		StartsAt:      time.Now().Add(time.Hour),
		EndsAt:        time.Now(),
	})
	if err == nil {
		t.Fatal("结束早于开始应拒绝")
	}

	// 百分比超 100
	_, err = svc.CreatePromotion(ctx, adminUser.ID, model.RoleAdmin, &dto.CreatePromotionRequest{
		DiscountType:  model.PromoTypePercent,
		DiscountValue: 120,
		StartsAt:      time.Now(),
		EndsAt:        time.Now().Add(time.Hour),
	})
	if err == nil {
		t.Fatal("百分比超过 100 应拒绝")
	}
}

// ==================== 结算前校验 ====================

func TestPromotionService_ValidateCode(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestPromotionService(db)
	ctx := context.Background()

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	seedCartItem(t, db, customer.ID, product, 4) // 小计 4000

	cases := []struct {
		name   string
		mutate func(*model.Promotion)
		reason string
	}{
		{
			name:   "不存在的码",
			mutate: nil,
			reason: "promo code not found",
		},
		{
			name:   "已过期",
			mutate: func(p *model.Promotion) { p.EndsAt = time.Now().Add(-time.Minute) },
			reason: "promo code is not active",
		},
		{
			name:   "名额用尽",
			mutate: func(p *model.Promotion) { p.UsageLimit = 3; p.UsageCount = 3 },
			reason: "promo code is not active",
		},
		{
			name:   "未达门槛",
			mutate: func(p *model.Promotion) { p.MinOrderCents = 5000 },
			reason: "order does not meet promo minimum amount",
		},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := "CASE" + string(rune('A'+i))
			if tc.mutate != nil {
				seedPromotion(t, db, code, tc.mutate)
			}
			resp, err := svc.ValidateCode(ctx, user.ID, &dto.ValidatePromotionRequest{Code: code})
			if err != nil {
				t.Fatalf("校验出错: %v", err)
			}
			if resp.Valid {
				t.Fatal("应判为不可用")
			}
			if resp.Reason != tc.reason {
				t.Errorf("reason = %q, want %q", resp.Reason, tc.reason)
			}
		})
	}

	// 有效的百分比码：4000 × 10% = 400
	seedPromotion(t, db, "SAVE10", nil)
	resp, err := svc.ValidateCode(ctx, user.ID, &dto.ValidatePromotionRequest{Code: "save10"})
	if err != nil {
		t.Fatalf("校验出错: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("应判为可用, reason=%s", resp.Reason)
	}
	if resp.DiscountCents != 400 || resp.SubtotalCents != 4000 {
		t.Errorf("discount/subtotal = %d/%d, want 400/4000", resp.DiscountCents, resp.SubtotalCents)
	}
}

func TestPromotionService_ValidateCode_SupplierScoped(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestPromotionService(db)
	ctx := context.Background()

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier1 := seedSupplier(t, db, "vendor1@example.com", model.SupplierStatusApproved)
	_, supplier2 := seedSupplier(t, db, "vendor2@example.com", model.SupplierStatusApproved)

	p1 := seedProduct(t, db, supplier1.ID, 1000, 10)
	p2 := seedProduct(t, db, supplier2.ID, 3000, 10)
	seedCartItem(t, db, customer.ID, p1, 2) // supplier1 小计 2000
	seedCartItem(t, db, customer.ID, p2, 1) // supplier2 小计 3000

	// supplier1 的码只按自家条目计折扣基数
	seedPromotion(t, db, "VENDOR1", func(p *model.Promotion) { p.SupplierID = &supplier1.ID })

	resp, err := svc.ValidateCode(ctx, user.ID, &dto.ValidatePromotionRequest{Code: "VENDOR1"})
	if err != nil {
		t.Fatalf("校验出错: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("应判为可用, reason=%s", resp.Reason)
	}
	if resp.SubtotalCents != 2000 || resp.DiscountCents != 200 {
		t.Errorf("basis/discount = %d/%d, want 2000/200", resp.SubtotalCents, resp.DiscountCents)
	}
}

func TestPromotionService_ValidateCode_MaxDiscountCap(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestPromotionService(db)
	ctx := context.Background()

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 10000, 10)
	seedCartItem(t, db, customer.ID, product, 2) // 小计 20000

	// 10% = 2000，封顶 500
	seedPromotion(t, db, "CAPPED", func(p *model.Promotion) { p.MaxDiscountCents = 500 })

	resp, err := svc.ValidateCode(ctx, user.ID, &dto.ValidatePromotionRequest{Code: "CAPPED"})
	if err != nil {
		t.Fatalf("校验出错: %v", err)
	}
	if resp.DiscountCents != 500 {
		t.Errorf("discount = %d, want 500（受 MaxDiscountCents 封顶）", resp.DiscountCents)
	}
}

// ==================== 维护 ====================

func TestPromotionService_UpdatePromotion_OwnerOnly(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestPromotionService(db)
	ctx := context.Background()

	_, supplier1 := seedSupplier(t, db, "vendor1@example.com", model.SupplierStatusApproved)
	otherUser, _ := seedSupplier(t, db, "vendor2@example.com", model.SupplierStatusApproved)
	promo := seedPromotion(t, db, "MINE", func(p *model.Promotion) { p.SupplierID = &supplier1.ID })

	paused := model.PromoStatusPaused
	_, err := svc.UpdatePromotion(ctx, otherUser.ID, model.RoleSupplier, promo.ID, &dto.UpdatePromotionRequest{
		Status: &paused,
	})
	if !errors.Is(err, ErrNotPromoOwner) {
		t.Fatalf("他人码应拒绝修改, got %v", err)
	}
}
