package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/model"
)

// ==================== 活跃购物车 ====================

func TestCartService_OneActiveCartPerCustomer(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestCartService(db)
	user, _ := seedCustomer(t, db, "buyer@example.com")
	ctx := context.Background()

	first, err := svc.GetCart(ctx, user.ID)
	if err != nil {
		t.Fatalf("首次取购物车失败: %v", err)
	}
	second, err := svc.GetCart(ctx, user.ID)
	if err != nil {
		t.Fatalf("再次取购物车失败: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("重复取应复用同一购物车: %d != %d", first.ID, second.ID)
	}
	if n := countRows(t, db, &model.Cart{}); n != 1 {
		t.Errorf("carts = %d, want 1", n)
	}
}

// ==================== 加购 ====================

func TestCartService_AddItem_StockLimit(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestCartService(db)
	user, _ := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1500, 5)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, user.ID, &dto.AddCartItemRequest{
		ProductID: product.ID,
		Quantity:  6,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("超库存加购应拒绝, got %v", err)
	}

	cart, err := svc.AddItem(ctx, user.ID, &dto.AddCartItemRequest{
		ProductID: product.ID,
		Quantity:  5,
	})
	if err != nil {
		t.Fatalf("足量加购失败: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("加购后条目不符: %+v", cart.Items)
	}
	if cart.SubtotalCents != 7500 {
		t.Errorf("subtotal = %d, want 7500", cart.SubtotalCents)
	}
}

func TestCartService_AddItem_MergesQuantity(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestCartService(db)
	user, _ := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1500, 10)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, user.ID, &dto.AddCartItemRequest{ProductID: product.ID, Quantity: 4}); err != nil {
		t.Fatalf("首次加购失败: %v", err)
	}

	// 加购后降价，条目仍保持首次快照价
	if err := db.Model(&model.Product{}).Where("id = ?", product.ID).
		Update("price_cents", 999).Error; err != nil {
		t.Fatalf("更新价格失败: %v", err)
	}

	cart, err := svc.AddItem(ctx, user.ID, &dto.AddCartItemRequest{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("合并加购失败: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("同商品应合并为一条, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 7 {
		t.Errorf("quantity = %d, want 7", cart.Items[0].Quantity)
	}
	if cart.Items[0].UnitPriceCents != 1500 {
		t.Errorf("unit price = %d, want 首次快照 1500", cart.Items[0].UnitPriceCents)
	}

	// 合并后总量不得越过库存
	_, err = svc.AddItem(ctx, user.ID, &dto.AddCartItemRequest{ProductID: product.ID, Quantity: 4})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("合并越库存应拒绝, got %v", err)
	}
}

// ==================== 改量 ====================

func TestCartService_UpdateItem_EnforcesStock(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestCartService(db)
	user, _ := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1500, 8)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, user.ID, &dto.AddCartItemRequest{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("加购失败: %v", err)
	}
	itemID := cart.Items[0].ID

	_, err = svc.UpdateItem(ctx, user.ID, itemID, &dto.UpdateCartItemRequest{Quantity: 9})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("超库存改量应拒绝, got %v", err)
	}

	updated, err := svc.UpdateItem(ctx, user.ID, itemID, &dto.UpdateCartItemRequest{Quantity: 8})
	if err != nil {
		t.Fatalf("改量失败: %v", err)
	}
	if updated.Items[0].Quantity != 8 {
		t.Errorf("quantity = %d, want 8", updated.Items[0].Quantity)
	}
}

func TestCartService_UpdateItem_OwnershipGuard(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestCartService(db)
	buyer, _ := seedCustomer(t, db, "buyer@example.com")
	other, _ := seedCustomer(t, db, "other@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1500, 8)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, buyer.ID, &dto.AddCartItemRequest{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("加购失败: %v", err)
	}

	_, err = svc.UpdateItem(ctx, other.ID, cart.Items[0].ID, &dto.UpdateCartItemRequest{Quantity: 1})
	if !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("他人条目应不可见, got %v", err)
	}
}

// ==================== 尾货条目 ====================

func TestCartService_AddSurplusItem(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestCartService(db)
	user, _ := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	ctx := context.Background()

	listing := &model.SurplusListing{
		SupplierID:     supplier.ID,
		Title:          "Leftover facing bricks",
		Quantity:       100,
		Unit:           model.UnitPallet,
		UnitPriceCents: 9000,
		ExpiresAt:      time.Now().Add(48 * time.Hour),
		Status:         model.SurplusStatusActive,
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("创建尾货单失败: %v", err)
	}

	cart, err := svc.AddItem(ctx, user.ID, &dto.AddCartItemRequest{
		SurplusListingID: &listing.ID,
		Quantity:         2,
	})
	if err != nil {
		t.Fatalf("尾货加购失败: %v", err)
	}
	if cart.Items[0].SurplusListingID == nil || *cart.Items[0].SurplusListingID != listing.ID {
		t.Fatalf("条目未关联尾货单: %+v", cart.Items[0])
	}
	if cart.Items[0].UnitPriceCents != 9000 {
		t.Errorf("尾货单价 = %d, want 9000", cart.Items[0].UnitPriceCents)
	}

	// 数量超过尾货余量
	_, err = svc.AddItem(ctx, user.ID, &dto.AddCartItemRequest{
		SurplusListingID: &listing.ID,
		Quantity:         99,
	})
	if !errors.Is(err, ErrSurplusUnavailable) {
		t.Fatalf("超余量应拒绝, got %v", err)
	}
}

// ==================== 清空 ====================

func TestCartService_Clear(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestCartService(db)
	user, _ := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1500, 8)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, user.ID, &dto.AddCartItemRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("加购失败: %v", err)
	}

	cart, err := svc.Clear(ctx, user.ID)
	if err != nil {
		t.Fatalf("清空失败: %v", err)
	}
	if len(cart.Items) != 0 || cart.SubtotalCents != 0 {
		t.Errorf("清空后仍有条目: %+v", cart)
	}
}
