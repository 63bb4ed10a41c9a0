package service

import (
	"context"
	"errors"
	"testing"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/ws"
	"buildmart_dev_v1_202608/pkg/cache"
	"gorm.io/gorm"
)

func newTestAdminService(db *gorm.DB, tokens cache.TokenStore, events EventPublisher) *AdminService {
	if tokens == nil {
		tokens = cache.NewMemoryTokenStore()
	}
	if events == nil {
		events = NopPublisher()
	}
	return NewAdminService(
		repository.NewUnitOfWork(db),
		repository.NewUserRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewOrderRepository(db),
		repository.NewIssueRepository(db),
		tokens,
		events,
	)
}

// ==================== 供应商审核 ====================

func TestAdminService_ApproveSupplier(t *testing.T) {
	db := openSvcDB(t)
	events := &recordingPublisher{}
	svc := newTestAdminService(db, nil, events)

	admin := seedUser(t, db, "admin@example.com", model.RoleAdmin, model.UserStatusActive)
	vendorUser, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusPending)

	// 入驻中的账号处于挂起态，审核通过应一并激活
	if err := db.Model(&model.User{}).Where("id = ?", vendorUser.ID).
		Update("status", model.UserStatusSuspended).Error; err != nil {
		t.Fatalf("挂起账号失败: %v", err)
	}

	info, err := svc.ApproveSupplier(context.Background(), admin.ID, supplier.ID)
	if err != nil {
		t.Fatalf("审核失败: %v", err)
	}
	if info.Status != model.SupplierStatusApproved {
		t.Errorf("status = %s, want approved", info.Status)
	}

	var fresh model.Supplier
	db.First(&fresh, supplier.ID)
	if fresh.ReviewedBy != admin.ID || fresh.ReviewedAt == nil {
		t.Error("审核人与审核时间应已记录")
	}

	var freshUser model.User
	db.First(&freshUser, vendorUser.ID)
	if freshUser.Status != model.UserStatusActive {
		t.Errorf("user status = %s, want active", freshUser.Status)
	}

	// 站内通知 + 实时事件
	var notif model.Notification
	if err := db.Where("user_id = ? AND type = ?", vendorUser.ID, model.NotifySupplierReviewed).
		First(&notif).Error; err != nil {
		t.Errorf("申请人应收到审核通知: %v", err)
	}
	if n := events.countEvent(ws.EventSupplierApproved); n != 1 {
		t.Errorf("supplier_reviewed events = %d, want 1", n)
	}
}

func TestAdminService_ApproveSupplier_OnlyPending(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestAdminService(db, nil, nil)

	admin := seedUser(t, db, "admin@example.com", model.RoleAdmin, model.UserStatusActive)
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)

	_, err := svc.ApproveSupplier(context.Background(), admin.ID, supplier.ID)
	if !errors.Is(err, ErrSupplierNotPending) {
		t.Fatalf("非待审状态应拒绝, got %v", err)
	}
}

func TestAdminService_RejectSupplier(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestAdminService(db, nil, nil)

	admin := seedUser(t, db, "admin@example.com", model.RoleAdmin, model.UserStatusActive)
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusPending)

	info, err := svc.RejectSupplier(context.Background(), admin.ID, supplier.ID, &dto.RejectSupplierRequest{
		Reason: "license number could not be verified",
	})
	if err != nil {
		t.Fatalf("驳回失败: %v", err)
	}
	if info.Status != model.SupplierStatusRejected {
		t.Errorf("status = %s, want rejected", info.Status)
	}

	var fresh model.Supplier
	db.First(&fresh, supplier.ID)
	if fresh.RejectReason == "" {
		t.Error("驳回原因应已记录")
	}
}

// ==================== 账号管理 ====================

func TestAdminService_UpdateUserStatus_RevokesTokens(t *testing.T) {
	db := openSvcDB(t)
	tokens := cache.NewMemoryTokenStore()
	svc := newTestAdminService(db, tokens, nil)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com", model.RoleAdmin, model.UserStatusActive)
	target, _ := seedCustomer(t, db, "target@example.com")

	info, err := svc.UpdateUserStatus(ctx, admin.ID, target.ID, &dto.UpdateUserStatusRequest{
		Status: model.UserStatusSuspended,
	})
	if err != nil {
		t.Fatalf("停用失败: %v", err)
	}
	if info.Status != model.UserStatusSuspended {
		t.Errorf("status = %s, want suspended", info.Status)
	}

	// 整账号键入吊销名单，存量令牌立即失效
	revoked, err := tokens.IsRevoked(ctx, cache.UserKey(target.ID))
	if err != nil || !revoked {
		t.Errorf("停用后账号键应在吊销名单, revoked=%v err=%v", revoked, err)
	}

	// 恢复后移出名单
	if _, err := svc.UpdateUserStatus(ctx, admin.ID, target.ID, &dto.UpdateUserStatusRequest{
		Status: model.UserStatusActive,
	}); err != nil {
		t.Fatalf("恢复失败: %v", err)
	}
	revoked, _ = tokens.IsRevoked(ctx, cache.UserKey(target.ID))
	if revoked {
		t.Error("恢复后账号键应移出吊销名单")
	}
}

func TestAdminService_UpdateUserStatus_SelfGuard(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestAdminService(db, nil, nil)

	admin := seedUser(t, db, "admin@example.com", model.RoleAdmin, model.UserStatusActive)

	_, err := svc.UpdateUserStatus(context.Background(), admin.ID, admin.ID, &dto.UpdateUserStatusRequest{
		Status: model.UserStatusSuspended,
	})
	if !errors.Is(err, ErrSelfStatusChange) {
		t.Fatalf("管理员不能停用自己, got %v", err)
	}
}

// ==================== 平台报表 ====================

func TestAdminService_PlatformStats(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestAdminService(db, nil, nil)

	seedCustomer(t, db, "buyer1@example.com")
	seedCustomer(t, db, "buyer2@example.com")
	seedSupplier(t, db, "vendor@example.com", model.SupplierStatusPending)

	stats, err := svc.PlatformStats(context.Background())
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if stats.CustomerCount != 2 {
		t.Errorf("customer count = %d, want 2", stats.CustomerCount)
	}
	if stats.SupplierCount != 1 {
		t.Errorf("supplier count = %d, want 1", stats.SupplierCount)
	}
	if stats.PendingSuppliers != 1 {
		t.Errorf("pending suppliers = %d, want 1", stats.PendingSuppliers)
	}
}
