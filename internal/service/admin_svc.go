package service

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/ws"
	"buildmart_dev_v1_202608/pkg/cache"
)

// ==================== AdminService 平台管理服务 ====================

// AdminService 供应商审核、账号管理与平台报表
type AdminService struct {
	uow          *repository.UnitOfWork
	userRepo     repository.UserRepository
	supplierRepo repository.SupplierRepository
	orderRepo    repository.OrderRepository
	issueRepo    repository.IssueRepository
	tokens       cache.TokenStore
	events       EventPublisher
}

// NewAdminService 创建管理服务
func NewAdminService(
	uow *repository.UnitOfWork,
	userRepo repository.UserRepository,
	supplierRepo repository.SupplierRepository,
	orderRepo repository.OrderRepository,
	issueRepo repository.IssueRepository,
	tokens cache.TokenStore,
	events EventPublisher,
) *AdminService {
	return &AdminService{
		uow:          uow,
		userRepo:     userRepo,
		supplierRepo: supplierRepo,
		orderRepo:    orderRepo,
		issueRepo:    issueRepo,
		tokens:       tokens,
		events:       events,
	}
}

// ==================== 供应商审核 ====================

// ListPendingSuppliers 待审核队列，按申请时间先后排
func (s *AdminService) ListPendingSuppliers(ctx context.Context, page, pageSize int) ([]*dto.PendingSupplierInfo, int64, error) {
	suppliers, total, err := s.supplierRepo.List(ctx, repository.SupplierFilter{
		Status:   model.SupplierStatusPending,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.PendingSupplierInfo, 0, len(suppliers))
	for i := range suppliers {
		supplier := &suppliers[i]
		info := &dto.PendingSupplierInfo{
			ID:            supplier.ID,
			UserID:        supplier.UserID,
			BusinessName:  supplier.BusinessName,
			LicenseNumber: supplier.LicenseNumber,
			TaxNumber:     supplier.TaxNumber,
			Description:   supplier.Description,
			AppliedAt:     supplier.CreatedAt,
		}
		if user, err := s.userRepo.GetByID(ctx, supplier.UserID); err == nil && user != nil {
			info.Email = user.Email
		}
		infos = append(infos, info)
	}
	return infos, total, nil
}

// ApproveSupplier 审核通过
// 供应商状态、审核人记录、账号激活与站内通知在同一事务内完成
func (s *AdminService) ApproveSupplier(ctx context.Context, adminUserID, supplierID int64) (*dto.SupplierInfo, error) {
	var approved *model.Supplier

	err := s.uow.Transaction(ctx, func(u *repository.UnitOfWork) error {
		supplier, err := u.Suppliers.GetByIDForUpdate(ctx, supplierID)
		if err != nil {
			return err
		}
		if supplier == nil {
			return ErrSupplierNotFound
		}
		if !supplier.CanReview() {
			return ErrSupplierNotPending
		}

		now := time.Now()
		supplier.Status = model.SupplierStatusApproved
		supplier.ReviewedBy = adminUserID
		supplier.ReviewedAt = &now
		supplier.RejectReason = ""
		if err := u.Suppliers.Update(ctx, supplier); err != nil {
			return err
		}

		// 注册时被挂起的账号随审核一并激活
		user, err := u.Users.GetByID(ctx, supplier.UserID)
		if err != nil {
			return err
		}
		if user != nil && user.IsSuspended() {
			if err := u.Users.UpdateStatus(ctx, user.ID, model.UserStatusActive); err != nil {
				return err
			}
		}

		if err := u.Notifications.Create(ctx, &model.Notification{
			UserID: supplier.UserID,
			Type:   model.NotifySupplierReviewed,
			Title:  "Application approved",
			Body:   "Your supplier application has been approved. You can now list products.",
			Data:   datatypes.JSONMap{"supplier_id": supplier.ID},
		}); err != nil {
			return err
		}

		approved = supplier
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ws.RoomUser(approved.UserID), ws.EventSupplierApproved, &dto.SupplierReviewEvent{
		SupplierID: approved.ID,
		Status:     model.SupplierStatusApproved,
	})
	return toSupplierInfo(approved), nil
}

// RejectSupplier 驳回入驻申请，原因会回显给申请人
func (s *AdminService) RejectSupplier(ctx context.Context, adminUserID, supplierID int64, req *dto.RejectSupplierRequest) (*dto.SupplierInfo, error) {
	var rejected *model.Supplier

	err := s.uow.Transaction(ctx, func(u *repository.UnitOfWork) error {
		supplier, err := u.Suppliers.GetByIDForUpdate(ctx, supplierID)
		if err != nil {
			return err
		}
		if supplier == nil {
			return ErrSupplierNotFound
		}
		if !supplier.CanReview() {
			return ErrSupplierNotPending
		}

		now := time.Now()
		supplier.Status = model.SupplierStatusRejected
		supplier.ReviewedBy = adminUserID
		supplier.ReviewedAt = &now
		supplier.RejectReason = req.Reason
		if err := u.Suppliers.Update(ctx, supplier); err != nil {
			return err
		}

		if err := u.Notifications.Create(ctx, &model.Notification{
			UserID: supplier.UserID,
			Type:   model.NotifySupplierReviewed,
			Title:  "Application rejected",
			Body:   "Your supplier application was rejected: " + req.Reason,
			Data:   datatypes.JSONMap{"supplier_id": supplier.ID},
		}); err != nil {
			return err
		}

		rejected = supplier
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ws.RoomUser(rejected.UserID), ws.EventSupplierApproved, &dto.SupplierReviewEvent{
		SupplierID: rejected.ID,
		Status:     model.SupplierStatusRejected,
		Reason:     req.Reason,
	})
	return toSupplierInfo(rejected), nil
}

// ==================== 账号管理 ====================

// ListUsers 账号列表
func (s *AdminService) ListUsers(ctx context.Context, req *dto.UserListRequest) ([]*dto.UserInfo, int64, error) {
	users, total, err := s.userRepo.List(ctx, repository.UserFilter{
		Keyword:  req.Keyword,
		Role:     req.Role,
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, toUserInfo(&users[i]))
	}
	return infos, total, nil
}

// UpdateUserStatus 停用或恢复账号
// 停用把整账号键写入吊销名单，存量令牌立即失效；恢复则移出名单
func (s *AdminService) UpdateUserStatus(ctx context.Context, adminUserID, userID int64, req *dto.UpdateUserStatusRequest) (*dto.UserInfo, error) {
	if adminUserID == userID {
		return nil, ErrSelfStatusChange
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Status == req.Status {
		return toUserInfo(user), nil
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, req.Status); err != nil {
		return nil, err
	}
	user.Status = req.Status

	switch req.Status {
	case model.UserStatusSuspended:
		ttl := middleware.GetJWTConfig().RefreshTokenTTL
		if err := s.tokens.Revoke(ctx, cache.UserKey(userID), ttl); err != nil {
			return nil, err
		}
	case model.UserStatusActive:
		if err := s.tokens.Unrevoke(ctx, cache.UserKey(userID)); err != nil {
			return nil, err
		}
	}

	return toUserInfo(user), nil
}

// ==================== 平台报表 ====================

// statsWindow 报表统计窗口
const statsWindow = 30 * 24 * time.Hour

// PlatformStats 平台运营总览，订单与流水统计近 30 天
func (s *AdminService) PlatformStats(ctx context.Context) (*dto.PlatformStats, error) {
	stats := &dto.PlatformStats{}

	var err error
	if stats.CustomerCount, err = s.userRepo.CountByRole(ctx, model.RoleCustomer); err != nil {
		return nil, err
	}
	if stats.SupplierCount, err = s.userRepo.CountByRole(ctx, model.RoleSupplier); err != nil {
		return nil, err
	}
	if stats.PendingSuppliers, err = s.supplierRepo.CountByStatus(ctx, model.SupplierStatusPending); err != nil {
		return nil, err
	}
	if stats.OpenIssues, err = s.issueRepo.CountOpen(ctx); err != nil {
		return nil, err
	}

	since := time.Now().Add(-statsWindow)
	if stats.OrderCount, err = s.orderRepo.CountSince(ctx, since); err != nil {
		return nil, err
	}
	if stats.RevenueCents, err = s.orderRepo.SumRevenueSince(ctx, since); err != nil {
		return nil, err
	}
	return stats, nil
}

// ==================== 错误定义 ====================

var (
	ErrSupplierNotPending = apperr.Conflict("supplier is not awaiting review")
	ErrSelfStatusChange   = apperr.Validation("cannot change your own account status")
)
