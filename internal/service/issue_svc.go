package service

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
)

// ==================== IssueService 售后纠纷服务 ====================

// IssueService 售后纠纷提交与裁定
type IssueService struct {
	issueRepo    repository.IssueRepository
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	supplierRepo repository.SupplierRepository
	userRepo     repository.UserRepository
	notifRepo    repository.NotificationRepository
	events       EventPublisher
}

// NewIssueService 创建纠纷服务
func NewIssueService(
	issueRepo repository.IssueRepository,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	supplierRepo repository.SupplierRepository,
	userRepo repository.UserRepository,
	notifRepo repository.NotificationRepository,
	events EventPublisher,
) *IssueService {
	return &IssueService{
		issueRepo:    issueRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		userRepo:     userRepo,
		notifRepo:    notifRepo,
		events:       events,
	}
}

// ==================== 提交纠纷 ====================

// CreateIssue 客户对自己的订单提交售后纠纷，并通知供应商与管理员
func (s *IssueService) CreateIssue(ctx context.Context, userID int64, req *dto.CreateIssueRequest) (*dto.IssueInfo, error) {
	customer, err := s.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	order, err := s.orderRepo.GetWithDetails(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.CustomerID != customer.ID {
		return nil, ErrOrderNotFound
	}

	supplierID, err := resolveIssueSupplier(order, req.SupplierID)
	if err != nil {
		return nil, err
	}

	issue := &model.Issue{
		OrderID:     order.ID,
		CustomerID:  customer.ID,
		SupplierID:  supplierID,
		Type:        req.Type,
		Description: req.Description,
		Photos:      pq.StringArray(req.Photos),
		Status:      model.IssueStatusOpen,
	}
	if err := s.issueRepo.Create(ctx, issue); err != nil {
		return nil, err
	}

	s.notifyIssueParties(ctx, issue, order.OrderNo)
	return toIssueInfo(issue), nil
}

// resolveIssueSupplier 确定纠纷指向的供应商
// 单供应商订单可省略，多供应商订单必须指明且需在订单内
func resolveIssueSupplier(order *model.Order, requested int64) (int64, error) {
	supplierIDs := order.SupplierIDs()
	if requested == 0 {
		if len(supplierIDs) == 1 {
			return supplierIDs[0], nil
		}
		return 0, apperr.Validation("supplier_id is required for multi-supplier orders")
	}
	for _, id := range supplierIDs {
		if id == requested {
			return requested, nil
		}
	}
	return 0, apperr.Validation("supplier is not part of this order")
}

// notifyIssueParties 通知涉事供应商与全部管理员
func (s *IssueService) notifyIssueParties(ctx context.Context, issue *model.Issue, orderNo string) {
	data := datatypes.JSONMap{"issue_id": issue.ID, "order_id": issue.OrderID}
	body := fmt.Sprintf("Issue reported on order %s: %s", orderNo, issue.Type)

	if supplier, err := s.supplierRepo.GetByID(ctx, issue.SupplierID); err == nil && supplier != nil {
		_ = pushNotification(ctx, s.notifRepo, s.events, supplier.UserID,
			model.NotifyIssueUpdate, "Issue reported", body, data)
	}

	// 管理员数量有限，不分页
	admins, _, err := s.userRepo.List(ctx, repository.UserFilter{
		Role:     model.RoleAdmin,
		Status:   model.UserStatusActive,
		PageSize: 100,
	})
	if err != nil {
		return
	}
	for i := range admins {
		_ = pushNotification(ctx, s.notifRepo, s.events, admins[i].ID,
			model.NotifyIssueUpdate, "Issue reported", body, data)
	}
}

// ==================== 查询 ====================

// GetIssue 纠纷详情，客户本人、涉事供应商与管理员可见
func (s *IssueService) GetIssue(ctx context.Context, userID int64, role string, issueID int64) (*dto.IssueInfo, error) {
	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, ErrIssueNotFound
	}

	switch role {
	case model.RoleAdmin:
	case model.RoleCustomer:
		customer, err := s.customerRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if customer == nil || customer.ID != issue.CustomerID {
			return nil, ErrIssueAccessDenied
		}
	case model.RoleSupplier:
		supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if supplier == nil || supplier.ID != issue.SupplierID {
			return nil, ErrIssueAccessDenied
		}
	default:
		return nil, ErrIssueAccessDenied
	}

	return toIssueInfo(issue), nil
}

// ListIssues 按角色返回纠纷列表：客户看自己提的，供应商看涉及自己的，管理员看全部
func (s *IssueService) ListIssues(ctx context.Context, userID int64, role string, req *dto.IssueListRequest) ([]*dto.IssueInfo, int64, error) {
	filter := repository.IssueFilter{
		Status:   req.Status,
		Type:     req.Type,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	switch role {
	case model.RoleCustomer:
		customer, err := s.customerRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, 0, err
		}
		if customer == nil {
			return nil, 0, ErrCustomerNotFound
		}
		filter.CustomerID = customer.ID
	case model.RoleSupplier:
		supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, 0, err
		}
		if supplier == nil {
			return nil, 0, ErrSupplierNotFound
		}
		filter.SupplierID = supplier.ID
	case model.RoleAdmin:
	default:
		return nil, 0, apperr.Forbidden("unknown role")
	}

	issues, total, err := s.issueRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.IssueInfo, 0, len(issues))
	for i := range issues {
		infos = append(infos, toIssueInfo(&issues[i]))
	}
	return infos, total, nil
}

// ==================== 裁定 ====================

// ResolveIssue 管理员推进/裁定纠纷
// investigating 仅改状态；resolved/closed 记录裁定结果并通知双方
func (s *IssueService) ResolveIssue(ctx context.Context, adminUserID, issueID int64, req *dto.ResolveIssueRequest) (*dto.IssueInfo, error) {
	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, ErrIssueNotFound
	}
	if !issue.CanResolve() {
		return nil, ErrIssueFinished
	}

	switch req.Status {
	case model.IssueStatusInvestigating:
		if err := s.issueRepo.UpdateStatus(ctx, issue.ID, req.Status); err != nil {
			return nil, err
		}
		issue.Status = req.Status

	case model.IssueStatusResolved, model.IssueStatusClosed:
		if req.Resolution == "" {
			return nil, apperr.Validation("resolution is required to close an issue")
		}
		if err := s.issueRepo.Resolve(ctx, issue.ID, req.Resolution, adminUserID); err != nil {
			return nil, err
		}
		if req.Status == model.IssueStatusClosed {
			if err := s.issueRepo.UpdateStatus(ctx, issue.ID, req.Status); err != nil {
				return nil, err
			}
		}
		reloaded, err := s.issueRepo.GetByID(ctx, issue.ID)
		if err != nil {
			return nil, err
		}
		if reloaded != nil {
			issue = reloaded
		}
		s.notifyResolution(ctx, issue)
	}

	return toIssueInfo(issue), nil
}

func (s *IssueService) notifyResolution(ctx context.Context, issue *model.Issue) {
	data := datatypes.JSONMap{"issue_id": issue.ID, "order_id": issue.OrderID}
	body := "Issue #" + fmt.Sprint(issue.ID) + " " + issue.Status + ": " + issue.Resolution

	if customer, err := s.customerRepo.GetByID(ctx, issue.CustomerID); err == nil && customer != nil {
		_ = pushNotification(ctx, s.notifRepo, s.events, customer.UserID,
			model.NotifyIssueUpdate, "Issue "+issue.Status, body, data)
	}
	if supplier, err := s.supplierRepo.GetByID(ctx, issue.SupplierID); err == nil && supplier != nil {
		_ = pushNotification(ctx, s.notifRepo, s.events, supplier.UserID,
			model.NotifyIssueUpdate, "Issue "+issue.Status, body, data)
	}
}

// ==================== 错误定义 ====================

var (
	ErrIssueNotFound     = apperr.NotFound("issue not found")
	ErrIssueAccessDenied = apperr.Forbidden("not a participant of this issue")
	ErrIssueFinished     = apperr.Conflict("issue already resolved or closed")
)
