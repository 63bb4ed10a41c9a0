package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/ws"
)

// ==================== DeliveryService 配送服务 ====================

// DeliveryService 配送单排期与状态推进
// 送达会级联推进订单状态：全部配送单送达则订单转 delivered，
// 部分送达则转 partially_delivered
type DeliveryService struct {
	uow          *repository.UnitOfWork
	deliveryRepo repository.DeliveryRepository
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	supplierRepo repository.SupplierRepository
	notifRepo    repository.NotificationRepository
	events       EventPublisher
}

// NewDeliveryService 创建配送服务
func NewDeliveryService(
	uow *repository.UnitOfWork,
	deliveryRepo repository.DeliveryRepository,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	supplierRepo repository.SupplierRepository,
	notifRepo repository.NotificationRepository,
	events EventPublisher,
) *DeliveryService {
	return &DeliveryService{
		uow:          uow,
		deliveryRepo: deliveryRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		notifRepo:    notifRepo,
		events:       events,
	}
}

// ==================== 查询 ====================

// ListDeliveries 按角色返回配送单：客户看自己订单的，供应商看自己承运的
func (s *DeliveryService) ListDeliveries(ctx context.Context, userID int64, role string, req *dto.DeliveryListRequest) ([]*dto.DeliveryInfo, int64, error) {
	filter := repository.DeliveryFilter{
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	var deliveries []model.Delivery
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
		deliveries, total, err = s.deliveryRepo.ListByCustomer(ctx, customer.ID, filter)

	case model.RoleSupplier:
		supplier, serr := s.supplierRepo.GetByUserID(ctx, userID)
		if serr != nil {
			return nil, 0, serr
		}
		if supplier == nil {
			return nil, 0, ErrSupplierNotFound
		}
		deliveries, total, err = s.deliveryRepo.ListBySupplier(ctx, supplier.ID, filter)

	default:
		return nil, 0, apperr.Forbidden("unknown role")
	}
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.DeliveryInfo, 0, len(deliveries))
	for i := range deliveries {
		infos = append(infos, toDeliveryInfo(&deliveries[i]))
	}
	return infos, total, nil
}

// GetDelivery 配送单详情，仅订单参与方与管理员可见
func (s *DeliveryService) GetDelivery(ctx context.Context, userID int64, role string, deliveryID int64) (*dto.DeliveryInfo, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, ErrDeliveryNotFound
	}
	if err := s.authorizeDeliveryAccess(ctx, userID, role, delivery); err != nil {
		return nil, err
	}
	return toDeliveryInfo(delivery), nil
}

func (s *DeliveryService) authorizeDeliveryAccess(ctx context.Context, userID int64, role string, delivery *model.Delivery) error {
	switch role {
	case model.RoleAdmin:
		return nil

	case model.RoleSupplier:
		supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if supplier == nil || supplier.ID != delivery.SupplierID {
			return ErrDeliveryAccessDenied
		}
		return nil

	case model.RoleCustomer:
		customer, err := s.customerRepo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrDeliveryAccessDenied
		}
		order, err := s.orderRepo.GetByID(ctx, delivery.OrderID)
		if err != nil {
			return err
		}
		if order == nil || order.CustomerID != customer.ID {
			return ErrDeliveryAccessDenied
		}
		return nil
	}
	return ErrDeliveryAccessDenied
}

// ==================== 时间窗排期 ====================

// UpdateWindow 供应商排期或改期配送时间窗
// 要求开始时间在未来、结束晚于开始；改期会重置提醒标记
func (s *DeliveryService) UpdateWindow(ctx context.Context, userID int64, deliveryID int64, req *dto.UpdateDeliveryWindowRequest) (*dto.DeliveryInfo, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, ErrSupplierNotFound
	}

	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, ErrDeliveryNotFound
	}
	if delivery.SupplierID != supplier.ID {
		return nil, ErrDeliveryAccessDenied
	}
	if delivery.IsDone() {
		return nil, ErrDeliveryFinished
	}

	now := time.Now()
	if !req.WindowStart.After(now) {
		return nil, apperr.Validation("window start must be in the future")
	}
	if !req.WindowEnd.After(req.WindowStart) {
		return nil, apperr.Validation("window end must be after window start")
	}

	delivery.WindowStart = &req.WindowStart
	delivery.WindowEnd = &req.WindowEnd
	delivery.ReminderSentAt = nil
	if req.DriverName != "" {
		delivery.DriverName = req.DriverName
	}
	if req.DriverPhone != "" {
		delivery.DriverPhone = req.DriverPhone
	}
	if req.VehicleReg != "" {
		delivery.VehicleReg = req.VehicleReg
	}
	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, err
	}

	if err := s.notifyCustomer(ctx, delivery,
		"Delivery scheduled",
		fmt.Sprintf("Delivery for order #%d is scheduled for %s",
			delivery.OrderID, req.WindowStart.Format("Jan 2 15:04"))); err != nil {
		return nil, err
	}

	s.publishDeliveryEvent(delivery)
	return toDeliveryInfo(delivery), nil
}

// ==================== 状态推进 ====================

// AdvanceStatus 供应商推进配送状态，送达时级联更新订单状态
func (s *DeliveryService) AdvanceStatus(ctx context.Context, userID int64, role string, deliveryID int64, req *dto.UpdateDeliveryStatusRequest) (*dto.DeliveryInfo, error) {
	var updated *model.Delivery
	var publishQueue []func()

	err := s.uow.Transaction(ctx, func(u *repository.UnitOfWork) error {
		delivery, err := u.Deliveries.GetByID(ctx, deliveryID)
		if err != nil {
			return err
		}
		if delivery == nil {
			return ErrDeliveryNotFound
		}
		if err := s.authorizeDeliveryAccess(ctx, userID, role, delivery); err != nil {
			return err
		}
		if !delivery.CanTransitionTo(req.Status) {
			return ErrInvalidTransition
		}
		if req.Status == model.DeliveryStatusFailed && req.FailureReason == "" {
			return apperr.Validation("failure reason is required")
		}

		delivery.Status = req.Status
		switch req.Status {
		case model.DeliveryStatusDelivered:
			now := time.Now()
			delivery.DeliveredAt = &now
			delivery.ProofURL = req.ProofURL
		case model.DeliveryStatusFailed:
			delivery.FailureReason = req.FailureReason
		case model.DeliveryStatusScheduled:
			// 失败后重新排期，清掉上一轮失败原因
			delivery.FailureReason = ""
		}
		if err := u.Deliveries.Update(ctx, delivery); err != nil {
			return err
		}

		if req.Status == model.DeliveryStatusDelivered {
			if err := s.cascadeOrderStatus(ctx, u, delivery, &publishQueue); err != nil {
				return err
			}
		}

		order, err := u.Orders.GetByID(ctx, delivery.OrderID)
		if err != nil {
			return err
		}
		if order != nil {
			customer, err := u.Customers.GetByID(ctx, order.CustomerID)
			if err != nil {
				return err
			}
			if customer != nil {
				if err := u.Notifications.Create(ctx, &model.Notification{
					UserID: customer.UserID,
					Type:   model.NotifyDeliveryUpdate,
					Title:  "Delivery " + req.Status,
					Body:   fmt.Sprintf("Delivery for order %s is now %s", order.OrderNo, req.Status),
					Data:   datatypes.JSONMap{"delivery_id": delivery.ID, "order_id": order.ID},
				}); err != nil {
					return err
				}
			}
		}

		updated = delivery
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDeliveryEvent(updated)
	for _, publish := range publishQueue {
		publish()
	}
	return toDeliveryInfo(updated), nil
}

// cascadeOrderStatus 送达后推进订单：全部送达转 delivered，否则转 partially_delivered
func (s *DeliveryService) cascadeOrderStatus(ctx context.Context, u *repository.UnitOfWork, delivery *model.Delivery, publishQueue *[]func()) error {
	order, err := u.Orders.GetByIDForUpdate(ctx, delivery.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	allDone, err := u.Deliveries.AllDelivered(ctx, order.ID)
	if err != nil {
		return err
	}

	target := model.OrderStatusPartiallyDelivered
	if allDone {
		target = model.OrderStatusDelivered
	}
	if target == order.Status || !order.CanTransitionTo(target) {
		return nil
	}

	if err := u.Orders.UpdateStatus(ctx, order.ID, target); err != nil {
		return err
	}
	if err := u.Orders.AppendTimeline(ctx, &model.OrderTimeline{
		OrderID: order.ID,
		Status:  target,
		Note:    "delivery completed",
	}); err != nil {
		return err
	}

	event := &dto.OrderStatusEvent{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		Status:  target,
	}
	orderID := order.ID
	*publishQueue = append(*publishQueue, func() {
		s.events.Publish(ws.RoomOrder(orderID), ws.EventOrderStatusChanged, event)
	})

	customer, err := u.Customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return err
	}
	if customer != nil {
		customerUserID := customer.UserID
		*publishQueue = append(*publishQueue, func() {
			s.events.Publish(ws.RoomUser(customerUserID), ws.EventOrderStatusChanged, event)
		})
	}
	return nil
}

// ==================== 辅助 ====================

func (s *DeliveryService) notifyCustomer(ctx context.Context, delivery *model.Delivery, title, body string) error {
	order, err := s.orderRepo.GetByID(ctx, delivery.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	customer, err := s.customerRepo.GetByID(ctx, order.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return nil
	}
	return pushNotification(ctx, s.notifRepo, s.events, customer.UserID,
		model.NotifyDeliveryUpdate, title, body,
		datatypes.JSONMap{"delivery_id": delivery.ID, "order_id": order.ID})
}

func (s *DeliveryService) publishDeliveryEvent(delivery *model.Delivery) {
	s.events.Publish(ws.RoomDelivery(delivery.ID), ws.EventDeliveryUpdate, &dto.DeliveryEvent{
		DeliveryID:  delivery.ID,
		OrderID:     delivery.OrderID,
		Status:      delivery.Status,
		WindowStart: delivery.WindowStart,
		WindowEnd:   delivery.WindowEnd,
	})
}

// ==================== 错误定义 ====================

var (
	ErrDeliveryNotFound     = apperr.NotFound("delivery not found")
	ErrDeliveryAccessDenied = apperr.Forbidden("not a participant of this delivery")
	ErrDeliveryFinished     = apperr.Conflict("delivery already completed")
)
