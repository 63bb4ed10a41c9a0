package service

import (
	"context"

	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/ws"
)

// ==================== RoomAuthService 房间准入 ====================

// RoomAuthService 实现 ws.RoomAuthorizer
// 商品房间公开，用户房间只进自己的，其余房间校验参与方
type RoomAuthService struct {
	orderRepo    repository.OrderRepository
	deliveryRepo repository.DeliveryRepository
	convRepo     repository.ConversationRepository
	customerRepo repository.CustomerRepository
	supplierRepo repository.SupplierRepository
}

// NewRoomAuthService 创建房间准入服务
func NewRoomAuthService(
	orderRepo repository.OrderRepository,
	deliveryRepo repository.DeliveryRepository,
	convRepo repository.ConversationRepository,
	customerRepo repository.CustomerRepository,
	supplierRepo repository.SupplierRepository,
) *RoomAuthService {
	return &RoomAuthService{
		orderRepo:    orderRepo,
		deliveryRepo: deliveryRepo,
		convRepo:     convRepo,
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
	}
}

// CanJoin 判定用户能否加入房间
func (s *RoomAuthService) CanJoin(ctx context.Context, userID int64, role, room string) (bool, error) {
	prefix, id, ok := ws.ParseRoom(room)
	if !ok {
		return false, nil
	}

	switch prefix {
	case ws.RoomPrefixProduct:
		// 库存播报公开给所有已登录连接
		return true, nil
	case ws.RoomPrefixUser:
		return id == userID, nil
	case ws.RoomPrefixOrder:
		return s.canJoinOrder(ctx, userID, role, id)
	case ws.RoomPrefixDelivery:
		return s.canJoinDelivery(ctx, userID, role, id)
	case ws.RoomPrefixConversation:
		return s.canJoinConversation(ctx, userID, id)
	}
	return false, nil
}

func (s *RoomAuthService) canJoinOrder(ctx context.Context, userID int64, role string, orderID int64) (bool, error) {
	if role == model.RoleAdmin {
		return true, nil
	}

	order, err := s.orderRepo.GetWithDetails(ctx, orderID)
	if err != nil {
		return false, err
	}
	if order == nil {
		return false, nil
	}

	switch role {
	case model.RoleCustomer:
		customer, err := s.customerRepo.GetByUserID(ctx, userID)
		if err != nil || customer == nil {
			return false, err
		}
		return order.CustomerID == customer.ID, nil
	case model.RoleSupplier:
		supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
		if err != nil || supplier == nil {
			return false, err
		}
		for _, id := range order.SupplierIDs() {
			if id == supplier.ID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *RoomAuthService) canJoinDelivery(ctx context.Context, userID int64, role string, deliveryID int64) (bool, error) {
	if role == model.RoleAdmin {
		return true, nil
	}

	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return false, err
	}
	if delivery == nil {
		return false, nil
	}

	switch role {
	case model.RoleSupplier:
		supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
		if err != nil || supplier == nil {
			return false, err
		}
		return delivery.SupplierID == supplier.ID, nil
	case model.RoleCustomer:
		customer, err := s.customerRepo.GetByUserID(ctx, userID)
		if err != nil || customer == nil {
			return false, err
		}
		order, err := s.orderRepo.GetByID(ctx, delivery.OrderID)
		if err != nil || order == nil {
			return false, err
		}
		return order.CustomerID == customer.ID, nil
	}
	return false, nil
}

func (s *RoomAuthService) canJoinConversation(ctx context.Context, userID int64, conversationID int64) (bool, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return false, err
	}
	if conv == nil {
		return false, nil
	}

	if customer, err := s.customerRepo.GetByUserID(ctx, userID); err == nil && customer != nil {
		if conv.CustomerID == customer.ID {
			return true, nil
		}
	}
	if supplier, err := s.supplierRepo.GetByUserID(ctx, userID); err == nil && supplier != nil {
		if conv.SupplierID == supplier.ID {
			return true, nil
		}
	}
	return false, nil
}
