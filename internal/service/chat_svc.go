package service

import (
	"context"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/ws"
)

// ==================== ChatService 私信服务 ====================

// ChatService 客户与供应商的会话私信
type ChatService struct {
	convRepo     repository.ConversationRepository
	messageRepo  repository.ChatMessageRepository
	customerRepo repository.CustomerRepository
	supplierRepo repository.SupplierRepository
	orderRepo    repository.OrderRepository
	notifRepo    repository.NotificationRepository
	events       EventPublisher
}

// NewChatService 创建私信服务
func NewChatService(
	convRepo repository.ConversationRepository,
	messageRepo repository.ChatMessageRepository,
	customerRepo repository.CustomerRepository,
	supplierRepo repository.SupplierRepository,
	orderRepo repository.OrderRepository,
	notifRepo repository.NotificationRepository,
	events EventPublisher,
) *ChatService {
	return &ChatService{
		convRepo:     convRepo,
		messageRepo:  messageRepo,
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		orderRepo:    orderRepo,
		notifRepo:    notifRepo,
		events:       events,
	}
}

// chatParty 解析后的会话参与方
type chatParty struct {
	customerID int64 // 客户档案 ID，0 表示非客户
	supplierID int64 // 供应商档案 ID，0 表示非供应商
	userID     int64
}

// resolveParty 把登录用户解析成会话参与方档案
func (s *ChatService) resolveParty(ctx context.Context, userID int64, role string) (*chatParty, error) {
	party := &chatParty{userID: userID}
	switch role {
	case model.RoleCustomer:
		customer, err := s.customerRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, ErrCustomerNotFound
		}
		party.customerID = customer.ID
	case model.RoleSupplier:
		supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if supplier == nil {
			return nil, ErrSupplierNotFound
		}
		party.supplierID = supplier.ID
	default:
		return nil, apperr.Forbidden("chat is for customers and suppliers")
	}
	return party, nil
}

// ==================== 会话 ====================

// OpenConversation 客户发起（或复用）与供应商的会话
func (s *ChatService) OpenConversation(ctx context.Context, userID int64, req *dto.OpenConversationRequest) (*dto.ConversationInfo, error) {
	customer, err := s.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	supplier, err := s.supplierRepo.GetByID(ctx, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil || !supplier.IsApproved() {
		return nil, ErrSupplierNotFound
	}

	// 订单上下文必须是自己的订单
	if req.OrderID != nil {
		order, err := s.orderRepo.GetByID(ctx, *req.OrderID)
		if err != nil {
			return nil, err
		}
		if order == nil || order.CustomerID != customer.ID {
			return nil, ErrOrderNotFound
		}
	}

	conv, err := s.convRepo.GetOrCreate(ctx, customer.ID, supplier.ID, req.OrderID)
	if err != nil {
		return nil, err
	}

	info := s.toConversationInfo(ctx, conv, userID)
	info.CounterpartName = supplier.BusinessName
	return info, nil
}

// ListConversations 当前用户的会话列表，带未读数
func (s *ChatService) ListConversations(ctx context.Context, userID int64, role string, page, pageSize int) ([]*dto.ConversationInfo, int64, error) {
	party, err := s.resolveParty(ctx, userID, role)
	if err != nil {
		return nil, 0, err
	}

	var convs []model.Conversation
	var total int64
	if party.customerID != 0 {
		convs, total, err = s.convRepo.ListByCustomer(ctx, party.customerID, page, pageSize)
	} else {
		convs, total, err = s.convRepo.ListBySupplier(ctx, party.supplierID, page, pageSize)
	}
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.ConversationInfo, 0, len(convs))
	for i := range convs {
		info := s.toConversationInfo(ctx, &convs[i], userID)
		info.CounterpartName = s.counterpartName(ctx, &convs[i], party)
		infos = append(infos, info)
	}
	return infos, total, nil
}

// counterpartName 对端显示名，查不到时留空
func (s *ChatService) counterpartName(ctx context.Context, conv *model.Conversation, party *chatParty) string {
	if party.customerID != 0 {
		supplier, err := s.supplierRepo.GetByID(ctx, conv.SupplierID)
		if err != nil || supplier == nil {
			return ""
		}
		return supplier.BusinessName
	}
	customer, err := s.customerRepo.GetByID(ctx, conv.CustomerID)
	if err != nil || customer == nil {
		return ""
	}
	return customer.Name
}

// getParticipantConversation 读会话并校验当前用户是参与方
func (s *ChatService) getParticipantConversation(ctx context.Context, userID int64, role string, conversationID int64) (*model.Conversation, *chatParty, error) {
	party, err := s.resolveParty(ctx, userID, role)
	if err != nil {
		return nil, nil, err
	}

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil {
		return nil, nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(party.customerID, party.supplierID) {
		return nil, nil, ErrNotConversationMember
	}
	return conv, party, nil
}

// ==================== 消息 ====================

// ListMessages 会话消息历史，拉取即把对方消息置为已读
func (s *ChatService) ListMessages(ctx context.Context, userID int64, role string, conversationID int64, req *dto.MessageListRequest) ([]*dto.ChatMessageInfo, int64, error) {
	conv, _, err := s.getParticipantConversation(ctx, userID, role, conversationID)
	if err != nil {
		return nil, 0, err
	}

	messages, total, err := s.messageRepo.ListByConversation(ctx, conv.ID, req.Page, req.PageSize)
	if err != nil {
		return nil, 0, err
	}

	if err := s.messageRepo.MarkRead(ctx, conv.ID, userID); err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.ChatMessageInfo, 0, len(messages))
	for i := range messages {
		infos = append(infos, toChatMessageInfo(&messages[i]))
	}
	return infos, total, nil
}

// SendMessage 发送消息并实时推送给对端
func (s *ChatService) SendMessage(ctx context.Context, userID int64, role string, conversationID int64, req *dto.SendMessageRequest) (*dto.ChatMessageInfo, error) {
	conv, party, err := s.getParticipantConversation(ctx, userID, role, conversationID)
	if err != nil {
		return nil, err
	}

	message := &model.ChatMessage{
		ConversationID: conv.ID,
		SenderID:       userID,
		Body:           req.Body,
		Attachments:    pq.StringArray(req.Attachments),
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	if err := s.convRepo.TouchLastMessage(ctx, conv.ID); err != nil {
		return nil, err
	}

	info := toChatMessageInfo(message)
	s.events.Publish(ws.RoomConversation(conv.ID), ws.EventChatMessageReceived, info)

	// 对端用户房间也推一份，未进会话页也能收到
	counterpartUserID, err := s.counterpartUserID(ctx, conv, party)
	if err == nil && counterpartUserID != 0 {
		s.events.Publish(ws.RoomUser(counterpartUserID), ws.EventChatMessageReceived, info)
		_ = pushNotification(ctx, s.notifRepo, s.events, counterpartUserID,
			model.NotifyChatMessage,
			"New message",
			truncateBody(req.Body, 80),
			datatypes.JSONMap{"conversation_id": conv.ID, "message_id": message.ID})
	}

	return info, nil
}

func (s *ChatService) counterpartUserID(ctx context.Context, conv *model.Conversation, party *chatParty) (int64, error) {
	if party.customerID != 0 {
		supplier, err := s.supplierRepo.GetByID(ctx, conv.SupplierID)
		if err != nil || supplier == nil {
			return 0, err
		}
		return supplier.UserID, nil
	}
	customer, err := s.customerRepo.GetByID(ctx, conv.CustomerID)
	if err != nil || customer == nil {
		return 0, err
	}
	return customer.UserID, nil
}

func truncateBody(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + "..."
}

// ==================== 视图组装 ====================

func (s *ChatService) toConversationInfo(ctx context.Context, conv *model.Conversation, readerUserID int64) *dto.ConversationInfo {
	unread, err := s.messageRepo.CountUnread(ctx, conv.ID, readerUserID)
	if err != nil {
		unread = 0
	}
	return &dto.ConversationInfo{
		ID:            conv.ID,
		CustomerID:    conv.CustomerID,
		SupplierID:    conv.SupplierID,
		OrderID:       conv.OrderID,
		UnreadCount:   unread,
		LastMessageAt: conv.LastMessageAt,
		CreatedAt:     conv.CreatedAt,
	}
}

// ==================== 错误定义 ====================

var (
	ErrConversationNotFound  = apperr.NotFound("conversation not found")
	ErrNotConversationMember = apperr.Forbidden("not a participant of this conversation")
)
