package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
)

// ==================== SupportService 客服工单服务 ====================

// SupportService 平台客服工单，任意角色均可提交并跟进
type SupportService struct {
	ticketRepo  repository.SupportTicketRepository
	messageRepo repository.SupportMessageRepository
	notifRepo   repository.NotificationRepository
	events      EventPublisher
}

// NewSupportService 创建工单服务
func NewSupportService(
	ticketRepo repository.SupportTicketRepository,
	messageRepo repository.SupportMessageRepository,
	notifRepo repository.NotificationRepository,
	events EventPublisher,
) *SupportService {
	return &SupportService{
		ticketRepo:  ticketRepo,
		messageRepo: messageRepo,
		notifRepo:   notifRepo,
		events:      events,
	}
}

// ==================== 提交工单 ====================

// CreateTicket 提交工单，正文作为首条消息入串
func (s *SupportService) CreateTicket(ctx context.Context, userID int64, req *dto.CreateTicketRequest) (*dto.TicketDetail, error) {
	priority := req.Priority
	if priority == "" {
		priority = model.TicketPriorityNormal
	}

	ticket := &model.SupportTicket{
		TicketNumber: newTicketNo(),
		UserID:       userID,
		Subject:      req.Subject,
		Category:     req.Category,
		Priority:     priority,
		Status:       model.TicketStatusOpen,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	first := &model.SupportMessage{
		TicketID: ticket.ID,
		SenderID: userID,
		Body:     req.Body,
	}
	if err := s.messageRepo.Create(ctx, first); err != nil {
		return nil, err
	}

	return toTicketDetail(ticket, []model.SupportMessage{*first}), nil
}

// newTicketNo 工单号：TK + 日期 + 随机段
func newTicketNo() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "TK" + time.Now().Format("20060102") + suffix
}

// ==================== 工单查询 ====================

// ListTickets 工单列表，管理员可见全部，其余角色仅见自己提交的
func (s *SupportService) ListTickets(ctx context.Context, userID int64, role string, req *dto.TicketListRequest) ([]*dto.TicketInfo, int64, error) {
	filter := repository.TicketFilter{
		Status:   req.Status,
		Priority: req.Priority,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if role != model.RoleAdmin {
		filter.UserID = userID
	}

	tickets, total, err := s.ticketRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.TicketInfo, 0, len(tickets))
	for i := range tickets {
		infos = append(infos, toTicketInfo(&tickets[i]))
	}
	return infos, total, nil
}

// GetTicket 工单详情，含完整消息串
func (s *SupportService) GetTicket(ctx context.Context, userID int64, role string, ticketID int64) (*dto.TicketDetail, error) {
	ticket, err := s.ticketRepo.GetWithMessages(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if err := authorizeTicketAccess(ticket, userID, role); err != nil {
		return nil, err
	}
	return toTicketDetail(ticket, ticket.Messages), nil
}

// authorizeTicketAccess 提交人或管理员可见
func authorizeTicketAccess(ticket *model.SupportTicket, userID int64, role string) error {
	if role == model.RoleAdmin {
		return nil
	}
	if ticket.UserID != userID {
		return ErrTicketAccessDenied
	}
	return nil
}

// ==================== 工单回复 ====================

// AddMessage 追加回复。管理员回复计为客服回复并自动受理；
// 客服回复后工单转入等待用户补充，用户再回复时回到待受理。
func (s *SupportService) AddMessage(ctx context.Context, userID int64, role string, ticketID int64, req *dto.TicketMessageRequest) (*dto.TicketMessageInfo, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if err := authorizeTicketAccess(ticket, userID, role); err != nil {
		return nil, err
	}
	if !ticket.IsOpen() {
		return nil, ErrTicketFinished
	}

	isStaff := role == model.RoleAdmin
	message := &model.SupportMessage{
		TicketID: ticket.ID,
		SenderID: userID,
		Body:     req.Body,
		IsStaff:  isStaff,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	if isStaff {
		// 首位回复的客服自动受理
		if ticket.AssignedTo == nil {
			if err := s.ticketRepo.Assign(ctx, ticket.ID, userID); err != nil {
				return nil, err
			}
		}
		if ticket.Status == model.TicketStatusOpen {
			if err := s.ticketRepo.UpdateStatus(ctx, ticket.ID, model.TicketStatusPending); err != nil {
				return nil, err
			}
		}
		s.notifyTicketOwner(ctx, ticket, "Support replied",
			fmt.Sprintf("Ticket %s: %s", ticket.TicketNumber, truncateBody(req.Body, 80)))
	} else {
		if ticket.Status == model.TicketStatusPending {
			if err := s.ticketRepo.UpdateStatus(ctx, ticket.ID, model.TicketStatusOpen); err != nil {
				return nil, err
			}
		}
		// 未受理的工单由客服队列兜底，不单独通知
		if ticket.AssignedTo != nil {
			data := datatypes.JSONMap{"ticket_id": ticket.ID}
			_ = pushNotification(ctx, s.notifRepo, s.events, *ticket.AssignedTo,
				model.NotifyTicketUpdate, "Ticket updated",
				fmt.Sprintf("New reply on ticket %s: %s", ticket.TicketNumber, truncateBody(req.Body, 80)), data)
		}
	}

	return toTicketMessageInfo(message), nil
}

// ==================== 状态管理（管理员） ====================

// UpdateTicketStatus 管理员变更工单状态，关闭时落 closed_at，重开时清掉
func (s *SupportService) UpdateTicketStatus(ctx context.Context, adminUserID, ticketID int64, req *dto.UpdateTicketStatusRequest) (*dto.TicketInfo, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Status == req.Status {
		return toTicketInfo(ticket), nil
	}

	if ticket.AssignedTo == nil {
		if err := s.ticketRepo.Assign(ctx, ticket.ID, adminUserID); err != nil {
			return nil, err
		}
		ticket.AssignedTo = &adminUserID
	}

	if req.Status == model.TicketStatusClosed {
		if err := s.ticketRepo.Close(ctx, ticket.ID); err != nil {
			return nil, err
		}
		now := time.Now()
		ticket.Status = model.TicketStatusClosed
		ticket.ClosedAt = &now
	} else {
		ticket.Status = req.Status
		ticket.ClosedAt = nil
		if err := s.ticketRepo.Update(ctx, ticket); err != nil {
			return nil, err
		}
	}

	s.notifyTicketOwner(ctx, ticket, "Ticket "+ticket.Status,
		fmt.Sprintf("Ticket %s is now %s", ticket.TicketNumber, ticket.Status))
	return toTicketInfo(ticket), nil
}

// ==================== 内部辅助 ====================

func (s *SupportService) notifyTicketOwner(ctx context.Context, ticket *model.SupportTicket, title, body string) {
	data := datatypes.JSONMap{"ticket_id": ticket.ID}
	_ = pushNotification(ctx, s.notifRepo, s.events, ticket.UserID,
		model.NotifyTicketUpdate, title, body, data)
}

func toTicketDetail(ticket *model.SupportTicket, messages []model.SupportMessage) *dto.TicketDetail {
	detail := &dto.TicketDetail{TicketInfo: *toTicketInfo(ticket)}
	detail.Messages = make([]*dto.TicketMessageInfo, 0, len(messages))
	for i := range messages {
		detail.Messages = append(detail.Messages, toTicketMessageInfo(&messages[i]))
	}
	return detail
}

// ==================== 错误定义 ====================

var (
	ErrTicketNotFound     = apperr.NotFound("ticket not found")
	ErrTicketAccessDenied = apperr.Forbidden("no access to this ticket")
	ErrTicketFinished     = apperr.Conflict("ticket is resolved or closed")
)
