package service

import (
	"context"
	"time"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/ws"
)

// ==================== NotificationService 通知服务 ====================

// NotificationService 站内通知的查询与已读管理
type NotificationService struct {
	notifRepo repository.NotificationRepository
	events    EventPublisher
}

// NewNotificationService 创建通知服务
func NewNotificationService(notifRepo repository.NotificationRepository, events EventPublisher) *NotificationService {
	return &NotificationService{notifRepo: notifRepo, events: events}
}

// List 当前用户的通知列表
func (s *NotificationService) List(ctx context.Context, userID int64, req *dto.NotificationListRequest) ([]*dto.NotificationInfo, int64, error) {
	filter := repository.NotificationFilter{
		UnreadOnly: req.UnreadOnly,
		Type:       req.Type,
		Page:       req.Page,
		PageSize:   req.PageSize,
	}

	notifications, total, err := s.notifRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.NotificationInfo, 0, len(notifications))
	for i := range notifications {
		infos = append(infos, toNotificationInfo(&notifications[i]))
	}
	return infos, total, nil
}

// UnreadCount 未读通知数
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}

// MarkRead 标记单条已读，通知不属于该用户时视同不存在
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	rows, err := s.notifRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.notifRepo.MarkAllRead(ctx, userID)
}

// PurgeBefore 清理指定时间之前的通知，返回删除数
func (s *NotificationService) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	return s.notifRepo.DeleteBefore(ctx, before)
}

// Push 落库并实时推送，定时任务等服务层之外的调用方使用
func (s *NotificationService) Push(ctx context.Context, userID int64, notifType, title, body string, data map[string]interface{}) error {
	return pushNotification(ctx, s.notifRepo, s.events, userID, notifType, title, body, data)
}

// ==================== 站内推送 ====================

// pushNotification 落库通知并向用户房间推送实时事件
// 供同包服务复用；事务内写通知请直接走 uow.Notifications，提交后再单独发事件
func pushNotification(
	ctx context.Context,
	repo repository.NotificationRepository,
	events EventPublisher,
	userID int64,
	notifType, title, body string,
	data map[string]interface{},
) error {
	n := &model.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   data,
	}
	if err := repo.Create(ctx, n); err != nil {
		return err
	}

	events.Publish(ws.RoomUser(userID), ws.EventNotificationNew, toNotificationInfo(n))
	return nil
}

// ==================== 错误定义 ====================

var (
	ErrNotificationNotFound = apperr.NotFound("notification not found")
)
