package services

import (
	"context"

	"foodconnect/models"
)

// NotificationService 站内通知
type NotificationService struct {
	deps
}

// List 查询当前用户的通知
func (s *NotificationService) List(ctx context.Context, actor Actor, unreadOnly bool) ([]models.Notification, error) {
	notifications, err := s.store.ListNotifications(ctx, actor.UserID, unreadOnly)
	if err != nil {
		return nil, fromStore(err, "通知")
	}
	return notifications, nil
}

// MarkRead 把当前用户的一条通知标记为已读
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id uint) error {
	return fromStore(s.store.MarkNotificationRead(ctx, actor.UserID, id), "通知")
}
