package notify

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"foodconnect/models"
	"foodconnect/store"
)

// Inbox 把事件写入站内通知表
type Inbox struct {
	store store.Store
}

// NewInbox 创建站内通知发布者
func NewInbox(st store.Store) *Inbox {
	return &Inbox{store: st}
}

// Publish 保存一条站内通知
func (i *Inbox) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return errors.Wrap(err, "序列化通知内容失败")
	}
	notification := &models.Notification{
		RecipientID: event.RecipientID,
		Kind:        event.Kind,
		Title:       event.Title,
		Payload:     string(payload),
	}
	return errors.Wrap(i.store.CreateNotification(ctx, notification), "保存站内通知失败")
}
