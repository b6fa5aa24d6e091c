// Package notify 实现业务层的通知发送
// Inbox写入站内通知表，Kafka把同一事件发布给外部消费者（邮件、推送等）
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"foodconnect/models"
)

// Event 一条通知事件
type Event struct {
	ID          string                 `json:"id"`           // 事件ID，消费端去重用
	RecipientID uint                   `json:"recipient_id"` // 接收人用户ID
	Kind        string                 `json:"kind"`         // 通知类型
	Title       string                 `json:"title"`        // 标题
	Payload     map[string]interface{} `json:"payload"`      // 附加数据
	OccurredAt  time.Time              `json:"occurred_at"`  // 发生时间
}

var titles = map[string]string{
	models.NotifyApplicationReceived:  "收到新的活动报名",
	models.NotifyApplicationAccepted:  "你的报名已被录用",
	models.NotifyApplicationRejected:  "你的报名未被录用",
	models.NotifyApplicationWithdrawn: "有网红撤回了报名",
	models.NotifyCampaignClosed:       "活动已关闭",
	models.NotifyCampaignCompleted:    "活动已完成",
	models.NotifyCommissionCreated:    "佣金已生成",
	models.NotifyCommissionUpdated:    "佣金状态已更新",
	models.NotifyFollowerChange:       "粉丝数变更申请已审核",
}

// Title 返回通知类型对应的标题，未知类型原样返回
func Title(kind string) string {
	if title, ok := titles[kind]; ok {
		return title
	}
	return kind
}

// NewEvent 创建通知事件
func NewEvent(userID uint, kind string, payload map[string]interface{}) Event {
	return Event{
		ID:          uuid.New().String(),
		RecipientID: userID,
		Kind:        kind,
		Title:       Title(kind),
		Payload:     payload,
		OccurredAt:  time.Now(),
	}
}

// Publisher 发布通知事件
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
