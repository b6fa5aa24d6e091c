package models

import (
	"time"
)

// 通知类型
const (
	NotifyApplicationReceived  = "application_received"
	NotifyApplicationAccepted  = "application_accepted"
	NotifyApplicationRejected  = "application_rejected"
	NotifyApplicationWithdrawn = "application_withdrawn"
	NotifyCampaignClosed       = "campaign_closed"
	NotifyCampaignCompleted    = "campaign_completed"
	NotifyCommissionCreated    = "commission_created"
	NotifyCommissionUpdated    = "commission_updated"
	NotifyFollowerChange       = "follower_change_reviewed"
)

// Notification 站内通知
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`               // 主键ID
	RecipientID uint      `json:"recipient_id" gorm:"index"`          // 接收人用户ID
	Kind        string    `json:"kind" gorm:"size:50;index"`          // 通知类型
	Title       string    `json:"title" gorm:"size:200"`              // 标题
	Payload     string    `json:"payload" gorm:"type:text"`           // 附加数据，JSON格式
	IsRead      bool      `json:"is_read" gorm:"default:false;index"` // 是否已读
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`   // 创建时间
}

// TableName 返回表名
func (Notification) TableName() string {
	return "notifications"
}
