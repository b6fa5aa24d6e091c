package models

import (
	"time"
)

// ApplicationStatus 报名状态
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"  // 待审核
	ApplicationAccepted ApplicationStatus = "accepted" // 已录用
	ApplicationRejected ApplicationStatus = "rejected" // 已拒绝
)

// Valid 判断报名状态是否合法
func (s ApplicationStatus) Valid() bool {
	return s == ApplicationPending || s == ApplicationAccepted || s == ApplicationRejected
}

// Application 网红对活动的报名记录
// 同一网红对同一活动只能有一条报名，由联合唯一索引保证
type Application struct {
	ID           uint              `json:"id" gorm:"primaryKey"`                                        // 主键ID
	CampaignID   uint              `json:"campaign_id" gorm:"uniqueIndex:idx_application_pair"`         // 活动ID
	InfluencerID uint              `json:"influencer_id" gorm:"uniqueIndex:idx_application_pair;index"` // 网红ID
	Message      string            `json:"message" gorm:"type:text"`                                    // 报名留言
	Status       ApplicationStatus `json:"status" gorm:"size:20;index;default:pending"`                 // 状态：pending, accepted, rejected
	AppliedAt    time.Time         `json:"applied_at"`                                                  // 报名时间
	DecidedAt    *time.Time        `json:"decided_at"`                                                  // 审核时间
	CreatedAt    time.Time         `json:"created_at" gorm:"autoCreateTime"`                            // 创建时间
	UpdatedAt    time.Time         `json:"updated_at" gorm:"autoUpdateTime"`                            // 更新时间
}

// TableName 返回表名
func (Application) TableName() string {
	return "applications"
}
