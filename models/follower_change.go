package models

import (
	"time"
)

// 粉丝数变更申请状态
const (
	ChangePending  = "pending"  // 待审核
	ChangeApproved = "approved" // 已通过
	ChangeRejected = "rejected" // 已驳回
)

// FollowerChangeRequest 粉丝数变更申请
// 网红提交后由管理员审核，通过后更新粉丝数并重新计算分级
type FollowerChangeRequest struct {
	ID           uint       `json:"id" gorm:"primaryKey"`                        // 主键ID
	InfluencerID uint       `json:"influencer_id" gorm:"index"`                  // 网红ID
	Platform     Platform   `json:"platform" gorm:"size:20"`                     // 平台
	OldCount     int        `json:"old_count"`                                   // 申请时的粉丝数
	NewCount     int        `json:"new_count"`                                   // 申请的粉丝数
	Evidence     string     `json:"evidence" gorm:"size:255"`                    // 截图或链接
	Status       string     `json:"status" gorm:"size:20;index;default:pending"` // 状态
	ReviewerID   *uint      `json:"reviewer_id"`                                 // 审核人ID
	ReviewNote   string     `json:"review_note" gorm:"size:255"`                 // 审核备注
	ReviewedAt   *time.Time `json:"reviewed_at"`                                 // 审核时间
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`            // 创建时间
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`            // 更新时间
}

// TableName 返回表名
func (FollowerChangeRequest) TableName() string {
	return "follower_change_requests"
}
