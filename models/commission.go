package models

import (
	"time"
)

// CommissionStatus 佣金状态
type CommissionStatus string

const (
	CommissionPending  CommissionStatus = "pending"  // 待审批
	CommissionApproved CommissionStatus = "approved" // 已审批
	CommissionPaid     CommissionStatus = "paid"     // 已支付
)

// Valid 判断佣金状态是否合法
func (s CommissionStatus) Valid() bool {
	return s == CommissionPending || s == CommissionApproved || s == CommissionPaid
}

// CanTransition 佣金状态只能向前推进
func (s CommissionStatus) CanTransition(to CommissionStatus) bool {
	switch s {
	case CommissionPending:
		return to == CommissionApproved || to == CommissionPaid
	case CommissionApproved:
		return to == CommissionPaid
	}
	return false
}

// Commission 平台佣金记录
// 活动完成后为每位已录用网红生成一条，金额生成后不可修改，只允许状态推进
type Commission struct {
	ID               uint             `json:"id" gorm:"primaryKey"`                                       // 主键ID
	CommissionNo     string           `json:"commission_no" gorm:"size:32;uniqueIndex"`                   // 佣金单号
	CampaignID       uint             `json:"campaign_id" gorm:"uniqueIndex:idx_commission_pair"`         // 活动ID
	InfluencerID     uint             `json:"influencer_id" gorm:"uniqueIndex:idx_commission_pair;index"` // 网红ID
	RestaurantID     uint             `json:"restaurant_id" gorm:"index"`                                 // 餐厅ID
	ApplicationID    uint             `json:"application_id"`                                             // 报名记录ID
	CampaignAmount   float64          `json:"campaign_amount"`                                            // 活动金额，即每位网红的预算
	CommissionRate   float64          `json:"commission_rate"`                                            // 佣金比例（百分比）
	CommissionAmount float64          `json:"commission_amount"`                                          // 佣金金额
	Status           CommissionStatus `json:"status" gorm:"size:20;index;default:pending"`                // 状态：pending, approved, paid
	ApprovedAt       *time.Time       `json:"approved_at"`                                                // 审批时间
	PaidAt           *time.Time       `json:"paid_at"`                                                    // 支付时间
	CreatedAt        time.Time        `json:"created_at" gorm:"autoCreateTime"`                           // 创建时间
	UpdatedAt        time.Time        `json:"updated_at" gorm:"autoUpdateTime"`                           // 更新时间
}

// TableName 返回表名
func (Commission) TableName() string {
	return "commissions"
}

// CalculateCommission 计算佣金金额：金额 × 比例 / 100
func CalculateCommission(amount, ratePercent float64) float64 {
	return amount * ratePercent / 100
}

// CommissionSummary 佣金汇总
type CommissionSummary struct {
	Count          int     `json:"count"`           // 记录数
	TotalAmount    float64 `json:"total_amount"`    // 佣金总额
	PendingAmount  float64 `json:"pending_amount"`  // 待审批金额
	ApprovedAmount float64 `json:"approved_amount"` // 已审批金额
	PaidAmount     float64 `json:"paid_amount"`     // 已支付金额
}

// Add 累加一条佣金
func (s *CommissionSummary) Add(c Commission) {
	s.Count++
	s.TotalAmount += c.CommissionAmount
	switch c.Status {
	case CommissionPending:
		s.PendingAmount += c.CommissionAmount
	case CommissionApproved:
		s.ApprovedAmount += c.CommissionAmount
	case CommissionPaid:
		s.PaidAmount += c.CommissionAmount
	}
}
