package models

import (
	"strings"
	"time"
)

// Campaign 餐厅发布的推广活动
type Campaign struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`                      // 主键ID
	RestaurantID        uint           `json:"restaurant_id" gorm:"index;not null"`       // 所属餐厅ID
	Title               string         `json:"title" gorm:"size:200"`                     // 标题
	Description         string         `json:"description" gorm:"type:text"`              // 描述
	BudgetPerInfluencer float64        `json:"budget_per_influencer" gorm:"default:0"`    // 每位网红的预算
	MealValue           *float64       `json:"meal_value"`                                // 餐饮价值，可为空
	MaxInfluencers      int            `json:"max_influencers" gorm:"default:1"`          // 最多录用网红数
	Requirements        string         `json:"requirements" gorm:"type:text"`             // 内容要求
	Location            string         `json:"location" gorm:"size:100;index"`            // 目标城市
	Deadline            *time.Time     `json:"deadline" gorm:"index"`                     // 报名截止时间，可为空
	TargetTiers         string         `json:"target_tiers" gorm:"size:120"`              // 目标分级，逗号分隔，为空表示不限
	Status              CampaignStatus `json:"status" gorm:"size:30;index;default:draft"` // 生命周期状态
	PublishedAt         *time.Time     `json:"published_at"`                              // 发布时间
	CompletedAt         *time.Time     `json:"completed_at"`                              // 完成时间
	PaidAt              *time.Time     `json:"paid_at"`                                   // 结清时间
	ClosedAt            *time.Time     `json:"closed_at"`                                 // 提前关闭时间
	CreatedAt           time.Time      `json:"created_at" gorm:"autoCreateTime"`          // 创建时间
	UpdatedAt           time.Time      `json:"updated_at" gorm:"autoUpdateTime"`          // 更新时间
}

// TableName 返回表名
func (Campaign) TableName() string {
	return "campaigns"
}

// TierSet 解析目标分级
func (c *Campaign) TierSet() []Tier {
	if strings.TrimSpace(c.TargetTiers) == "" {
		return nil
	}
	var tiers []Tier
	for _, part := range strings.Split(c.TargetTiers, ",") {
		if t := Tier(strings.TrimSpace(part)); t != "" {
			tiers = append(tiers, t)
		}
	}
	return tiers
}

// SetTierSet 以规范格式写入目标分级
func (c *Campaign) SetTierSet(tiers []Tier) {
	parts := make([]string, 0, len(tiers))
	for _, t := range tiers {
		parts = append(parts, string(t))
	}
	c.TargetTiers = strings.Join(parts, ",")
}

// Targets 判断活动是否面向该分级，未设置目标分级时面向所有人
func (c *Campaign) Targets(t Tier) bool {
	tiers := c.TierSet()
	if len(tiers) == 0 {
		return true
	}
	for _, tier := range tiers {
		if tier == t {
			return true
		}
	}
	return false
}

// DeadlinePassed 判断报名截止时间是否已过
func (c *Campaign) DeadlinePassed(now time.Time) bool {
	return c.Deadline != nil && !c.Deadline.After(now)
}

// CampaignQuery 活动查询参数
type CampaignQuery struct {
	RestaurantID uint   `json:"restaurant_id" query:"restaurant_id"` // 餐厅ID
	Status       string `json:"status" query:"status"`               // 状态，可逗号分隔多个
	Location     string `json:"location" query:"location"`           // 城市
	Tier         Tier   `json:"tier" query:"tier"`                   // 面向的分级
	Page         int    `json:"page" query:"page"`                   // 页码
	PageSize     int    `json:"page_size" query:"page_size"`         // 每页数量
}
