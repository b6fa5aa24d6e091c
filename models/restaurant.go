package models

import (
	"time"
)

// Restaurant 餐厅资料模型
type Restaurant struct {
	ID          uint      `json:"id" gorm:"primaryKey"`             // 主键ID
	UserID      uint      `json:"user_id" gorm:"uniqueIndex"`       // 关联用户ID
	Name        string    `json:"name" gorm:"size:150"`             // 餐厅名称
	Cuisine     string    `json:"cuisine" gorm:"size:100"`          // 菜系
	Location    string    `json:"location" gorm:"size:100;index"`   // 所在城市
	Address     string    `json:"address" gorm:"size:255"`          // 详细地址
	Description string    `json:"description" gorm:"type:text"`     // 简介
	Phone       string    `json:"phone" gorm:"size:20"`             // 电话
	Halal       bool      `json:"halal" gorm:"default:false"`       // 是否清真认证
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"` // 创建时间
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"` // 更新时间
}

// TableName 返回表名
func (Restaurant) TableName() string {
	return "restaurants"
}
