package models

import (
	"time"
)

// UserToken 用户登录令牌模型
// 支持多设备登录，每个设备会创建独立的令牌记录
// 登出、刷新、强制下线都通过删除对应记录实现
type UserToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`             // 主键ID
	UserID    uint      `json:"user_id" gorm:"index"`             // 关联的用户ID
	Token     string    `json:"token" gorm:"size:500;index"`      // JWT令牌字符串
	UserAgent string    `json:"user_agent" gorm:"size:255"`       // 用户代理信息，用于识别登录设备
	IP        string    `json:"ip" gorm:"size:50"`                // 登录IP地址
	ExpiredAt time.Time `json:"expired_at" gorm:"index"`          // 令牌过期时间
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"` // 创建时间
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"` // 更新时间
}

// TableName 返回表名
func (UserToken) TableName() string {
	return "user_tokens"
}
