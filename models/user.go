package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role 用户角色
type Role string

const (
	RoleRestaurant Role = "restaurant" // 餐厅
	RoleInfluencer Role = "influencer" // 网红
	RoleAdmin      Role = "admin"      // 平台管理员
)

// Valid 判断角色是否合法
func (r Role) Valid() bool {
	switch r {
	case RoleRestaurant, RoleInfluencer, RoleAdmin:
		return true
	}
	return false
}

// 用户状态
const (
	UserStatusActive    = "active"    // 正常
	UserStatusSuspended = "suspended" // 已停用
)

// User 平台用户模型
// 餐厅、网红和管理员共用一张用户表，通过Role区分身份
type User struct {
	ID          uint       `json:"id" gorm:"primaryKey"`                 // 主键ID
	Email       string     `json:"email" gorm:"size:100;uniqueIndex"`    // 邮箱，登录用，唯一
	Password    string     `json:"-" gorm:"size:100"`                    // 密码，不返回给前端
	Name        string     `json:"name" gorm:"size:100"`                 // 姓名或联系人
	Role        Role       `json:"role" gorm:"size:20;index"`            // 角色：restaurant, influencer, admin
	Status      string     `json:"status" gorm:"size:20;default:active"` // 状态：active正常, suspended停用
	LastLoginAt *time.Time `json:"last_login_at"`                        // 最后登录时间
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`     // 创建时间
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`     // 更新时间
}

// TableName 返回表名
func (User) TableName() string {
	return "users"
}

// SetPassword 设置加密密码
func (u *User) SetPassword(plainPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plainPassword))
	return err == nil
}

// UserQuery 用户查询参数
type UserQuery struct {
	Role     Role   `json:"role" query:"role"`           // 角色
	Status   string `json:"status" query:"status"`       // 状态
	Page     int    `json:"page" query:"page"`           // 页码
	PageSize int    `json:"page_size" query:"page_size"` // 每页数量
}
