package services

import (
	"foodconnect/models"
)

// Actor 当前请求的调用者，由认证中间件提供
type Actor struct {
	UserID uint        `json:"user_id"`
	Role   models.Role `json:"role"`
}

// IsAdmin 是否为管理员
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// require 校验调用者角色
func (a Actor) require(roles ...models.Role) error {
	for _, role := range roles {
		if a.Role == role {
			return nil
		}
	}
	return newError(KindAuthorization, "当前角色无权执行该操作")
}
