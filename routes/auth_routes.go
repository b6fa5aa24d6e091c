package routes

import (
	"github.com/gofiber/fiber/v2"

	"foodconnect/handlers"
	"foodconnect/middleware"
	"foodconnect/models"
)

// SetupAuthRoutes 设置认证相关路由
// 认证采用JWT机制，每次登录在数据库中记录一个设备，支持多设备登录和会话管理
func SetupAuthRoutes(api fiber.Router, h *handlers.Handler, authRequired fiber.Handler) {
	auth := api.Group("/auth")

	// POST /api/auth/register 注册餐厅或网红
	auth.Post("/register", h.Register)

	// POST /api/auth/login 登录，成功返回JWT令牌和过期时间
	auth.Post("/login", h.Login)

	// POST /api/auth/refresh 用仍然有效的令牌换新令牌
	auth.Post("/refresh", h.RefreshToken)

	// POST /api/auth/logout 使当前会话的令牌失效
	auth.Post("/logout", authRequired, h.Logout)

	// GET /api/auth/devices 当前用户的所有活跃登录设备
	auth.Get("/devices", authRequired, h.GetLoginDevices)

	// DELETE /api/auth/devices/:id 登出指定设备
	auth.Delete("/devices/:id", authRequired, h.LogoutDevice)

	// DELETE /api/auth/users/:id/logout 管理员强制用户所有设备下线
	auth.Delete("/users/:id/logout", authRequired, middleware.RequireRole(models.RoleAdmin), h.ForceLogout)
}
