package routes

import (
	"github.com/gofiber/fiber/v2"

	"foodconnect/handlers"
	"foodconnect/middleware"
	"foodconnect/models"
)

// SetupAdminRoutes 设置管理员和站内通知路由
func SetupAdminRoutes(api fiber.Router, h *handlers.Handler, authRequired fiber.Handler) {
	admin := api.Group("/admin", authRequired, middleware.RequireRole(models.RoleAdmin))
	admin.Get("/users", h.ListUsers)
	admin.Put("/users/:id/status", h.SetUserStatus)
	admin.Get("/stats", h.PlatformStats)
	admin.Get("/follower-changes", h.ListFollowerChanges)
	admin.Put("/follower-changes/:id", h.ReviewFollowerChange)

	notifications := api.Group("/notifications", authRequired)
	notifications.Get("/", h.ListNotifications)
	notifications.Put("/:id/read", h.MarkNotificationRead)
}
