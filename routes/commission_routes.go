package routes

import (
	"github.com/gofiber/fiber/v2"

	"foodconnect/handlers"
	"foodconnect/middleware"
	"foodconnect/models"
)

// SetupCommissionRoutes 设置佣金相关路由
func SetupCommissionRoutes(api, campaigns fiber.Router, h *handlers.Handler, authRequired fiber.Handler) {
	ownerOrAdmin := middleware.RequireRole(models.RoleRestaurant, models.RoleAdmin)

	campaigns.Post("/:id/commissions", ownerOrAdmin, h.GenerateCommissions)

	commissions := api.Group("/commissions", authRequired)
	commissions.Get("/", h.ListCommissions)
	commissions.Get("/summary", h.CommissionSummary)
	commissions.Get("/export", h.ExportCommissions)
	commissions.Get("/:id", h.GetCommission)
	commissions.Put("/:id/status", ownerOrAdmin, h.UpdateCommissionStatus)
}
