package routes

import (
	"github.com/gofiber/fiber/v2"

	"foodconnect/handlers"
	"foodconnect/middleware"
	"foodconnect/models"
)

// SetupApplicationRoutes 设置报名相关路由
// campaigns是已经带认证的活动路由组
func SetupApplicationRoutes(api, campaigns fiber.Router, h *handlers.Handler, authRequired fiber.Handler) {
	influencerOnly := middleware.RequireRole(models.RoleInfluencer)

	campaigns.Post("/:id/applications", influencerOnly, h.ApplyCampaign)
	campaigns.Get("/:id/applications", middleware.RequireRole(models.RoleRestaurant, models.RoleAdmin), h.ListCampaignApplications)

	applications := api.Group("/applications", authRequired)
	applications.Get("/mine", influencerOnly, h.ListMyApplications)
	applications.Get("/:id", h.GetApplication)
	applications.Put("/:id/status", middleware.RequireRole(models.RoleRestaurant), h.UpdateApplicationStatus)
	applications.Delete("/:id", influencerOnly, h.WithdrawApplication)
}
