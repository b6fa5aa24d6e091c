package routes

import (
	"github.com/gofiber/fiber/v2"

	"foodconnect/handlers"
	"foodconnect/middleware"
	"foodconnect/models"
)

// SetupCampaignRoutes 设置活动相关路由
// 状态变更接口只接受POST，非法迁移返回409
// 返回活动路由组，报名和佣金的子路由挂在该组下
func SetupCampaignRoutes(api fiber.Router, h *handlers.Handler, authRequired fiber.Handler) fiber.Router {
	restaurantOnly := middleware.RequireRole(models.RoleRestaurant)

	campaigns := api.Group("/campaigns", authRequired)

	campaigns.Get("/", h.ListCampaigns)
	campaigns.Get("/mine", restaurantOnly, h.ListMyCampaigns)
	campaigns.Get("/matching", middleware.RequireRole(models.RoleInfluencer), h.MatchingCampaigns)
	campaigns.Post("/", restaurantOnly, h.CreateCampaign)
	campaigns.Get("/:id", h.GetCampaign)
	campaigns.Put("/:id", restaurantOnly, h.UpdateCampaign)
	campaigns.Delete("/:id", restaurantOnly, h.DeleteCampaign)

	// 生命周期
	campaigns.Post("/:id/publish", restaurantOnly, h.PublishCampaign)
	campaigns.Post("/:id/open", restaurantOnly, h.OpenCampaignApplications)
	campaigns.Post("/:id/complete", restaurantOnly, h.CompleteCampaign)
	campaigns.Post("/:id/close", restaurantOnly, h.CloseCampaign)
	campaigns.Post("/:id/paid", middleware.RequireRole(models.RoleRestaurant, models.RoleAdmin), h.MarkCampaignPaid)

	return campaigns
}
