package routes

import (
	"github.com/gofiber/fiber/v2"

	"foodconnect/handlers"
	"foodconnect/middleware"
	"foodconnect/models"
)

// SetupProfileRoutes 设置餐厅和网红资料路由
func SetupProfileRoutes(api fiber.Router, h *handlers.Handler, authRequired fiber.Handler) {
	restaurantOnly := middleware.RequireRole(models.RoleRestaurant)
	influencerOnly := middleware.RequireRole(models.RoleInfluencer)

	restaurants := api.Group("/restaurants", authRequired)
	restaurants.Get("/me", restaurantOnly, h.GetMyRestaurant)
	restaurants.Put("/me", restaurantOnly, h.UpdateMyRestaurant)
	restaurants.Get("/:id", h.GetRestaurant)

	influencers := api.Group("/influencers", authRequired)
	influencers.Get("/", h.ListInfluencers)
	influencers.Get("/me", influencerOnly, h.GetMyInfluencer)
	influencers.Put("/me", influencerOnly, h.UpdateMyInfluencer)
	influencers.Post("/me/follower-changes", influencerOnly, h.RequestFollowerChange)
	influencers.Get("/:id", h.GetInfluencer)
}
