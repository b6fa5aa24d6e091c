// Package routes 注册所有HTTP路由
package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodconnect/handlers"
	"foodconnect/middleware"
)

// SetupRoutes 设置所有API路由
// 调用各个模块的路由注册函数，业务接口都以/api为前缀
func SetupRoutes(app *fiber.App, h *handlers.Handler, auth middleware.Authenticator) {
	// 健康检查和Prometheus指标不需要认证
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	authRequired := middleware.Auth(auth)

	SetupAuthRoutes(api, h, authRequired)
	SetupProfileRoutes(api, h, authRequired)
	campaigns := SetupCampaignRoutes(api, h, authRequired)
	SetupApplicationRoutes(api, campaigns, h, authRequired)
	SetupCommissionRoutes(api, campaigns, h, authRequired)
	SetupAdminRoutes(api, h, authRequired)
}
