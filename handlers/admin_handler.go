package handlers

import (
	"github.com/gofiber/fiber/v2"

	"foodconnect/middleware"
	"foodconnect/models"
)

// ListUsers 管理员分页查询用户
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	var query models.UserQuery
	if err := parseQuery(c, &query); err != nil {
		return err
	}
	users, total, err := h.svc.Admin.ListUsers(c.UserContext(), middleware.CurrentActor(c), query)
	if err != nil {
		return err
	}
	return page(c, users, total, query.Page, query.PageSize)
}

// SetUserStatus 管理员停用或恢复用户
func (h *Handler) SetUserStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Admin.SetUserStatus(c.UserContext(), middleware.CurrentActor(c), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "用户状态已更新", "data": user})
}

// PlatformStats 平台统计
func (h *Handler) PlatformStats(c *fiber.Ctx) error {
	stats, err := h.svc.Admin.Stats(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// ListNotifications 查询当前用户的通知，unread=true时只返回未读
func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	notifications, err := h.svc.Notifications.List(c.UserContext(), middleware.CurrentActor(c), c.QueryBool("unread"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notifications})
}

// MarkNotificationRead 标记通知为已读
func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Notifications.MarkRead(c.UserContext(), middleware.CurrentActor(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "已标记为已读"})
}
