package handlers

import (
	"github.com/gofiber/fiber/v2"

	"foodconnect/middleware"
	"foodconnect/models"
)

// ApplyCampaign 网红报名活动
func (h *Handler) ApplyCampaign(c *fiber.Ctx) error {
	campaignID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Message string `json:"message"`
	}
	// 报名留言可以为空，请求体为空时忽略解析
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}

	application, err := h.svc.Applications.Apply(c.UserContext(), middleware.CurrentActor(c), campaignID, req.Message)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "报名成功", "data": application})
}

// ListCampaignApplications 餐厅查看活动的报名
func (h *Handler) ListCampaignApplications(c *fiber.Ctx) error {
	campaignID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	status := models.ApplicationStatus(c.Query("status"))
	applications, err := h.svc.Applications.ListForCampaign(c.UserContext(), middleware.CurrentActor(c), campaignID, status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applications})
}

// ListMyApplications 网红查看自己的报名
func (h *Handler) ListMyApplications(c *fiber.Ctx) error {
	status := models.ApplicationStatus(c.Query("status"))
	applications, err := h.svc.Applications.ListOwn(c.UserContext(), middleware.CurrentActor(c), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applications})
}

// GetApplication 查询单条报名
func (h *Handler) GetApplication(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	application, err := h.svc.Applications.Get(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": application})
}

// UpdateApplicationStatus 餐厅录用或拒绝报名
func (h *Handler) UpdateApplicationStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Status models.ApplicationStatus `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	application, err := h.svc.Applications.UpdateStatus(c.UserContext(), middleware.CurrentActor(c), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "报名状态已更新", "data": application})
}

// WithdrawApplication 网红撤回报名
func (h *Handler) WithdrawApplication(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Applications.Withdraw(c.UserContext(), middleware.CurrentActor(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "报名已撤回"})
}
