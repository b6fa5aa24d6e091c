package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"foodconnect/middleware"
	"foodconnect/models"
	"foodconnect/services"
)

// CreateCampaign 餐厅创建活动
func (h *Handler) CreateCampaign(c *fiber.Ctx) error {
	var input services.CampaignInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	campaign, err := h.svc.Campaigns.Create(c.UserContext(), middleware.CurrentActor(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "活动创建成功", "data": campaign})
}

// UpdateCampaign 修改活动内容
func (h *Handler) UpdateCampaign(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var input services.CampaignInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	campaign, err := h.svc.Campaigns.Update(c.UserContext(), middleware.CurrentActor(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "活动已更新", "data": campaign})
}

// GetCampaign 查询单个活动
func (h *Handler) GetCampaign(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	campaign, err := h.svc.Campaigns.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": campaign})
}

// ListCampaigns 查询活动列表
// 支持按状态（逗号分隔）、餐厅、城市和目标分级筛选
func (h *Handler) ListCampaigns(c *fiber.Ctx) error {
	var query models.CampaignQuery
	if err := parseQuery(c, &query); err != nil {
		return err
	}
	campaigns, total, err := h.svc.Campaigns.List(c.UserContext(), middleware.CurrentActor(c), query)
	if err != nil {
		return err
	}
	return page(c, campaigns, total, query.Page, query.PageSize)
}

// ListMyCampaigns 餐厅查询自己的活动
func (h *Handler) ListMyCampaigns(c *fiber.Ctx) error {
	pageNo, pageSize := c.QueryInt("page", 1), c.QueryInt("page_size", 10)
	campaigns, total, err := h.svc.Campaigns.ListOwn(c.UserContext(), middleware.CurrentActor(c), pageNo, pageSize)
	if err != nil {
		return err
	}
	return page(c, campaigns, total, pageNo, pageSize)
}

// MatchingCampaigns 网红分页查询可以报名的活动
func (h *Handler) MatchingCampaigns(c *fiber.Ctx) error {
	pageNo, pageSize := c.QueryInt("page", 1), c.QueryInt("page_size", 10)
	campaigns, total, err := h.svc.Campaigns.Matching(c.UserContext(), middleware.CurrentActor(c), pageNo, pageSize)
	if err != nil {
		return err
	}
	return page(c, campaigns, total, pageNo, pageSize)
}

// campaignAction 状态变更类接口的公共处理
func (h *Handler) campaignAction(message string, action func(ctx context.Context, actor services.Actor, id uint) (*models.Campaign, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		campaign, err := action(c.UserContext(), middleware.CurrentActor(c), id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": message, "data": campaign})
	}
}

// PublishCampaign 发布活动
func (h *Handler) PublishCampaign(c *fiber.Ctx) error {
	return h.campaignAction("活动已发布", h.svc.Campaigns.Publish)(c)
}

// OpenCampaignApplications 开放报名
func (h *Handler) OpenCampaignApplications(c *fiber.Ctx) error {
	return h.campaignAction("活动已开放报名", h.svc.Campaigns.OpenApplications)(c)
}

// CloseCampaign 关闭活动
func (h *Handler) CloseCampaign(c *fiber.Ctx) error {
	return h.campaignAction("活动已关闭", h.svc.Campaigns.Close)(c)
}

// MarkCampaignPaid 活动结清
func (h *Handler) MarkCampaignPaid(c *fiber.Ctx) error {
	return h.campaignAction("活动已结清", h.svc.Campaigns.MarkPaid)(c)
}

// CompleteCampaign 完成活动并生成佣金
func (h *Handler) CompleteCampaign(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	campaign, commissions, err := h.svc.Campaigns.Complete(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":     "活动已完成",
		"data":        campaign,
		"commissions": commissions,
	})
}

// DeleteCampaign 删除活动
func (h *Handler) DeleteCampaign(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Campaigns.Delete(c.UserContext(), middleware.CurrentActor(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "活动已删除"})
}
