package handlers

import (
	"github.com/gofiber/fiber/v2"

	"foodconnect/middleware"
	"foodconnect/models"
	"foodconnect/services"
)

// GetMyRestaurant 查询当前餐厅资料
func (h *Handler) GetMyRestaurant(c *fiber.Ctx) error {
	restaurant, err := h.svc.Restaurants.GetOwn(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": restaurant})
}

// UpdateMyRestaurant 修改当前餐厅资料
func (h *Handler) UpdateMyRestaurant(c *fiber.Ctx) error {
	var input services.RestaurantInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	restaurant, err := h.svc.Restaurants.UpdateOwn(c.UserContext(), middleware.CurrentActor(c), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "餐厅资料已更新", "data": restaurant})
}

// GetRestaurant 按ID查询餐厅
func (h *Handler) GetRestaurant(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	restaurant, err := h.svc.Restaurants.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": restaurant})
}

// GetMyInfluencer 查询当前网红资料
func (h *Handler) GetMyInfluencer(c *fiber.Ctx) error {
	influencer, err := h.svc.Influencers.GetOwn(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": influencer})
}

// UpdateMyInfluencer 修改当前网红资料，分级随粉丝数重新计算
func (h *Handler) UpdateMyInfluencer(c *fiber.Ctx) error {
	var input services.InfluencerInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	influencer, err := h.svc.Influencers.UpdateOwn(c.UserContext(), middleware.CurrentActor(c), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "网红资料已更新", "data": influencer})
}

// GetInfluencer 按ID查询网红
func (h *Handler) GetInfluencer(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	influencer, err := h.svc.Influencers.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": influencer})
}

// ListInfluencers 按分级和城市筛选网红
func (h *Handler) ListInfluencers(c *fiber.Ctx) error {
	var query models.InfluencerQuery
	if err := parseQuery(c, &query); err != nil {
		return err
	}
	influencers, total, err := h.svc.Influencers.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	return page(c, influencers, total, query.Page, query.PageSize)
}

// RequestFollowerChange 网红提交粉丝数变更申请
func (h *Handler) RequestFollowerChange(c *fiber.Ctx) error {
	var input services.FollowerChangeInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	request, err := h.svc.Influencers.RequestFollowerChange(c.UserContext(), middleware.CurrentActor(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "申请已提交，等待审核", "data": request})
}

// ListFollowerChanges 管理员查看粉丝数变更申请
func (h *Handler) ListFollowerChanges(c *fiber.Ctx) error {
	requests, err := h.svc.Influencers.ListFollowerChanges(c.UserContext(), middleware.CurrentActor(c), c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requests})
}

// ReviewFollowerChange 管理员审核粉丝数变更申请
func (h *Handler) ReviewFollowerChange(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	request, err := h.svc.Influencers.ReviewFollowerChange(c.UserContext(), middleware.CurrentActor(c), id, req.Approve, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "审核完成", "data": request})
}
