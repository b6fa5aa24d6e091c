package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"foodconnect/middleware"
	"foodconnect/models"
	"foodconnect/store"
)

// commissionFilter 从查询参数构造佣金筛选条件
func commissionFilter(c *fiber.Ctx) store.CommissionFilter {
	return store.CommissionFilter{
		CampaignID: uint(c.QueryInt("campaign_id")),
		Status:     models.CommissionStatus(c.Query("status")),
	}
}

// ListCommissions 查询佣金列表，范围由调用者角色决定
func (h *Handler) ListCommissions(c *fiber.Ctx) error {
	commissions, err := h.svc.Commissions.List(c.UserContext(), middleware.CurrentActor(c), commissionFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": commissions})
}

// CommissionSummary 按状态汇总佣金金额
func (h *Handler) CommissionSummary(c *fiber.Ctx) error {
	summary, err := h.svc.Commissions.Summary(c.UserContext(), middleware.CurrentActor(c), commissionFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// GetCommission 查询单条佣金
func (h *Handler) GetCommission(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	commission, err := h.svc.Commissions.Get(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": commission})
}

// UpdateCommissionStatus 推进佣金状态
func (h *Handler) UpdateCommissionStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Status models.CommissionStatus `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	commission, err := h.svc.Commissions.UpdateStatus(c.UserContext(), middleware.CurrentActor(c), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "佣金状态已更新", "data": commission})
}

// GenerateCommissions 为已完成的活动补齐佣金
// 可选参数rate覆盖平台默认比例，已存在的佣金不会改变
func (h *Handler) GenerateCommissions(c *fiber.Ctx) error {
	campaignID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Rate *float64 `json:"rate"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	commissions, err := h.svc.Commissions.GenerateCommissions(c.UserContext(), middleware.CurrentActor(c), campaignID, req.Rate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "佣金已生成", "data": commissions})
}

// commissionCSVHeader 导出文件的表头
var commissionCSVHeader = []string{
	"commission_no", "campaign_id", "restaurant_id", "influencer_id", "campaign_amount",
	"commission_rate", "commission_amount", "status", "approved_at", "paid_at", "created_at",
}

// ExportCommissions 导出佣金
// 根据查询条件导出调用者可见的佣金，支持CSV和JSON格式，默认为CSV
func (h *Handler) ExportCommissions(c *fiber.Ctx) error {
	format := c.Query("format", "csv")
	if format != "csv" && format != "json" {
		return badRequest("不支持的导出格式: %s", format)
	}

	commissions, err := h.svc.Commissions.List(c.UserContext(), middleware.CurrentActor(c), commissionFilter(c))
	if err != nil {
		return err
	}
	if format == "json" {
		return c.JSON(fiber.Map{"total": len(commissions), "data": commissions})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(commissionCSVHeader); err != nil {
		return err
	}
	for _, commission := range commissions {
		row := []string{
			commission.CommissionNo,
			strconv.FormatUint(uint64(commission.CampaignID), 10),
			strconv.FormatUint(uint64(commission.RestaurantID), 10),
			strconv.FormatUint(uint64(commission.InfluencerID), 10),
			strconv.FormatFloat(commission.CampaignAmount, 'f', 2, 64),
			strconv.FormatFloat(commission.CommissionRate, 'f', 2, 64),
			strconv.FormatFloat(commission.CommissionAmount, 'f', 2, 64),
			string(commission.Status),
			formatTime(commission.ApprovedAt),
			formatTime(commission.PaidAt),
			commission.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=commissions_%s.csv", time.Now().Format("20060102150405")))
	return c.Send(buf.Bytes())
}

// formatTime 可能为空的时间，空值导出为空字符串
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
