// Package handlers 实现HTTP接口
// 处理函数只负责解析参数和组装响应，业务规则全部在services包中
// 出错时直接返回error，由ErrorHandler统一转换为JSON响应
package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"foodconnect/services"
)

// Handler 持有所有业务服务
type Handler struct {
	svc *services.Services
}

// New 创建处理器
func New(svc *services.Services) *Handler {
	return &Handler{svc: svc}
}

// statusOf 业务错误类型到HTTP状态码的映射
var statusOf = map[services.Kind]int{
	services.KindNotFound:        fiber.StatusNotFound,
	services.KindInvalidState:    fiber.StatusConflict,
	services.KindConflict:        fiber.StatusConflict,
	services.KindCapacity:        fiber.StatusConflict,
	services.KindExpired:         fiber.StatusGone,
	services.KindAuthorization:   fiber.StatusForbidden,
	services.KindValidation:      fiber.StatusBadRequest,
	services.KindUnauthenticated: fiber.StatusUnauthorized,
	services.KindLocked:          fiber.StatusTooManyRequests,
}

// ErrorHandler 统一错误处理
// 业务错误返回其类型和信息，Fiber错误使用其状态码，其他错误记录日志后返回500
func ErrorHandler(c *fiber.Ctx, err error) error {
	kind := services.KindOf(err)
	if code, ok := statusOf[kind]; ok {
		return c.Status(code).JSON(fiber.Map{
			"error": true,
			"kind":  kind,
			"msg":   err.Error(),
		})
	}

	// 如果是Fiber的错误，使用其状态码
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": true,
			"kind":  services.KindInternal,
			"msg":   e.Message,
		})
	}

	log.Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Interface("request_id", c.Locals("requestid")).
		Msg("请求处理失败")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": true,
		"kind":  services.KindInternal,
		"msg":   "服务器内部错误，请稍后重试",
	})
}

// badRequest 参数错误
func badRequest(format string, args ...interface{}) error {
	return &services.Error{Kind: services.KindValidation, Message: fmt.Sprintf(format, args...)}
}

// idParam 解析路径中的ID参数
func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("无效的%s", name)
	}
	return uint(id), nil
}

// parseBody 解析请求体
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return badRequest("参数解析失败: %v", err)
	}
	return nil
}

// parseQuery 解析查询参数
func parseQuery(c *fiber.Ctx, out interface{}) error {
	if err := c.QueryParser(out); err != nil {
		return badRequest("查询参数解析失败: %v", err)
	}
	return nil
}

// page 分页列表的响应格式
func page(c *fiber.Ctx, data interface{}, total int64, pageNo, pageSize int) error {
	if pageNo <= 0 {
		pageNo = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return c.JSON(fiber.Map{
		"total": total,
		"page":  pageNo,
		"size":  pageSize,
		"data":  data,
	})
}
