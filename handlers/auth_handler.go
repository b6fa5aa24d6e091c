package handlers

import (
	"github.com/gofiber/fiber/v2"

	"foodconnect/middleware"
	"foodconnect/services"
)

// Register 注册餐厅或网红账号
func (h *Handler) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.svc.Auth.Register(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "注册成功",
		"data":    user,
	})
}

// Login 用户登录
// 处理流程:
//  1. 解析邮箱和密码
//  2. 校验凭证，连续失败会锁定账号
//  3. 签发令牌并记录登录设备
func (h *Handler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.svc.Auth.Login(c.UserContext(), req.Email, req.Password, c.Get(fiber.HeaderUserAgent), c.IP())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":    "登录成功",
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       session.User,
	})
}

// RefreshToken 刷新认证令牌
// 旧令牌必须仍然有效，刷新后旧令牌立即失效
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	token := middleware.BearerToken(c)
	if token == "" {
		return badRequest("未提供有效的认证令牌")
	}

	session, err := h.svc.Auth.Refresh(c.UserContext(), token, c.IP())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":    "刷新令牌成功",
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
	})
}

// Logout 登出当前设备
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.svc.Auth.Logout(c.UserContext(), middleware.CurrentActor(c), middleware.CurrentToken(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "登出成功"})
}

// GetLoginDevices 获取当前用户的登录设备列表
func (h *Handler) GetLoginDevices(c *fiber.Ctx) error {
	tokens, err := h.svc.Auth.Devices(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return err
	}

	// 不返回令牌本身
	devices := make([]fiber.Map, 0, len(tokens))
	for _, token := range tokens {
		devices = append(devices, fiber.Map{
			"id":         token.ID,
			"user_agent": token.UserAgent,
			"ip":         token.IP,
			"created_at": token.CreatedAt,
			"expired_at": token.ExpiredAt,
		})
	}
	return c.JSON(fiber.Map{"devices": devices})
}

// LogoutDevice 登出指定设备
func (h *Handler) LogoutDevice(c *fiber.Ctx) error {
	deviceID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Auth.LogoutDevice(c.UserContext(), middleware.CurrentActor(c), deviceID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "设备已登出"})
}

// ForceLogout 管理员强制指定用户的所有设备下线
func (h *Handler) ForceLogout(c *fiber.Ctx) error {
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Auth.ForceLogout(c.UserContext(), middleware.CurrentActor(c), userID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "已强制该用户所有设备下线"})
}
