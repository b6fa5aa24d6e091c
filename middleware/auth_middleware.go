// Package middleware 提供认证和角色校验中间件
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"foodconnect/models"
	"foodconnect/services"
)

const (
	actorKey = "actor" // Locals中保存调用者身份的键
	tokenKey = "token" // Locals中保存原始令牌的键
)

// Authenticator 校验令牌并返回调用者身份
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (services.Actor, error)
}

// BearerToken 从Authorization头提取Bearer令牌
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) <= 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

// Auth 验证用户身份的中间件
// 该中间件负责：
//  1. 从Authorization头提取Bearer令牌
//  2. 校验令牌签名、有效期和数据库记录
//  3. 把调用者身份保存到上下文，供后续处理函数使用
//
// 认证失败时返回业务错误，由统一的错误处理转换为HTTP响应
func Auth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return &services.Error{Kind: services.KindUnauthenticated, Message: "未提供有效的认证令牌"}
		}

		actor, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(actorKey, actor)
		c.Locals(tokenKey, token)
		return c.Next()
	}
}

// RequireRole 只允许指定角色访问，必须放在Auth之后
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := CurrentActor(c)
		for _, role := range roles {
			if actor.Role == role {
				return c.Next()
			}
		}
		return &services.Error{Kind: services.KindAuthorization, Message: "当前角色无权访问该接口"}
	}
}

// CurrentActor 返回当前请求的调用者，未认证时返回零值
func CurrentActor(c *fiber.Ctx) services.Actor {
	actor, _ := c.Locals(actorKey).(services.Actor)
	return actor
}

// CurrentToken 返回当前请求使用的令牌
func CurrentToken(c *fiber.Ctx) string {
	token, _ := c.Locals(tokenKey).(string)
	return token
}
