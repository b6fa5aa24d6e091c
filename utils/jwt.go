package utils

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("无效的令牌")

// UserClaims 定义JWT令牌的声明结构
// 包含用户的身份信息和标准JWT声明
type UserClaims struct {
	UserID               uint   `json:"user_id"` // 用户ID，用于身份识别
	Role                 string `json:"role"`    // 用户角色：restaurant, influencer, admin
	jwt.RegisteredClaims        // 嵌入标准JWT声明（如过期时间、签发时间等）
}

// JWTManager 负责签发和解析令牌
type JWTManager struct {
	secret []byte
	now    func() time.Time
}

// NewJWTManager 创建令牌管理器
// 密钥为空时：生产环境返回错误，开发环境生成随机密钥
func NewJWTManager(secret, env string) (*JWTManager, error) {
	if secret == "" {
		if env == "production" {
			return nil, errors.New("在生产环境中必须设置JWT_SECRET环境变量")
		}
		log.Warn().Msg("JWT_SECRET未设置，将使用随机生成的密钥（仅用于开发环境）")

		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err != nil {
			return nil, errors.Wrap(err, "生成随机密钥失败")
		}
		secret = base64.StdEncoding.EncodeToString(randomKey)
	}
	if len(secret) < 16 {
		log.Warn().Int("length", len(secret)).Msg("JWT密钥长度不足，建议使用至少32字符的密钥")
	}
	return &JWTManager{secret: []byte(secret), now: time.Now}, nil
}

// GenerateToken 为指定用户签发令牌，返回令牌字符串和过期时间
func (m *JWTManager) GenerateToken(userID uint, role string, duration time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(duration)

	claims := UserClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        GenerateRandomCode(12),
		},
	}

	// 使用HS256算法签名
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "签发令牌失败")
	}
	return tokenString, expiresAt, nil
}

// ParseToken 解析并验证令牌
func (m *JWTManager) ParseToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("无效的签名方法")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
