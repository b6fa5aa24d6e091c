package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"foodconnect/metrics"
	"foodconnect/models"
	"foodconnect/store"
	"foodconnect/utils"
)

// AuthService 注册、登录和多设备会话管理
// 每次登录签发一个JWT并在user_tokens表中保存一条记录，删除记录即令牌失效
type AuthService struct {
	deps
	jwt      *utils.JWTManager
	limiter  utils.LoginGuard
	tokenTTL time.Duration
}

// RegisterInput 注册参数
// Name对餐厅来说是餐厅名称，对网红来说是展示名称
type RegisterInput struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	Location string      `json:"location"`
	Phone    string      `json:"phone"`
}

// Session 登录成功后返回给客户端的会话
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register 注册餐厅或网红账号，同时创建对应的资料
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, newError(KindValidation, "邮箱格式不正确")
	}
	if len(input.Password) < 6 {
		return nil, newError(KindValidation, "密码至少6位")
	}
	if input.Name == "" {
		return nil, newError(KindValidation, "名称不能为空")
	}
	if input.Role != models.RoleRestaurant && input.Role != models.RoleInfluencer {
		return nil, newError(KindValidation, "只能注册为restaurant或influencer")
	}

	user := &models.User{
		Email:  input.Email,
		Name:   input.Name,
		Role:   input.Role,
		Status: models.UserStatusActive,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, errors.Wrap(err, "密码加密失败")
	}

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return newError(KindConflict, "邮箱已被注册")
			}
			return fromStore(err, "用户")
		}
		if input.Role == models.RoleRestaurant {
			restaurant := &models.Restaurant{
				UserID:   user.ID,
				Name:     input.Name,
				Location: strings.TrimSpace(input.Location),
				Phone:    input.Phone,
			}
			return fromStore(tx.CreateRestaurant(ctx, restaurant), "餐厅资料")
		}
		influencer := &models.Influencer{
			UserID:      user.ID,
			DisplayName: input.Name,
			Location:    strings.TrimSpace(input.Location),
			Phone:       input.Phone,
		}
		influencer.RefreshTier()
		return fromStore(tx.CreateInfluencer(ctx, influencer), "网红资料")
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login 邮箱密码登录
// 处理流程:
//  1. 检查账号是否因连续失败被锁定
//  2. 校验邮箱和密码，失败时累加失败次数
//  3. 检查账号状态
//  4. 清理过期令牌并签发新令牌
func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ip string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, newError(KindValidation, "邮箱和密码不能为空")
	}

	if locked, minutes, err := s.limiter.IsLocked(ctx, email); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("查询登录锁定状态失败")
	} else if locked {
		return nil, newError(KindLocked, "登录失败次数过多，请%d分钟后再试", minutes)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fromStore(err, "用户")
	}
	if err != nil || !user.CheckPassword(password) {
		metrics.LoginFailures.Inc()
		locked, minutes, lerr := s.limiter.RecordFailedLogin(ctx, email)
		if lerr != nil {
			log.Warn().Err(lerr).Str("email", email).Msg("记录登录失败次数失败")
		}
		if locked {
			return nil, newError(KindLocked, "登录失败次数过多，账号已锁定%d分钟", minutes)
		}
		return nil, newError(KindUnauthenticated, "邮箱或密码错误")
	}
	if user.Status != models.UserStatusActive {
		return nil, newError(KindAuthorization, "账号已被停用")
	}
	if err := s.limiter.ResetAttempts(ctx, email); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("重置登录失败次数失败")
	}

	now := s.now()
	if err := s.store.DeleteExpiredTokens(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("删除过期令牌失败")
	}
	session, err := s.issue(ctx, s.store, user, userAgent, ip)
	if err != nil {
		return nil, err
	}

	user.LastLoginAt = &now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("更新最后登录时间失败")
	}
	return session, nil
}

// issue 签发令牌并保存设备记录
func (s *AuthService) issue(ctx context.Context, st store.Store, user *models.User, userAgent, ip string) (*Session, error) {
	token, expiresAt, err := s.jwt.GenerateToken(user.ID, string(user.Role), s.tokenTTL)
	if err != nil {
		return nil, err
	}
	record := &models.UserToken{
		UserID:    user.ID,
		Token:     token,
		UserAgent: userAgent,
		IP:        ip,
		ExpiredAt: expiresAt,
	}
	if err := st.CreateToken(ctx, record); err != nil {
		return nil, fromStore(err, "令牌")
	}
	return &Session{Token: token, ExpiresAt: expiresAt.Unix(), User: user}, nil
}

// Authenticate 校验令牌并返回调用者身份
// 令牌必须签名有效、仍在数据库中且未过期，用户必须处于正常状态
func (s *AuthService) Authenticate(ctx context.Context, token string) (Actor, error) {
	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		return Actor{}, newError(KindUnauthenticated, "无效的认证令牌")
	}
	record, err := s.store.GetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Actor{}, newError(KindUnauthenticated, "认证令牌已失效")
		}
		return Actor{}, fromStore(err, "令牌")
	}
	if !s.now().Before(record.ExpiredAt) {
		return Actor{}, newError(KindUnauthenticated, "认证令牌已过期")
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Actor{}, newError(KindUnauthenticated, "用户不存在")
		}
		return Actor{}, fromStore(err, "用户")
	}
	if user.Status != models.UserStatusActive {
		return Actor{}, newError(KindAuthorization, "账号已被停用")
	}
	return Actor{UserID: user.ID, Role: user.Role}, nil
}

// Refresh 用仍然有效的令牌换一个新令牌，旧令牌立即失效
func (s *AuthService) Refresh(ctx context.Context, token, ip string) (*Session, error) {
	actor, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	var session *Session
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		old, err := tx.GetToken(ctx, token)
		if err != nil {
			return fromStore(err, "令牌")
		}
		user, err := tx.GetUser(ctx, actor.UserID)
		if err != nil {
			return fromStore(err, "用户")
		}
		if err := tx.DeleteToken(ctx, user.ID, old.ID); err != nil {
			return fromStore(err, "令牌")
		}
		if err := tx.DeleteExpiredTokens(ctx, user.ID, s.now()); err != nil {
			return fromStore(err, "令牌")
		}
		session, err = s.issue(ctx, tx, user, old.UserAgent, ip)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Logout 删除当前令牌
func (s *AuthService) Logout(ctx context.Context, actor Actor, token string) error {
	record, err := s.store.GetToken(ctx, token)
	if err != nil {
		return fromStore(err, "令牌")
	}
	if record.UserID != actor.UserID {
		return newError(KindAuthorization, "令牌不属于当前用户")
	}
	return fromStore(s.store.DeleteToken(ctx, actor.UserID, record.ID), "令牌")
}

// Devices 返回当前用户所有未过期的登录设备
func (s *AuthService) Devices(ctx context.Context, actor Actor) ([]models.UserToken, error) {
	tokens, err := s.store.ListActiveTokens(ctx, actor.UserID, s.now())
	if err != nil {
		return nil, fromStore(err, "登录设备")
	}
	return tokens, nil
}

// LogoutDevice 下线当前用户的指定设备
func (s *AuthService) LogoutDevice(ctx context.Context, actor Actor, deviceID uint) error {
	return fromStore(s.store.DeleteToken(ctx, actor.UserID, deviceID), "登录设备")
}

// ForceLogout 管理员强制指定用户的所有设备下线
func (s *AuthService) ForceLogout(ctx context.Context, actor Actor, userID uint) error {
	if err := actor.require(models.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return fromStore(err, "用户")
	}
	if err := s.store.DeleteUserTokens(ctx, userID); err != nil {
		return fromStore(err, "令牌")
	}
	log.Info().Uint("admin_id", actor.UserID).Uint("user_id", userID).Msg("管理员强制用户下线")
	return nil
}

// CreateAdmin 创建管理员账号，只在启动时根据配置调用
// 邮箱已存在时直接返回已有用户
func (s *AuthService) CreateAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if existing, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fromStore(err, "用户")
	}
	if len(password) < 6 {
		return nil, newError(KindValidation, "管理员密码至少6位")
	}

	admin := &models.User{Email: email, Name: "admin", Role: models.RoleAdmin, Status: models.UserStatusActive}
	if err := admin.SetPassword(password); err != nil {
		return nil, errors.Wrap(err, "密码加密失败")
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return nil, fromStore(err, "用户")
	}
	return admin, nil
}
