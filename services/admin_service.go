package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"foodconnect/models"
	"foodconnect/store"
)

// AdminService 平台管理
type AdminService struct {
	deps
}

// Stats 平台统计数据
type Stats struct {
	CampaignsByStatus map[models.CampaignStatus]int64 `json:"campaigns_by_status"` // 各状态活动数
	Commissions       models.CommissionSummary         `json:"commissions"`         // 佣金汇总
}

// ListUsers 分页查询用户
func (s *AdminService) ListUsers(ctx context.Context, actor Actor, query models.UserQuery) ([]models.User, int64, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, 0, err
	}
	if query.Role != "" && !query.Role.Valid() {
		return nil, 0, newError(KindValidation, "无效的角色: %s", query.Role)
	}
	users, total, err := s.store.ListUsers(ctx, store.UserFilter{
		Role:     query.Role,
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return nil, 0, fromStore(err, "用户")
	}
	return users, total, nil
}

// SetUserStatus 停用或恢复用户，停用时同时清除其所有登录令牌
func (s *AdminService) SetUserStatus(ctx context.Context, actor Actor, userID uint, status string) (*models.User, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	if status != models.UserStatusActive && status != models.UserStatusSuspended {
		return nil, newError(KindValidation, "无效的用户状态: %s", status)
	}
	if userID == actor.UserID {
		return nil, newError(KindValidation, "不能修改自己的状态")
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return fromStore(err, "用户")
		}
		u.Status = status
		if err := tx.UpdateUser(ctx, u); err != nil {
			return fromStore(err, "用户")
		}
		if status == models.UserStatusSuspended {
			if err := tx.DeleteUserTokens(ctx, u.ID); err != nil {
				return fromStore(err, "令牌")
			}
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Uint("admin_id", actor.UserID).Uint("user_id", userID).Str("status", status).Msg("用户状态已变更")
	return user, nil
}

// Stats 返回各状态活动数和佣金汇总
func (s *AdminService) Stats(ctx context.Context, actor Actor) (*Stats, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	counts, err := s.store.CountCampaignsByStatus(ctx)
	if err != nil {
		return nil, fromStore(err, "活动")
	}
	commissions, err := s.store.ListCommissions(ctx, store.CommissionFilter{})
	if err != nil {
		return nil, fromStore(err, "佣金")
	}

	stats := &Stats{CampaignsByStatus: counts}
	for _, commission := range commissions {
		stats.Commissions.Add(commission)
	}
	return stats, nil
}
