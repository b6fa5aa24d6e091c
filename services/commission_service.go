package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"foodconnect/metrics"
	"foodconnect/models"
	"foodconnect/store"
	"foodconnect/utils"
)

// CommissionService 平台佣金计算
type CommissionService struct {
	deps
	defaultRate float64
}

// DefaultRate 返回平台默认佣金比例
func (s *CommissionService) DefaultRate() float64 {
	return s.defaultRate
}

// generate 为活动中每个已录用且还没有佣金的网红生成佣金，返回本次新建的记录
// 必须在事务内调用；已有佣金保持原样，重复调用不会产生新记录
func (s *CommissionService) generate(ctx context.Context, tx store.Store, c *models.Campaign, rate float64) ([]models.Commission, error) {
	if rate < 0 || rate > 100 {
		return nil, newError(KindValidation, "佣金比例必须在0到100之间")
	}

	applications, err := tx.ListApplications(ctx, store.ApplicationFilter{CampaignID: c.ID, Status: models.ApplicationAccepted})
	if err != nil {
		return nil, fromStore(err, "报名")
	}

	var created []models.Commission
	for _, application := range applications {
		if _, err := tx.FindCommission(ctx, c.ID, application.InfluencerID); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fromStore(err, "佣金")
		}

		commission := models.Commission{
			CommissionNo:     utils.GenerateCommissionNo(),
			CampaignID:       c.ID,
			InfluencerID:     application.InfluencerID,
			RestaurantID:     c.RestaurantID,
			ApplicationID:    application.ID,
			CampaignAmount:   c.BudgetPerInfluencer,
			CommissionRate:   rate,
			CommissionAmount: models.CalculateCommission(c.BudgetPerInfluencer, rate),
			Status:           models.CommissionPending,
		}
		if err := tx.CreateCommission(ctx, &commission); err != nil {
			// 并发生成时唯一索引兜底，已存在的记录视为成功
			if errors.Is(err, store.ErrDuplicate) {
				continue
			}
			return nil, fromStore(err, "佣金")
		}
		created = append(created, commission)
	}
	return created, nil
}

// recordCreated 提交成功后更新佣金指标
func (s *CommissionService) recordCreated(created []models.Commission) {
	for _, commission := range created {
		metrics.CommissionsGenerated.Inc()
		metrics.CommissionAmount.Add(commission.CommissionAmount)
		log.Info().
			Str("commission_no", commission.CommissionNo).
			Uint("campaign_id", commission.CampaignID).
			Uint("influencer_id", commission.InfluencerID).
			Float64("amount", commission.CommissionAmount).
			Msg("佣金已生成")
	}
}

// GenerateCommissions 为已完成的活动补齐佣金，返回该活动的全部佣金
// rate为nil时使用平台默认比例；已存在的佣金不会被修改，可以安全地重复调用
func (s *CommissionService) GenerateCommissions(ctx context.Context, actor Actor, campaignID uint, rate *float64) ([]models.Commission, error) {
	effective := s.defaultRate
	if rate != nil {
		effective = *rate
	}

	var created, all []models.Commission
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		c, err := loadOwned(ctx, tx, actor, campaignID, true, true)
		if err != nil {
			return err
		}
		if c.Status != models.CampaignCompleted {
			return newError(KindInvalidState, "活动当前状态为%s，只有已完成的活动可以生成佣金", c.Status)
		}
		if created, err = s.generate(ctx, tx, c, effective); err != nil {
			return err
		}
		all, err = tx.ListCommissions(ctx, store.CommissionFilter{CampaignID: c.ID})
		if err != nil {
			return fromStore(err, "佣金")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordCreated(created)
	for _, commission := range created {
		notify(ctx, s.notifier, influencerUserID(ctx, s.store, commission.InfluencerID), models.NotifyCommissionCreated, map[string]interface{}{
			"campaign_id":       commission.CampaignID,
			"commission_id":     commission.ID,
			"commission_amount": commission.CommissionAmount,
		})
	}
	return all, nil
}

// canView 判断调用者是否可以查看该佣金
func (s *CommissionService) canView(ctx context.Context, actor Actor, commission *models.Commission) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleInfluencer:
		influencer, err := influencerOf(ctx, s.store, actor)
		if err != nil {
			return err
		}
		if influencer.ID != commission.InfluencerID {
			return newError(KindAuthorization, "无权查看该佣金")
		}
		return nil
	}
	return checkRestaurantOwner(ctx, s.store, actor, commission.RestaurantID)
}

// Get 查询单条佣金
func (s *CommissionService) Get(ctx context.Context, actor Actor, id uint) (*models.Commission, error) {
	commission, err := s.store.GetCommission(ctx, id)
	if err != nil {
		return nil, fromStore(err, "佣金")
	}
	if err := s.canView(ctx, actor, commission); err != nil {
		return nil, err
	}
	return commission, nil
}

// UpdateStatus 推进佣金状态，只有活动所属餐厅和管理员可以操作
// 状态只能向前推进：pending -> approved -> paid，或者 pending -> paid
func (s *CommissionService) UpdateStatus(ctx context.Context, actor Actor, id uint, status models.CommissionStatus) (*models.Commission, error) {
	if !status.Valid() {
		return nil, newError(KindValidation, "无效的佣金状态: %s", status)
	}

	existing, err := s.store.GetCommission(ctx, id)
	if err != nil {
		return nil, fromStore(err, "佣金")
	}

	var commission *models.Commission
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		// 与活动结算共用活动行锁，锁住后再读取佣金的最新状态
		if _, err := tx.LockCampaign(ctx, existing.CampaignID); err != nil {
			return fromStore(err, "活动")
		}
		cm, err := tx.GetCommission(ctx, id)
		if err != nil {
			return fromStore(err, "佣金")
		}
		if !actor.IsAdmin() {
			if err := checkRestaurantOwner(ctx, tx, actor, cm.RestaurantID); err != nil {
				return err
			}
		}
		if !cm.Status.CanTransition(status) {
			return newError(KindInvalidState, "佣金当前状态为%s，不能变更为%s", cm.Status, status)
		}

		now := s.now()
		cm.Status = status
		switch status {
		case models.CommissionApproved:
			cm.ApprovedAt = &now
		case models.CommissionPaid:
			cm.PaidAt = &now
		}
		if err := tx.UpdateCommission(ctx, cm); err != nil {
			return fromStore(err, "佣金")
		}
		commission = cm
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, influencerUserID(ctx, s.store, commission.InfluencerID), models.NotifyCommissionUpdated, map[string]interface{}{
		"commission_id": commission.ID,
		"status":        commission.Status,
	})
	return commission, nil
}

// List 查询佣金列表
// 管理员可以查看全部，餐厅只能查看自己的，网红只能查看自己的
func (s *CommissionService) List(ctx context.Context, actor Actor, filter store.CommissionFilter) ([]models.Commission, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, newError(KindValidation, "无效的佣金状态: %s", filter.Status)
	}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleRestaurant:
		restaurant, err := restaurantOf(ctx, s.store, actor)
		if err != nil {
			return nil, err
		}
		filter.RestaurantID = restaurant.ID
	case models.RoleInfluencer:
		influencer, err := influencerOf(ctx, s.store, actor)
		if err != nil {
			return nil, err
		}
		filter.InfluencerID = influencer.ID
	default:
		return nil, newError(KindAuthorization, "无权查看佣金")
	}

	commissions, err := s.store.ListCommissions(ctx, filter)
	if err != nil {
		return nil, fromStore(err, "佣金")
	}
	return commissions, nil
}

// Summary 按状态汇总调用者可见的佣金金额
func (s *CommissionService) Summary(ctx context.Context, actor Actor, filter store.CommissionFilter) (*models.CommissionSummary, error) {
	commissions, err := s.List(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	summary := &models.CommissionSummary{}
	for _, commission := range commissions {
		summary.Add(commission)
	}
	return summary, nil
}
