package services

import (
	"context"
	"strings"
	"time"

	"foodconnect/metrics"
	"foodconnect/models"
	"foodconnect/store"
)

// CampaignService 活动生命周期
// 状态迁移统一经过transition，非法迁移一律返回InvalidState且不产生任何副作用
type CampaignService struct {
	deps
	commissions *CommissionService
}

// CampaignInput 创建或修改活动的参数
type CampaignInput struct {
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	BudgetPerInfluencer float64       `json:"budget_per_influencer"`
	MealValue           *float64      `json:"meal_value"`
	MaxInfluencers      int           `json:"max_influencers"`
	Requirements        string        `json:"requirements"`
	Location            string        `json:"location"`
	Deadline            *time.Time    `json:"deadline"`
	TargetTiers         []models.Tier `json:"target_tiers"`
}

func (in *CampaignInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Requirements = strings.TrimSpace(in.Requirements)
	if in.MaxInfluencers < 1 {
		return newError(KindValidation, "最多录用人数至少为1")
	}
	if in.BudgetPerInfluencer < 0 {
		return newError(KindValidation, "预算不能为负数")
	}
	if in.MealValue != nil && *in.MealValue < 0 {
		return newError(KindValidation, "餐饮价值不能为负数")
	}
	for _, tier := range in.TargetTiers {
		if !tier.Valid() {
			return newError(KindValidation, "无效的目标分级: %s", tier)
		}
	}
	return nil
}

func (in *CampaignInput) apply(c *models.Campaign) {
	c.Title = in.Title
	c.Description = in.Description
	c.BudgetPerInfluencer = in.BudgetPerInfluencer
	c.MealValue = in.MealValue
	c.MaxInfluencers = in.MaxInfluencers
	c.Requirements = in.Requirements
	c.Location = strings.TrimSpace(in.Location)
	c.Deadline = in.Deadline
	c.SetTierSet(in.TargetTiers)
}

// checkPublishable 发布前必须填写标题、预算和内容要求
func checkPublishable(c *models.Campaign) error {
	if c.Title == "" || c.BudgetPerInfluencer <= 0 || c.Requirements == "" {
		return newError(KindValidation, "发布前需要填写标题、预算和内容要求")
	}
	return nil
}

// transition 执行一次状态迁移并记录时间
func transition(c *models.Campaign, to models.CampaignStatus, now time.Time) error {
	if !c.Status.CanTransition(to) {
		return newError(KindInvalidState, "活动当前状态为%s，不能变更为%s", c.Status, to)
	}
	c.Status = to
	switch to {
	case models.CampaignPublished:
		c.PublishedAt = &now
	case models.CampaignCompleted:
		c.CompletedAt = &now
	case models.CampaignPaid:
		c.PaidAt = &now
	case models.CampaignClosed:
		c.ClosedAt = &now
	}
	return nil
}

// loadOwned 读取活动并校验调用者是否为所属餐厅，allowAdmin为true时管理员也可操作
func loadOwned(ctx context.Context, st store.Store, actor Actor, id uint, lock, allowAdmin bool) (*models.Campaign, error) {
	var campaign *models.Campaign
	var err error
	if lock {
		campaign, err = st.LockCampaign(ctx, id)
	} else {
		campaign, err = st.GetCampaign(ctx, id)
	}
	if err != nil {
		return nil, fromStore(err, "活动")
	}
	if allowAdmin && actor.IsAdmin() {
		return campaign, nil
	}
	if err := checkRestaurantOwner(ctx, st, actor, campaign.RestaurantID); err != nil {
		return nil, err
	}
	return campaign, nil
}

// Create 餐厅创建活动，初始状态为草稿
func (s *CampaignService) Create(ctx context.Context, actor Actor, input CampaignInput) (*models.Campaign, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	restaurant, err := restaurantOf(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}

	campaign := &models.Campaign{RestaurantID: restaurant.ID, Status: models.CampaignDraft}
	input.apply(campaign)
	if err := s.store.CreateCampaign(ctx, campaign); err != nil {
		return nil, fromStore(err, "活动")
	}
	return campaign, nil
}

// Update 修改活动内容，只允许草稿和已发布状态
func (s *CampaignService) Update(ctx context.Context, actor Actor, id uint, input CampaignInput) (*models.Campaign, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var campaign *models.Campaign
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		c, err := loadOwned(ctx, tx, actor, id, true, false)
		if err != nil {
			return err
		}
		if !c.Status.Editable() {
			return newError(KindInvalidState, "活动当前状态为%s，不能修改", c.Status)
		}
		input.apply(c)
		if c.Status == models.CampaignPublished {
			if err := checkPublishable(c); err != nil {
				return err
			}
			// 已有录用时不能把名额改到录用人数以下
			accepted, err := tx.CountApplications(ctx, store.ApplicationFilter{CampaignID: c.ID, Status: models.ApplicationAccepted})
			if err != nil {
				return fromStore(err, "报名")
			}
			if int64(c.MaxInfluencers) < accepted {
				return newError(KindCapacity, "最多录用人数不能少于已录用人数%d", accepted)
			}
		}
		if err := tx.UpdateCampaign(ctx, c); err != nil {
			return fromStore(err, "活动")
		}
		campaign = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

// Get 查询单个活动
func (s *CampaignService) Get(ctx context.Context, id uint) (*models.Campaign, error) {
	campaign, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, fromStore(err, "活动")
	}
	return campaign, nil
}

// List 查询活动列表，非管理员未指定状态时只返回可报名的活动
func (s *CampaignService) List(ctx context.Context, actor Actor, query models.CampaignQuery) ([]models.Campaign, int64, error) {
	filter := store.CampaignFilter{
		RestaurantID: query.RestaurantID,
		Location:     query.Location,
		Tier:         query.Tier,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if query.Status != "" {
		for _, part := range strings.Split(query.Status, ",") {
			status := models.CampaignStatus(strings.TrimSpace(part))
			if !status.Valid() {
				return nil, 0, newError(KindValidation, "无效的活动状态: %s", part)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	} else if !actor.IsAdmin() {
		filter.Statuses = models.OpenStatuses
	}

	campaigns, total, err := s.store.ListCampaigns(ctx, filter)
	if err != nil {
		return nil, 0, fromStore(err, "活动")
	}
	return campaigns, total, nil
}

// ListOwn 餐厅查询自己的所有活动
func (s *CampaignService) ListOwn(ctx context.Context, actor Actor, page, pageSize int) ([]models.Campaign, int64, error) {
	restaurant, err := restaurantOf(ctx, s.store, actor)
	if err != nil {
		return nil, 0, err
	}
	campaigns, total, err := s.store.ListCampaigns(ctx, store.CampaignFilter{RestaurantID: restaurant.ID, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, fromStore(err, "活动")
	}
	return campaigns, total, nil
}

// Matching 分页返回当前网红可以报名的活动
// 条件：状态可报名、面向该网红的分级、截止时间未过，全部在查询中过滤
func (s *CampaignService) Matching(ctx context.Context, actor Actor, page, pageSize int) ([]models.Campaign, int64, error) {
	influencer, err := influencerOf(ctx, s.store, actor)
	if err != nil {
		return nil, 0, err
	}
	campaigns, total, err := s.store.ListCampaigns(ctx, store.CampaignFilter{
		Statuses: models.OpenStatuses,
		Tier:     influencer.Tier,
		OpenAt:   s.now(),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, fromStore(err, "活动")
	}
	return campaigns, total, nil
}

// changeStatus 在事务内加锁读取活动、执行迁移并保存
func (s *CampaignService) changeStatus(ctx context.Context, actor Actor, id uint, to models.CampaignStatus, allowAdmin bool,
	before func(tx store.Store, c *models.Campaign) error, after func(tx store.Store, c *models.Campaign) error) (*models.Campaign, error) {
	var campaign *models.Campaign
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		c, err := loadOwned(ctx, tx, actor, id, true, allowAdmin)
		if err != nil {
			return err
		}
		if before != nil {
			if err := before(tx, c); err != nil {
				return err
			}
		}
		if err := transition(c, to, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateCampaign(ctx, c); err != nil {
			return fromStore(err, "活动")
		}
		if after != nil {
			if err := after(tx, c); err != nil {
				return err
			}
		}
		campaign = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.CampaignTransitions.WithLabelValues(string(to)).Inc()
	return campaign, nil
}

// Publish 草稿 -> 已发布
func (s *CampaignService) Publish(ctx context.Context, actor Actor, id uint) (*models.Campaign, error) {
	return s.changeStatus(ctx, actor, id, models.CampaignPublished, false, func(_ store.Store, c *models.Campaign) error {
		if c.Status != models.CampaignDraft {
			return nil
		}
		return checkPublishable(c)
	}, nil)
}

// OpenApplications 已发布 -> 开放报名
func (s *CampaignService) OpenApplications(ctx context.Context, actor Actor, id uint) (*models.Campaign, error) {
	return s.changeStatus(ctx, actor, id, models.CampaignApplicationsOpen, false, nil, nil)
}

// Close 餐厅提前关闭活动，已结清的活动不能关闭
func (s *CampaignService) Close(ctx context.Context, actor Actor, id uint) (*models.Campaign, error) {
	var affected []models.Application
	campaign, err := s.changeStatus(ctx, actor, id, models.CampaignClosed, false, nil, func(tx store.Store, c *models.Campaign) error {
		applications, err := tx.ListApplications(ctx, store.ApplicationFilter{CampaignID: c.ID})
		if err != nil {
			return fromStore(err, "报名")
		}
		affected = applications
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, application := range affected {
		if application.Status == models.ApplicationRejected {
			continue
		}
		notify(ctx, s.notifier, influencerUserID(ctx, s.store, application.InfluencerID), models.NotifyCampaignClosed, map[string]interface{}{
			"campaign_id":    campaign.ID,
			"campaign_title": campaign.Title,
		})
	}
	return campaign, nil
}

// Complete 进行中 -> 已完成，同一事务内为已录用的网红生成佣金
func (s *CampaignService) Complete(ctx context.Context, actor Actor, id uint) (*models.Campaign, []models.Commission, error) {
	var created []models.Commission
	campaign, err := s.changeStatus(ctx, actor, id, models.CampaignCompleted, false, nil, func(tx store.Store, c *models.Campaign) error {
		var err error
		created, err = s.commissions.generate(ctx, tx, c, s.commissions.defaultRate)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.commissions.recordCreated(created)
	for _, commission := range created {
		notify(ctx, s.notifier, influencerUserID(ctx, s.store, commission.InfluencerID), models.NotifyCampaignCompleted, map[string]interface{}{
			"campaign_id":       campaign.ID,
			"campaign_title":    campaign.Title,
			"commission_id":     commission.ID,
			"commission_amount": commission.CommissionAmount,
		})
	}
	return campaign, created, nil
}

// MarkPaid 已完成 -> 已结清，同时把该活动下未支付的佣金标记为已支付
func (s *CampaignService) MarkPaid(ctx context.Context, actor Actor, id uint) (*models.Campaign, error) {
	var settled []models.Commission
	campaign, err := s.changeStatus(ctx, actor, id, models.CampaignPaid, true, nil, func(tx store.Store, c *models.Campaign) error {
		commissions, err := tx.ListCommissions(ctx, store.CommissionFilter{CampaignID: c.ID})
		if err != nil {
			return fromStore(err, "佣金")
		}
		for i := range commissions {
			commission := commissions[i]
			if commission.Status == models.CommissionPaid {
				continue
			}
			paidAt := *c.PaidAt
			commission.Status = models.CommissionPaid
			commission.PaidAt = &paidAt
			if err := tx.UpdateCommission(ctx, &commission); err != nil {
				return fromStore(err, "佣金")
			}
			settled = append(settled, commission)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, commission := range settled {
		notify(ctx, s.notifier, influencerUserID(ctx, s.store, commission.InfluencerID), models.NotifyCommissionUpdated, map[string]interface{}{
			"commission_id": commission.ID,
			"status":        commission.Status,
		})
	}
	return campaign, nil
}

// Delete 删除活动
// 只要存在任何报名就返回Conflict，否则只允许删除草稿或已发布的活动
func (s *CampaignService) Delete(ctx context.Context, actor Actor, id uint) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		c, err := loadOwned(ctx, tx, actor, id, true, false)
		if err != nil {
			return err
		}
		count, err := tx.CountApplications(ctx, store.ApplicationFilter{CampaignID: c.ID})
		if err != nil {
			return fromStore(err, "报名")
		}
		if count > 0 {
			return newError(KindConflict, "活动已有%d条报名，不能删除，请改为关闭", count)
		}
		if c.Status != models.CampaignDraft && c.Status != models.CampaignPublished {
			return newError(KindInvalidState, "活动当前状态为%s，不能删除", c.Status)
		}
		return fromStore(tx.DeleteCampaign(ctx, c.ID), "活动")
	})
}
