package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"foodconnect/metrics"
	"foodconnect/models"
	"foodconnect/store"
)

// ApplicationService 报名流程
// 报名和录用都在锁住活动行的事务内完成，已录用人数永远不会超过活动名额
type ApplicationService struct {
	deps
}

// rejected 记录被业务规则拒绝的次数
func rejected(err error) error {
	if kind := KindOf(err); kind != KindInternal {
		metrics.ApplicationRejections.WithLabelValues(string(kind)).Inc()
	}
	return err
}

// Apply 网红报名活动
// 前置条件按顺序检查，第一个不满足的条件决定返回的错误：
//  1. 活动存在
//  2. 活动处于可报名状态
//  3. 报名截止时间未过
//  4. 调用者有网红资料
//  5. 没有重复报名
//  6. 已录用人数小于名额
func (s *ApplicationService) Apply(ctx context.Context, actor Actor, campaignID uint, message string) (*models.Application, error) {
	if err := actor.require(models.RoleInfluencer); err != nil {
		return nil, err
	}

	var application *models.Application
	var campaign *models.Campaign
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		c, err := tx.LockCampaign(ctx, campaignID)
		if err != nil {
			return fromStore(err, "活动")
		}
		if !c.Status.AcceptsApplications() {
			return newError(KindInvalidState, "活动当前状态为%s，不接受报名", c.Status)
		}
		now := s.now()
		if c.DeadlinePassed(now) {
			return newError(KindExpired, "活动报名已于%s截止", c.Deadline.Format("2006-01-02 15:04"))
		}
		influencer, err := tx.GetInfluencerByUser(ctx, actor.UserID)
		if err != nil {
			return fromStore(err, "网红资料")
		}
		if _, err := tx.FindApplication(ctx, c.ID, influencer.ID); err == nil {
			return newError(KindConflict, "已经报名过该活动")
		} else if !errors.Is(err, store.ErrNotFound) {
			return fromStore(err, "报名")
		}
		accepted, err := tx.CountApplications(ctx, store.ApplicationFilter{CampaignID: c.ID, Status: models.ApplicationAccepted})
		if err != nil {
			return fromStore(err, "报名")
		}
		if accepted >= int64(c.MaxInfluencers) {
			return newError(KindCapacity, "活动名额已满")
		}

		a := &models.Application{
			CampaignID:   c.ID,
			InfluencerID: influencer.ID,
			Message:      strings.TrimSpace(message),
			Status:       models.ApplicationPending,
			AppliedAt:    now,
		}
		if err := tx.CreateApplication(ctx, a); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return newError(KindConflict, "已经报名过该活动")
			}
			return fromStore(err, "报名")
		}
		application, campaign = a, c
		return nil
	})
	if err != nil {
		return nil, rejected(err)
	}

	metrics.ApplicationsSubmitted.Inc()
	notify(ctx, s.notifier, restaurantUserID(ctx, s.store, campaign.RestaurantID), models.NotifyApplicationReceived, map[string]interface{}{
		"campaign_id":    campaign.ID,
		"campaign_title": campaign.Title,
		"application_id": application.ID,
		"influencer_id":  application.InfluencerID,
	})
	return application, nil
}

// UpdateStatus 餐厅审核报名
// 录用时重新检查名额，统计时排除当前这条报名；首次录用会把活动推进到进行中
// 事务内第一步锁住活动，之后的读取都能看到其他事务已提交的录用
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor Actor, applicationID uint, status models.ApplicationStatus) (*models.Application, error) {
	if status != models.ApplicationAccepted && status != models.ApplicationRejected {
		return nil, newError(KindValidation, "报名状态只能改为accepted或rejected")
	}
	campaignID, err := s.campaignOf(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	var application *models.Application
	changed := false
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		c, err := loadOwned(ctx, tx, actor, campaignID, true, false)
		if err != nil {
			return err
		}
		a, err := tx.GetApplication(ctx, applicationID)
		if err != nil {
			return fromStore(err, "报名")
		}
		if !c.Status.AcceptsApplications() {
			return newError(KindInvalidState, "活动当前状态为%s，不能审核报名", c.Status)
		}
		if a.Status == status {
			application = a
			return nil
		}

		if status == models.ApplicationAccepted {
			accepted, err := tx.CountApplications(ctx, store.ApplicationFilter{
				CampaignID: c.ID,
				Status:     models.ApplicationAccepted,
				ExcludeID:  a.ID,
			})
			if err != nil {
				return fromStore(err, "报名")
			}
			if accepted >= int64(c.MaxInfluencers) {
				return newError(KindCapacity, "活动名额已满，最多录用%d人", c.MaxInfluencers)
			}
		}

		now := s.now()
		a.Status = status
		a.DecidedAt = &now
		if err := tx.UpdateApplication(ctx, a); err != nil {
			return fromStore(err, "报名")
		}

		if status == models.ApplicationAccepted && c.Status != models.CampaignInProgress {
			if c.Status == models.CampaignPublished {
				if err := transition(c, models.CampaignApplicationsOpen, now); err != nil {
					return err
				}
			}
			if err := transition(c, models.CampaignInProgress, now); err != nil {
				return err
			}
			if err := tx.UpdateCampaign(ctx, c); err != nil {
				return fromStore(err, "活动")
			}
			metrics.CampaignTransitions.WithLabelValues(string(models.CampaignInProgress)).Inc()
		}
		application, changed = a, true
		return nil
	})
	if err != nil {
		return nil, rejected(err)
	}
	if !changed {
		return application, nil
	}

	metrics.ApplicationDecisions.WithLabelValues(string(status)).Inc()
	kind := models.NotifyApplicationAccepted
	if status == models.ApplicationRejected {
		kind = models.NotifyApplicationRejected
	}
	notify(ctx, s.notifier, influencerUserID(ctx, s.store, application.InfluencerID), kind, map[string]interface{}{
		"campaign_id":    application.CampaignID,
		"application_id": application.ID,
		"status":         application.Status,
	})
	return application, nil
}

// campaignOf 返回报名所属的活动ID，供事务开始前确定要锁的活动
func (s *ApplicationService) campaignOf(ctx context.Context, applicationID uint) (uint, error) {
	a, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return 0, fromStore(err, "报名")
	}
	return a.CampaignID, nil
}

// Withdraw 网红撤回自己的报名，只有待审核的报名可以撤回
// 与录用一样先锁活动，删除时再按状态过滤，并发录用后的报名不会被删掉
func (s *ApplicationService) Withdraw(ctx context.Context, actor Actor, applicationID uint) error {
	influencer, err := influencerOf(ctx, s.store, actor)
	if err != nil {
		return err
	}
	campaignID, err := s.campaignOf(ctx, applicationID)
	if err != nil {
		return err
	}

	var application *models.Application
	var restaurantUser uint
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		c, err := tx.LockCampaign(ctx, campaignID)
		if err != nil {
			return fromStore(err, "活动")
		}
		a, err := tx.GetApplication(ctx, applicationID)
		if err != nil {
			return fromStore(err, "报名")
		}
		if a.InfluencerID != influencer.ID {
			return newError(KindAuthorization, "只能撤回自己的报名")
		}
		if a.Status != models.ApplicationPending {
			return newError(KindInvalidState, "报名状态为%s，不能撤回", a.Status)
		}
		if err := tx.DeleteApplication(ctx, a.ID, models.ApplicationPending); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return newError(KindInvalidState, "报名状态已变更，不能撤回")
			}
			return fromStore(err, "报名")
		}
		restaurantUser = restaurantUserID(ctx, tx, c.RestaurantID)
		application = a
		return nil
	})
	if err != nil {
		return err
	}

	notify(ctx, s.notifier, restaurantUser, models.NotifyApplicationWithdrawn, map[string]interface{}{
		"campaign_id":    application.CampaignID,
		"application_id": application.ID,
	})
	return nil
}

// Get 查询单条报名，只有报名的网红、活动所属餐厅和管理员可见
func (s *ApplicationService) Get(ctx context.Context, actor Actor, applicationID uint) (*models.Application, error) {
	application, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, fromStore(err, "报名")
	}
	switch actor.Role {
	case models.RoleAdmin:
		return application, nil
	case models.RoleInfluencer:
		influencer, err := influencerOf(ctx, s.store, actor)
		if err != nil {
			return nil, err
		}
		if influencer.ID != application.InfluencerID {
			return nil, newError(KindAuthorization, "无权查看该报名")
		}
		return application, nil
	}
	if _, err := loadOwned(ctx, s.store, actor, application.CampaignID, false, false); err != nil {
		return nil, err
	}
	return application, nil
}

// ListForCampaign 餐厅查看自己活动的报名
func (s *ApplicationService) ListForCampaign(ctx context.Context, actor Actor, campaignID uint, status models.ApplicationStatus) ([]models.Application, error) {
	if status != "" && !status.Valid() {
		return nil, newError(KindValidation, "无效的报名状态: %s", status)
	}
	if _, err := loadOwned(ctx, s.store, actor, campaignID, false, true); err != nil {
		return nil, err
	}
	applications, err := s.store.ListApplications(ctx, store.ApplicationFilter{CampaignID: campaignID, Status: status})
	if err != nil {
		return nil, fromStore(err, "报名")
	}
	return applications, nil
}

// ListOwn 网红查看自己的报名
func (s *ApplicationService) ListOwn(ctx context.Context, actor Actor, status models.ApplicationStatus) ([]models.Application, error) {
	if status != "" && !status.Valid() {
		return nil, newError(KindValidation, "无效的报名状态: %s", status)
	}
	influencer, err := influencerOf(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}
	applications, err := s.store.ListApplications(ctx, store.ApplicationFilter{InfluencerID: influencer.ID, Status: status})
	if err != nil {
		return nil, fromStore(err, "报名")
	}
	return applications, nil
}
