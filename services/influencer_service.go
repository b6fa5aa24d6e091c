package services

import (
	"context"
	"strings"

	"foodconnect/models"
	"foodconnect/store"
)

// InfluencerService 网红资料和粉丝数审核
// 分级只由粉丝数推导，每次写入粉丝数都会重新计算
type InfluencerService struct {
	deps
}

// InfluencerInput 修改网红资料的参数
type InfluencerInput struct {
	DisplayName        string `json:"display_name"`
	Bio                string `json:"bio"`
	Location           string `json:"location"`
	Niche              string `json:"niche"`
	Phone              string `json:"phone"`
	InstagramHandle    string `json:"instagram_handle"`
	InstagramFollowers int    `json:"instagram_followers"`
	TikTokHandle       string `json:"tiktok_handle"`
	TikTokFollowers    int    `json:"tiktok_followers"`
	XHSHandle          string `json:"xhs_handle"`
	XHSFollowers       int    `json:"xhs_followers"`
	YouTubeHandle      string `json:"youtube_handle"`
	YouTubeFollowers   int    `json:"youtube_followers"`
}

// FollowerChangeInput 粉丝数变更申请参数
type FollowerChangeInput struct {
	Platform models.Platform `json:"platform"`
	NewCount int             `json:"new_count"`
	Evidence string          `json:"evidence"`
}

// GetOwn 查询当前网红的资料
func (s *InfluencerService) GetOwn(ctx context.Context, actor Actor) (*models.Influencer, error) {
	return influencerOf(ctx, s.store, actor)
}

// Get 按ID查询网红
func (s *InfluencerService) Get(ctx context.Context, id uint) (*models.Influencer, error) {
	influencer, err := s.store.GetInfluencer(ctx, id)
	if err != nil {
		return nil, fromStore(err, "网红")
	}
	return influencer, nil
}

// List 按分级和城市筛选网红
func (s *InfluencerService) List(ctx context.Context, query models.InfluencerQuery) ([]models.Influencer, int64, error) {
	if query.Tier != "" && !query.Tier.Valid() {
		return nil, 0, newError(KindValidation, "无效的分级: %s", query.Tier)
	}
	influencers, total, err := s.store.ListInfluencers(ctx, store.InfluencerFilter{
		Tier:     query.Tier,
		Location: strings.TrimSpace(query.Location),
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return nil, 0, fromStore(err, "网红")
	}
	return influencers, total, nil
}

// UpdateOwn 修改当前网红的资料并重新计算分级
func (s *InfluencerService) UpdateOwn(ctx context.Context, actor Actor, input InfluencerInput) (*models.Influencer, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, newError(KindValidation, "展示名称不能为空")
	}
	if input.InstagramFollowers < 0 || input.TikTokFollowers < 0 || input.XHSFollowers < 0 || input.YouTubeFollowers < 0 {
		return nil, newError(KindValidation, "粉丝数不能为负数")
	}
	influencer, err := influencerOf(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}

	influencer.DisplayName = name
	influencer.Bio = input.Bio
	influencer.Location = strings.TrimSpace(input.Location)
	influencer.Niche = input.Niche
	influencer.Phone = input.Phone
	influencer.InstagramHandle = input.InstagramHandle
	influencer.InstagramFollowers = input.InstagramFollowers
	influencer.TikTokHandle = input.TikTokHandle
	influencer.TikTokFollowers = input.TikTokFollowers
	influencer.XHSHandle = input.XHSHandle
	influencer.XHSFollowers = input.XHSFollowers
	influencer.YouTubeHandle = input.YouTubeHandle
	influencer.YouTubeFollowers = input.YouTubeFollowers
	influencer.RefreshTier()

	if err := s.store.UpdateInfluencer(ctx, influencer); err != nil {
		return nil, fromStore(err, "网红")
	}
	return influencer, nil
}

// RequestFollowerChange 网红提交粉丝数变更申请，等待管理员审核
func (s *InfluencerService) RequestFollowerChange(ctx context.Context, actor Actor, input FollowerChangeInput) (*models.FollowerChangeRequest, error) {
	if !input.Platform.Valid() {
		return nil, newError(KindValidation, "不支持的平台: %s", input.Platform)
	}
	if input.NewCount < 0 {
		return nil, newError(KindValidation, "粉丝数不能为负数")
	}
	influencer, err := influencerOf(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}

	request := &models.FollowerChangeRequest{
		InfluencerID: influencer.ID,
		Platform:     input.Platform,
		OldCount:     influencer.Followers(input.Platform),
		NewCount:     input.NewCount,
		Evidence:     strings.TrimSpace(input.Evidence),
		Status:       models.ChangePending,
	}
	if err := s.store.CreateFollowerChange(ctx, request); err != nil {
		return nil, fromStore(err, "粉丝数变更申请")
	}
	return request, nil
}

// ListFollowerChanges 管理员按状态查看粉丝数变更申请
func (s *InfluencerService) ListFollowerChanges(ctx context.Context, actor Actor, status string) ([]models.FollowerChangeRequest, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	requests, err := s.store.ListFollowerChanges(ctx, status)
	if err != nil {
		return nil, fromStore(err, "粉丝数变更申请")
	}
	return requests, nil
}

// ReviewFollowerChange 管理员审核粉丝数变更申请
// 通过时在同一事务内更新粉丝数并重新计算分级
func (s *InfluencerService) ReviewFollowerChange(ctx context.Context, actor Actor, id uint, approve bool, note string) (*models.FollowerChangeRequest, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}

	var request *models.FollowerChangeRequest
	var influencer *models.Influencer
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		r, err := tx.GetFollowerChange(ctx, id)
		if err != nil {
			return fromStore(err, "粉丝数变更申请")
		}
		if r.Status != models.ChangePending {
			return newError(KindInvalidState, "申请已处理，当前状态为%s", r.Status)
		}

		now := s.now()
		reviewer := actor.UserID
		r.ReviewerID = &reviewer
		r.ReviewNote = strings.TrimSpace(note)
		r.ReviewedAt = &now
		r.Status = models.ChangeRejected

		inf, err := tx.GetInfluencer(ctx, r.InfluencerID)
		if err != nil {
			return fromStore(err, "网红")
		}
		if approve {
			r.Status = models.ChangeApproved
			inf.SetFollowers(r.Platform, r.NewCount)
			if err := tx.UpdateInfluencer(ctx, inf); err != nil {
				return fromStore(err, "网红")
			}
		}
		if err := tx.UpdateFollowerChange(ctx, r); err != nil {
			return fromStore(err, "粉丝数变更申请")
		}
		request, influencer = r, inf
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, influencer.UserID, models.NotifyFollowerChange, map[string]interface{}{
		"request_id": request.ID,
		"platform":   request.Platform,
		"status":     request.Status,
		"tier":       influencer.Tier,
	})
	return request, nil
}
