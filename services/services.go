// Package services 实现FoodConnect的业务规则
// 包括网红分级、活动生命周期、报名流程和佣金计算
// 所有服务只依赖store.Store和Notifier接口，不直接访问数据库
package services

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"foodconnect/models"
	"foodconnect/store"
	"foodconnect/utils"
)

// DefaultCommissionRate 未配置时的平台佣金比例（百分比）
const DefaultCommissionRate = 15.0

// Options 业务层配置
type Options struct {
	DefaultCommissionRate float64          // 平台默认佣金比例（百分比）
	TokenTTL              time.Duration    // 登录令牌有效期
	Now                   func() time.Time // 时钟，测试时可替换
}

// Services 所有业务服务的集合
type Services struct {
	Auth          *AuthService
	Restaurants   *RestaurantService
	Influencers   *InfluencerService
	Campaigns     *CampaignService
	Applications  *ApplicationService
	Commissions   *CommissionService
	Notifications *NotificationService
	Admin         *AdminService
}

// deps 各服务共享的依赖
type deps struct {
	store    store.Store
	notifier Notifier
	now      func() time.Time
}

// New 组装所有业务服务
func New(st store.Store, notifier Notifier, jwt *utils.JWTManager, limiter utils.LoginGuard, opts Options) *Services {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultCommissionRate < 0 || opts.DefaultCommissionRate > 100 {
		opts.DefaultCommissionRate = DefaultCommissionRate
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}

	d := deps{store: st, notifier: notifier, now: opts.Now}
	commissions := &CommissionService{deps: d, defaultRate: opts.DefaultCommissionRate}

	return &Services{
		Auth:          &AuthService{deps: d, jwt: jwt, limiter: limiter, tokenTTL: opts.TokenTTL},
		Restaurants:   &RestaurantService{deps: d},
		Influencers:   &InfluencerService{deps: d},
		Campaigns:     &CampaignService{deps: d, commissions: commissions},
		Applications:  &ApplicationService{deps: d},
		Commissions:   commissions,
		Notifications: &NotificationService{deps: d},
		Admin:         &AdminService{deps: d},
	}
}

// restaurantOf 返回调用者的餐厅资料
func restaurantOf(ctx context.Context, st store.Store, actor Actor) (*models.Restaurant, error) {
	if err := actor.require(models.RoleRestaurant); err != nil {
		return nil, err
	}
	restaurant, err := st.GetRestaurantByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fromStore(err, "餐厅资料")
	}
	return restaurant, nil
}

// influencerOf 返回调用者的网红资料
func influencerOf(ctx context.Context, st store.Store, actor Actor) (*models.Influencer, error) {
	if err := actor.require(models.RoleInfluencer); err != nil {
		return nil, err
	}
	influencer, err := st.GetInfluencerByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fromStore(err, "网红资料")
	}
	return influencer, nil
}

// checkRestaurantOwner 校验调用者是否为该餐厅的所有者
func checkRestaurantOwner(ctx context.Context, st store.Store, actor Actor, restaurantID uint) error {
	if actor.Role != models.RoleRestaurant {
		return newError(KindAuthorization, "只有餐厅可以执行该操作")
	}
	restaurant, err := st.GetRestaurantByUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindAuthorization, "当前用户没有餐厅资料")
		}
		return fromStore(err, "餐厅资料")
	}
	if restaurant.ID != restaurantID {
		return newError(KindAuthorization, "只能操作自己餐厅的数据")
	}
	return nil
}

// restaurantUserID 查询餐厅对应的用户ID，用于发送通知
func restaurantUserID(ctx context.Context, st store.Store, restaurantID uint) uint {
	restaurant, err := st.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return 0
	}
	return restaurant.UserID
}

// influencerUserID 查询网红对应的用户ID，用于发送通知
func influencerUserID(ctx context.Context, st store.Store, influencerID uint) uint {
	influencer, err := st.GetInfluencer(ctx, influencerID)
	if err != nil {
		return 0
	}
	return influencer.UserID
}
