// Package store 定义持久化层接口
// 业务层只依赖Store接口，具体实现可以是MySQL（gorm）或者本地JSON文件
// 两种实现都必须保证报名和佣金在(campaign_id, influencer_id)上的唯一性
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"foodconnect/models"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("store: duplicate record")
)

// CampaignFilter 活动查询条件
type CampaignFilter struct {
	RestaurantID uint
	Statuses     []models.CampaignStatus
	Location     string
	Tier         models.Tier
	OpenAt       time.Time // 非零时排除截止时间不晚于该时刻的活动
	Page         int
	PageSize     int
}

// ApplicationFilter 报名查询条件
// ExcludeID用于容量校验时排除正在更新的报名本身
type ApplicationFilter struct {
	CampaignID   uint
	InfluencerID uint
	Status       models.ApplicationStatus
	ExcludeID    uint
}

// CommissionFilter 佣金查询条件
type CommissionFilter struct {
	CampaignID   uint
	RestaurantID uint
	InfluencerID uint
	Status       models.CommissionStatus
}

// InfluencerFilter 网红查询条件
type InfluencerFilter struct {
	Tier     models.Tier
	Location string
	Page     int
	PageSize int
}

// UserFilter 用户查询条件
type UserFilter struct {
	Role     models.Role
	Status   string
	Page     int
	PageSize int
}

// Store 持久化层接口
type Store interface {
	// Transaction 在单个事务中执行fn，fn返回错误时全部回滚
	// 需要容量校验的事务应先调用LockCampaign，再做其他读取
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error)

	CreateToken(ctx context.Context, token *models.UserToken) error
	GetToken(ctx context.Context, token string) (*models.UserToken, error)
	ListActiveTokens(ctx context.Context, userID uint, now time.Time) ([]models.UserToken, error)
	DeleteToken(ctx context.Context, userID, id uint) error
	DeleteUserTokens(ctx context.Context, userID uint) error
	DeleteExpiredTokens(ctx context.Context, userID uint, now time.Time) error

	CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error
	GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error)
	GetRestaurantByUser(ctx context.Context, userID uint) (*models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, restaurant *models.Restaurant) error

	CreateInfluencer(ctx context.Context, influencer *models.Influencer) error
	GetInfluencer(ctx context.Context, id uint) (*models.Influencer, error)
	GetInfluencerByUser(ctx context.Context, userID uint) (*models.Influencer, error)
	UpdateInfluencer(ctx context.Context, influencer *models.Influencer) error
	ListInfluencers(ctx context.Context, filter InfluencerFilter) ([]models.Influencer, int64, error)

	CreateCampaign(ctx context.Context, campaign *models.Campaign) error
	GetCampaign(ctx context.Context, id uint) (*models.Campaign, error)
	// LockCampaign 读取活动并加写锁，只在事务内有意义
	LockCampaign(ctx context.Context, id uint) (*models.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign *models.Campaign) error
	DeleteCampaign(ctx context.Context, id uint) error
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]models.Campaign, int64, error)
	CountCampaignsByStatus(ctx context.Context) (map[models.CampaignStatus]int64, error)

	CreateApplication(ctx context.Context, application *models.Application) error
	GetApplication(ctx context.Context, id uint) (*models.Application, error)
	FindApplication(ctx context.Context, campaignID, influencerID uint) (*models.Application, error)
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]models.Application, error)
	CountApplications(ctx context.Context, filter ApplicationFilter) (int64, error)
	UpdateApplication(ctx context.Context, application *models.Application) error
	// DeleteApplication 只删除处于status状态的报名，状态不符或不存在时返回ErrNotFound
	DeleteApplication(ctx context.Context, id uint, status models.ApplicationStatus) error

	CreateCommission(ctx context.Context, commission *models.Commission) error
	GetCommission(ctx context.Context, id uint) (*models.Commission, error)
	FindCommission(ctx context.Context, campaignID, influencerID uint) (*models.Commission, error)
	ListCommissions(ctx context.Context, filter CommissionFilter) ([]models.Commission, error)
	UpdateCommission(ctx context.Context, commission *models.Commission) error

	CreateFollowerChange(ctx context.Context, request *models.FollowerChangeRequest) error
	GetFollowerChange(ctx context.Context, id uint) (*models.FollowerChangeRequest, error)
	ListFollowerChanges(ctx context.Context, status string) ([]models.FollowerChangeRequest, error)
	UpdateFollowerChange(ctx context.Context, request *models.FollowerChangeRequest) error

	CreateNotification(ctx context.Context, notification *models.Notification) error
	ListNotifications(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id uint) error
}

// normalizePage 设置默认分页参数
func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
