package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"foodconnect/models"
)

// GormStore 是Store的GORM实现，生产环境对接MySQL
// 需要以 gorm.Config{TranslateError: true} 打开连接，唯一索引冲突才能识别为ErrDuplicate
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore 创建GORM存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// translate 把GORM错误转换为存储层错误，不向上泄露驱动细节
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return errors.Wrap(err, op)
}

// txOptions 事务使用READ COMMITTED隔离级别
// MySQL默认的REPEATABLE READ会把快照固定在第一次普通读取，锁等待结束后仍读不到其他事务刚提交的录用
var txOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// Transaction 在数据库事务中执行fn
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	}, txOptions)
}

func (s *GormStore) first(ctx context.Context, dest interface{}, op string, query interface{}, args ...interface{}) error {
	return translate(s.db.WithContext(ctx).Where(query, args...).First(dest).Error, op)
}

func (s *GormStore) create(ctx context.Context, value interface{}, op string) error {
	return translate(s.db.WithContext(ctx).Create(value).Error, op)
}

func (s *GormStore) save(ctx context.Context, value interface{}, op string) error {
	return translate(s.db.WithContext(ctx).Save(value).Error, op)
}

// ---- 用户 ----

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.create(ctx, user, "创建用户")
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.first(ctx, &user, "查询用户", "id = ?", id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.first(ctx, &user, "查询用户", "email = ?", email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, user *models.User) error {
	return s.save(ctx, user, "更新用户")
}

func (s *GormStore) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "统计用户")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var users []models.User
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, 0, translate(err, "查询用户列表")
	}
	return users, total, nil
}

// ---- 登录令牌 ----

func (s *GormStore) CreateToken(ctx context.Context, token *models.UserToken) error {
	return s.create(ctx, token, "存储令牌")
}

func (s *GormStore) GetToken(ctx context.Context, token string) (*models.UserToken, error) {
	var record models.UserToken
	if err := s.first(ctx, &record, "查询令牌", "token = ?", token); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormStore) ListActiveTokens(ctx context.Context, userID uint, now time.Time) ([]models.UserToken, error) {
	var tokens []models.UserToken
	err := s.db.WithContext(ctx).Where("user_id = ? AND expired_at > ?", userID, now).Order("id DESC").Find(&tokens).Error
	return tokens, translate(err, "查询登录设备")
}

func (s *GormStore) DeleteToken(ctx context.Context, userID, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.UserToken{})
	if result.Error != nil {
		return translate(result.Error, "删除令牌")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteUserTokens(ctx context.Context, userID uint) error {
	return translate(s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserToken{}).Error, "删除用户令牌")
}

func (s *GormStore) DeleteExpiredTokens(ctx context.Context, userID uint, now time.Time) error {
	err := s.db.WithContext(ctx).Where("user_id = ? AND expired_at < ?", userID, now).Delete(&models.UserToken{}).Error
	return translate(err, "删除过期令牌")
}

// ---- 餐厅 ----

func (s *GormStore) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	return s.create(ctx, restaurant, "创建餐厅")
}

func (s *GormStore) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.first(ctx, &restaurant, "查询餐厅", "id = ?", id); err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (s *GormStore) GetRestaurantByUser(ctx context.Context, userID uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.first(ctx, &restaurant, "查询餐厅", "user_id = ?", userID); err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (s *GormStore) UpdateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	return s.save(ctx, restaurant, "更新餐厅")
}

// ---- 网红 ----

func (s *GormStore) CreateInfluencer(ctx context.Context, influencer *models.Influencer) error {
	return s.create(ctx, influencer, "创建网红")
}

func (s *GormStore) GetInfluencer(ctx context.Context, id uint) (*models.Influencer, error) {
	var influencer models.Influencer
	if err := s.first(ctx, &influencer, "查询网红", "id = ?", id); err != nil {
		return nil, err
	}
	return &influencer, nil
}

func (s *GormStore) GetInfluencerByUser(ctx context.Context, userID uint) (*models.Influencer, error) {
	var influencer models.Influencer
	if err := s.first(ctx, &influencer, "查询网红", "user_id = ?", userID); err != nil {
		return nil, err
	}
	return &influencer, nil
}

func (s *GormStore) UpdateInfluencer(ctx context.Context, influencer *models.Influencer) error {
	return s.save(ctx, influencer, "更新网红")
}

func (s *GormStore) ListInfluencers(ctx context.Context, filter InfluencerFilter) ([]models.Influencer, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.Influencer{})
	if filter.Tier != "" {
		db = db.Where("tier = ?", filter.Tier)
	}
	if filter.Location != "" {
		db = db.Where("location = ?", filter.Location)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "统计网红")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var influencers []models.Influencer
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&influencers).Error; err != nil {
		return nil, 0, translate(err, "查询网红列表")
	}
	return influencers, total, nil
}

// ---- 活动 ----

func (s *GormStore) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	return s.create(ctx, campaign, "创建活动")
}

func (s *GormStore) GetCampaign(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.first(ctx, &campaign, "查询活动", "id = ?", id); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// LockCampaign 使用 SELECT ... FOR UPDATE 锁住活动行
// 同一活动的录用和完成操作因此串行执行，容量校验不会读到过期数据
func (s *GormStore) LockCampaign(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	err := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&campaign).Error
	if err != nil {
		return nil, translate(err, "锁定活动")
	}
	return &campaign, nil
}

func (s *GormStore) UpdateCampaign(ctx context.Context, campaign *models.Campaign) error {
	return s.save(ctx, campaign, "更新活动")
}

func (s *GormStore) DeleteCampaign(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Campaign{}, id)
	if result.Error != nil {
		return translate(result.Error, "删除活动")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]models.Campaign, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.Campaign{})
	if filter.RestaurantID != 0 {
		db = db.Where("restaurant_id = ?", filter.RestaurantID)
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if filter.Location != "" {
		db = db.Where("location = ?", filter.Location)
	}
	if filter.Tier != "" {
		db = db.Where("(target_tiers = '' OR FIND_IN_SET(?, target_tiers) > 0)", filter.Tier)
	}
	if !filter.OpenAt.IsZero() {
		db = db.Where("(deadline IS NULL OR deadline > ?)", filter.OpenAt)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "统计活动")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var campaigns []models.Campaign
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&campaigns).Error; err != nil {
		return nil, 0, translate(err, "查询活动列表")
	}
	return campaigns, total, nil
}

func (s *GormStore) CountCampaignsByStatus(ctx context.Context) (map[models.CampaignStatus]int64, error) {
	var rows []struct {
		Status models.CampaignStatus
		Total  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Campaign{}).Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "统计活动状态")
	}
	counts := make(map[models.CampaignStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// ---- 报名 ----

func (s *GormStore) CreateApplication(ctx context.Context, application *models.Application) error {
	return s.create(ctx, application, "创建报名")
}

func (s *GormStore) GetApplication(ctx context.Context, id uint) (*models.Application, error) {
	var application models.Application
	if err := s.first(ctx, &application, "查询报名", "id = ?", id); err != nil {
		return nil, err
	}
	return &application, nil
}

func (s *GormStore) FindApplication(ctx context.Context, campaignID, influencerID uint) (*models.Application, error) {
	var application models.Application
	err := s.first(ctx, &application, "查询报名", "campaign_id = ? AND influencer_id = ?", campaignID, influencerID)
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (s *GormStore) applicationQuery(ctx context.Context, filter ApplicationFilter) *gorm.DB {
	db := s.db.WithContext(ctx).Model(&models.Application{})
	if filter.CampaignID != 0 {
		db = db.Where("campaign_id = ?", filter.CampaignID)
	}
	if filter.InfluencerID != 0 {
		db = db.Where("influencer_id = ?", filter.InfluencerID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.ExcludeID != 0 {
		db = db.Where("id <> ?", filter.ExcludeID)
	}
	return db
}

func (s *GormStore) ListApplications(ctx context.Context, filter ApplicationFilter) ([]models.Application, error) {
	var applications []models.Application
	err := s.applicationQuery(ctx, filter).Order("id ASC").Find(&applications).Error
	return applications, translate(err, "查询报名列表")
}

func (s *GormStore) CountApplications(ctx context.Context, filter ApplicationFilter) (int64, error) {
	var total int64
	err := s.applicationQuery(ctx, filter).Count(&total).Error
	return total, translate(err, "统计报名")
}

func (s *GormStore) UpdateApplication(ctx context.Context, application *models.Application) error {
	return s.save(ctx, application, "更新报名")
}

// DeleteApplication 按id和状态删除，并发录用后状态已变时不会误删
func (s *GormStore) DeleteApplication(ctx context.Context, id uint, status models.ApplicationStatus) error {
	result := s.db.WithContext(ctx).Where("id = ? AND status = ?", id, status).Delete(&models.Application{})
	if result.Error != nil {
		return translate(result.Error, "删除报名")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- 佣金 ----

func (s *GormStore) CreateCommission(ctx context.Context, commission *models.Commission) error {
	return s.create(ctx, commission, "创建佣金")
}

func (s *GormStore) GetCommission(ctx context.Context, id uint) (*models.Commission, error) {
	var commission models.Commission
	if err := s.first(ctx, &commission, "查询佣金", "id = ?", id); err != nil {
		return nil, err
	}
	return &commission, nil
}

func (s *GormStore) FindCommission(ctx context.Context, campaignID, influencerID uint) (*models.Commission, error) {
	var commission models.Commission
	err := s.first(ctx, &commission, "查询佣金", "campaign_id = ? AND influencer_id = ?", campaignID, influencerID)
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

func (s *GormStore) ListCommissions(ctx context.Context, filter CommissionFilter) ([]models.Commission, error) {
	db := s.db.WithContext(ctx).Model(&models.Commission{})
	if filter.CampaignID != 0 {
		db = db.Where("campaign_id = ?", filter.CampaignID)
	}
	if filter.RestaurantID != 0 {
		db = db.Where("restaurant_id = ?", filter.RestaurantID)
	}
	if filter.InfluencerID != 0 {
		db = db.Where("influencer_id = ?", filter.InfluencerID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	var commissions []models.Commission
	err := db.Order("id ASC").Find(&commissions).Error
	return commissions, translate(err, "查询佣金列表")
}

// UpdateCommission 只更新状态相关字段，金额一经生成不再改动
func (s *GormStore) UpdateCommission(ctx context.Context, commission *models.Commission) error {
	err := s.db.WithContext(ctx).Model(&models.Commission{}).Where("id = ?", commission.ID).Updates(map[string]interface{}{
		"status":      commission.Status,
		"approved_at": commission.ApprovedAt,
		"paid_at":     commission.PaidAt,
	}).Error
	return translate(err, "更新佣金")
}

// ---- 粉丝数变更 ----

func (s *GormStore) CreateFollowerChange(ctx context.Context, request *models.FollowerChangeRequest) error {
	return s.create(ctx, request, "创建粉丝数变更申请")
}

func (s *GormStore) GetFollowerChange(ctx context.Context, id uint) (*models.FollowerChangeRequest, error) {
	var request models.FollowerChangeRequest
	if err := s.first(ctx, &request, "查询粉丝数变更申请", "id = ?", id); err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *GormStore) ListFollowerChanges(ctx context.Context, status string) ([]models.FollowerChangeRequest, error) {
	db := s.db.WithContext(ctx).Model(&models.FollowerChangeRequest{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var requests []models.FollowerChangeRequest
	err := db.Order("id ASC").Find(&requests).Error
	return requests, translate(err, "查询粉丝数变更申请")
}

func (s *GormStore) UpdateFollowerChange(ctx context.Context, request *models.FollowerChangeRequest) error {
	return s.save(ctx, request, "更新粉丝数变更申请")
}

// ---- 通知 ----

func (s *GormStore) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return s.create(ctx, notification, "创建通知")
}

func (s *GormStore) ListNotifications(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	db := s.db.WithContext(ctx).Where("recipient_id = ?", userID)
	if unreadOnly {
		db = db.Where("is_read = ?", false)
	}
	var notifications []models.Notification
	err := db.Order("id DESC").Limit(100).Find(&notifications).Error
	return notifications, translate(err, "查询通知")
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, userID, id uint) error {
	var notification models.Notification
	if err := s.first(ctx, &notification, "查询通知", "id = ? AND recipient_id = ?", id, userID); err != nil {
		return err
	}
	if notification.IsRead {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&notification).Update("is_read", true).Error
	return translate(err, "更新通知")
}
