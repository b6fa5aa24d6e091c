package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"foodconnect/models"
	"foodconnect/store"
	"foodconnect/utils"
)

type sentNotification struct {
	userID  uint
	kind    string
	payload map[string]interface{}
}

// recordingNotifier 记录所有通知，err不为空时每次发送都失败
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uint, kind string, payload map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{userID: userID, kind: kind, payload: payload})
	return n.err
}

func (n *recordingNotifier) kinds(userID uint) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []string
	for _, s := range n.sent {
		if s.userID == userID {
			kinds = append(kinds, s.kind)
		}
	}
	return kinds
}

func (n *recordingNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, s := range n.sent {
		if s.kind == kind {
			total++
		}
	}
	return total
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *store.MemoryStore
	notifier *recordingNotifier
	svc      *Services
	now      time.Time
	seq      int
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithRate(t, 15)
}

func newFixtureWithRate(t *testing.T, rate float64) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    store.NewMemoryStore(),
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	jwtManager, err := utils.NewJWTManager("fixture-secret-0123456789abcdef", "test")
	if err != nil {
		t.Fatalf("NewJWTManager returned error: %v", err)
	}
	f.svc = New(f.store, f.notifier, jwtManager, utils.NewLoginLimiter(3, 15*time.Minute), Options{
		DefaultCommissionRate: rate,
		TokenTTL:              time.Hour,
		Now:                   func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) user(role models.Role) *models.User {
	f.t.Helper()
	f.seq++
	user := &models.User{
		Email:  fmt.Sprintf("%s-%d@example.com", role, f.seq),
		Name:   fmt.Sprintf("%s %d", role, f.seq),
		Role:   role,
		Status: models.UserStatusActive,
	}
	if err := f.store.CreateUser(f.ctx, user); err != nil {
		f.t.Fatalf("CreateUser returned error: %v", err)
	}
	return user
}

// restaurant 创建一个带餐厅资料的用户
func (f *fixture) restaurant() Actor {
	f.t.Helper()
	user := f.user(models.RoleRestaurant)
	if err := f.store.CreateRestaurant(f.ctx, &models.Restaurant{UserID: user.ID, Name: user.Name}); err != nil {
		f.t.Fatalf("CreateRestaurant returned error: %v", err)
	}
	return Actor{UserID: user.ID, Role: models.RoleRestaurant}
}

// influencer 创建一个带网红资料的用户，粉丝数记在Instagram上
func (f *fixture) influencer(followers int) Actor {
	f.t.Helper()
	user := f.user(models.RoleInfluencer)
	influencer := &models.Influencer{UserID: user.ID, DisplayName: user.Name, InstagramFollowers: followers}
	influencer.RefreshTier()
	if err := f.store.CreateInfluencer(f.ctx, influencer); err != nil {
		f.t.Fatalf("CreateInfluencer returned error: %v", err)
	}
	return Actor{UserID: user.ID, Role: models.RoleInfluencer}
}

func (f *fixture) admin() Actor {
	f.t.Helper()
	user := f.user(models.RoleAdmin)
	return Actor{UserID: user.ID, Role: models.RoleAdmin}
}

func (f *fixture) influencerID(actor Actor) uint {
	f.t.Helper()
	influencer, err := f.store.GetInfluencerByUser(f.ctx, actor.UserID)
	if err != nil {
		f.t.Fatalf("GetInfluencerByUser returned error: %v", err)
	}
	return influencer.ID
}

func validInput(maxInfluencers int) CampaignInput {
	return CampaignInput{
		Title:               "Weekend brunch review",
		Description:         "Try our new brunch set",
		BudgetPerInfluencer: 400,
		MaxInfluencers:      maxInfluencers,
		Requirements:        "One reel and two stories",
		Location:            "Kuala Lumpur",
	}
}

// draft 创建草稿活动
func (f *fixture) draft(owner Actor, input CampaignInput) *models.Campaign {
	f.t.Helper()
	campaign, err := f.svc.Campaigns.Create(f.ctx, owner, input)
	if err != nil {
		f.t.Fatalf("Create returned error: %v", err)
	}
	return campaign
}

// published 创建并发布活动
func (f *fixture) published(owner Actor, maxInfluencers int) *models.Campaign {
	f.t.Helper()
	campaign := f.draft(owner, validInput(maxInfluencers))
	published, err := f.svc.Campaigns.Publish(f.ctx, owner, campaign.ID)
	if err != nil {
		f.t.Fatalf("Publish returned error: %v", err)
	}
	return published
}

func (f *fixture) apply(actor Actor, campaignID uint) *models.Application {
	f.t.Helper()
	application, err := f.svc.Applications.Apply(f.ctx, actor, campaignID, "I love brunch")
	if err != nil {
		f.t.Fatalf("Apply returned error: %v", err)
	}
	return application
}

func (f *fixture) accept(owner Actor, applicationID uint) *models.Application {
	f.t.Helper()
	application, err := f.svc.Applications.UpdateStatus(f.ctx, owner, applicationID, models.ApplicationAccepted)
	if err != nil {
		f.t.Fatalf("accept returned error: %v", err)
	}
	return application
}

func (f *fixture) campaign(id uint) *models.Campaign {
	f.t.Helper()
	campaign, err := f.store.GetCampaign(f.ctx, id)
	if err != nil {
		f.t.Fatalf("GetCampaign returned error: %v", err)
	}
	return campaign
}

func (f *fixture) acceptedCount(campaignID uint) int64 {
	f.t.Helper()
	count, err := f.store.CountApplications(f.ctx, store.ApplicationFilter{CampaignID: campaignID, Status: models.ApplicationAccepted})
	if err != nil {
		f.t.Fatalf("CountApplications returned error: %v", err)
	}
	return count
}

// inProgress 创建一个已录用influencers中所有网红的进行中活动
func (f *fixture) inProgress(owner Actor, influencers ...Actor) *models.Campaign {
	f.t.Helper()
	campaign := f.published(owner, len(influencers))
	for _, influencer := range influencers {
		application := f.apply(influencer, campaign.ID)
		f.accept(owner, application.ID)
	}
	return f.campaign(campaign.ID)
}

func expectKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
