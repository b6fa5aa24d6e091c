package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"

	"foodconnect/models"
)

func TestMemoryStoreApplicationPairIsUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := &models.Application{CampaignID: 1, InfluencerID: 2}
	if err := s.CreateApplication(ctx, first); err != nil {
		t.Fatalf("CreateApplication returned error: %v", err)
	}
	if first.ID == 0 || first.Status != models.ApplicationPending {
		t.Fatalf("expected id and pending status to be assigned, got %+v", first)
	}

	err := s.CreateApplication(ctx, &models.Application{CampaignID: 1, InfluencerID: 2})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := s.CreateApplication(ctx, &models.Application{CampaignID: 1, InfluencerID: 3}); err != nil {
		t.Fatalf("expected different influencer to be accepted, got %v", err)
	}
}

func TestMemoryStoreCommissionPairIsUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.CreateCommission(ctx, &models.Commission{CommissionNo: "A", CampaignID: 1, InfluencerID: 2}); err != nil {
		t.Fatalf("CreateCommission returned error: %v", err)
	}
	err := s.CreateCommission(ctx, &models.Commission{CommissionNo: "B", CampaignID: 1, InfluencerID: 2})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMemoryStoreUpdateCommissionKeepsAmount(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	commission := &models.Commission{CampaignID: 1, InfluencerID: 2, CampaignAmount: 200, CommissionRate: 15, CommissionAmount: 30}
	if err := s.CreateCommission(ctx, commission); err != nil {
		t.Fatalf("CreateCommission returned error: %v", err)
	}

	patch := *commission
	patch.CommissionAmount = 999
	patch.Status = models.CommissionApproved
	if err := s.UpdateCommission(ctx, &patch); err != nil {
		t.Fatalf("UpdateCommission returned error: %v", err)
	}

	stored, err := s.GetCommission(ctx, commission.ID)
	if err != nil {
		t.Fatalf("GetCommission returned error: %v", err)
	}
	if stored.CommissionAmount != 30 {
		t.Fatalf("expected amount to stay 30, got %v", stored.CommissionAmount)
	}
	if stored.Status != models.CommissionApproved {
		t.Fatalf("expected approved status, got %q", stored.Status)
	}
}

func TestMemoryStoreTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	campaign := &models.Campaign{RestaurantID: 1, Title: "before", MaxInfluencers: 1}
	if err := s.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx Store) error {
		c, err := tx.LockCampaign(ctx, campaign.ID)
		if err != nil {
			return err
		}
		c.Title = "after"
		if err := tx.UpdateCampaign(ctx, c); err != nil {
			return err
		}
		if err := tx.CreateApplication(ctx, &models.Application{CampaignID: c.ID, InfluencerID: 9}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	stored, err := s.GetCampaign(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("GetCampaign returned error: %v", err)
	}
	if stored.Title != "before" {
		t.Fatalf("expected title rollback, got %q", stored.Title)
	}
	count, err := s.CountApplications(ctx, ApplicationFilter{CampaignID: campaign.ID})
	if err != nil {
		t.Fatalf("CountApplications returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected application insert to roll back, got %d", count)
	}

	// 回滚后ID计数器也恢复，下一条记录不会跳号
	next := &models.Application{CampaignID: campaign.ID, InfluencerID: 9}
	if err := s.CreateApplication(ctx, next); err != nil {
		t.Fatalf("CreateApplication returned error: %v", err)
	}
	if next.ID != 1 {
		t.Fatalf("expected id 1 after rollback, got %d", next.ID)
	}
}

func TestMemoryStoreCountApplicationsExcludeID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for influencer := uint(1); influencer <= 3; influencer++ {
		a := &models.Application{CampaignID: 1, InfluencerID: influencer, Status: models.ApplicationAccepted}
		if err := s.CreateApplication(ctx, a); err != nil {
			t.Fatalf("CreateApplication returned error: %v", err)
		}
	}

	count, err := s.CountApplications(ctx, ApplicationFilter{CampaignID: 1, Status: models.ApplicationAccepted, ExcludeID: 2})
	if err != nil {
		t.Fatalf("CountApplications returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 accepted excluding id 2, got %d", count)
	}
}

func TestMemoryStoreListCampaignsFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seed := []models.Campaign{
		{RestaurantID: 1, Status: models.CampaignDraft},
		{RestaurantID: 1, Status: models.CampaignPublished, TargetTiers: "major,mega"},
		{RestaurantID: 2, Status: models.CampaignPublished},
		{RestaurantID: 2, Status: models.CampaignApplicationsOpen, TargetTiers: "emerging"},
	}
	for i := range seed {
		if err := s.CreateCampaign(ctx, &seed[i]); err != nil {
			t.Fatalf("CreateCampaign returned error: %v", err)
		}
	}

	open, total, err := s.ListCampaigns(ctx, CampaignFilter{Statuses: models.OpenStatuses, Tier: models.TierMajor})
	if err != nil {
		t.Fatalf("ListCampaigns returned error: %v", err)
	}
	if total != 2 || len(open) != 2 {
		t.Fatalf("expected 2 open campaigns for major, got total=%d len=%d", total, len(open))
	}
	if open[0].ID != 3 || open[1].ID != 2 {
		t.Fatalf("expected newest first, got ids %d,%d", open[0].ID, open[1].ID)
	}

	page, total, err := s.ListCampaigns(ctx, CampaignFilter{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("ListCampaigns returned error: %v", err)
	}
	if total != 4 || len(page) != 1 || page[0].ID != 1 {
		t.Fatalf("expected second page with campaign 1, got total=%d page=%+v", total, page)
	}
}

func TestMemoryStoreTokensExpire(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	expired := &models.UserToken{UserID: 1, Token: "old", ExpiredAt: now.Add(-time.Hour)}
	active := &models.UserToken{UserID: 1, Token: "new", ExpiredAt: now.Add(time.Hour)}
	other := &models.UserToken{UserID: 2, Token: "other", ExpiredAt: now.Add(-time.Hour)}
	for _, token := range []*models.UserToken{expired, active, other} {
		if err := s.CreateToken(ctx, token); err != nil {
			t.Fatalf("CreateToken returned error: %v", err)
		}
	}

	tokens, err := s.ListActiveTokens(ctx, 1, now)
	if err != nil {
		t.Fatalf("ListActiveTokens returned error: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Token != "new" {
		t.Fatalf("expected only the active token, got %+v", tokens)
	}

	if err := s.DeleteExpiredTokens(ctx, 1, now); err != nil {
		t.Fatalf("DeleteExpiredTokens returned error: %v", err)
	}
	if _, err := s.GetToken(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired token to be deleted, got %v", err)
	}
	if _, err := s.GetToken(ctx, "other"); err != nil {
		t.Fatalf("expected other user's token to remain, got %v", err)
	}

	if err := s.DeleteToken(ctx, 2, active.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleting another user's device to fail with ErrNotFound, got %v", err)
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "foodconnect.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	user := &models.User{Email: "owner@example.com", Role: models.RoleRestaurant}
	if err := user.SetPassword("secret123"); err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	err = s.Transaction(ctx, func(tx Store) error {
		return tx.CreateRestaurant(ctx, &models.Restaurant{UserID: user.ID, Name: "Nasi Lemak House"})
	})
	if err != nil {
		t.Fatalf("Transaction returned error: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	stored, err := reopened.GetUserByEmail(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail returned error: %v", err)
	}
	if stored.ID != user.ID {
		t.Fatalf("expected user id %d, got %d", user.ID, stored.ID)
	}
	if !stored.CheckPassword("secret123") {
		t.Fatal("expected password hash to survive reopen")
	}
	restaurant, err := reopened.GetRestaurantByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetRestaurantByUser returned error: %v", err)
	}
	if restaurant.Name != "Nasi Lemak House" {
		t.Fatalf("expected restaurant name to persist, got %q", restaurant.Name)
	}

	// 自增ID在重新打开后继续递增
	second := &models.User{Email: "second@example.com", Role: models.RoleInfluencer}
	if err := reopened.CreateUser(ctx, second); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if second.ID != user.ID+1 {
		t.Fatalf("expected id %d, got %d", user.ID+1, second.ID)
	}
}

func TestMarkNotificationReadChecksRecipient(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	n := &models.Notification{RecipientID: 7, Kind: models.NotifyApplicationReceived}
	if err := s.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification returned error: %v", err)
	}
	if err := s.MarkNotificationRead(ctx, 8, n.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another recipient, got %v", err)
	}
	if err := s.MarkNotificationRead(ctx, 7, n.ID); err != nil {
		t.Fatalf("MarkNotificationRead returned error: %v", err)
	}

	unread, err := s.ListNotifications(ctx, 7, true)
	if err != nil {
		t.Fatalf("ListNotifications returned error: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(unread))
	}
}

func TestMemoryStoreDeleteApplicationChecksStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a := &models.Application{CampaignID: 1, InfluencerID: 2, Status: models.ApplicationAccepted}
	if err := s.CreateApplication(ctx, a); err != nil {
		t.Fatalf("CreateApplication returned error: %v", err)
	}

	if err := s.DeleteApplication(ctx, a.ID, models.ApplicationPending); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for status mismatch, got %v", err)
	}
	if _, err := s.GetApplication(ctx, a.ID); err != nil {
		t.Fatalf("expected application to survive, got %v", err)
	}

	if err := s.DeleteApplication(ctx, a.ID, models.ApplicationAccepted); err != nil {
		t.Fatalf("DeleteApplication returned error: %v", err)
	}
	if _, err := s.GetApplication(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreListCampaignsExcludesClosedDeadlines(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	seed := []models.Campaign{
		{RestaurantID: 1, Status: models.CampaignPublished, Deadline: &past},
		{RestaurantID: 1, Status: models.CampaignPublished, Deadline: &now},
		{RestaurantID: 1, Status: models.CampaignPublished, Deadline: &future},
		{RestaurantID: 1, Status: models.CampaignPublished},
	}
	for i := range seed {
		if err := s.CreateCampaign(ctx, &seed[i]); err != nil {
			t.Fatalf("CreateCampaign returned error: %v", err)
		}
	}

	open, total, err := s.ListCampaigns(ctx, CampaignFilter{Statuses: models.OpenStatuses, OpenAt: now})
	if err != nil {
		t.Fatalf("ListCampaigns returned error: %v", err)
	}
	if total != 2 || len(open) != 2 {
		t.Fatalf("expected 2 campaigns still open at %s, got total=%d len=%d", now, total, len(open))
	}
	for _, c := range open {
		if c.ID != 3 && c.ID != 4 {
			t.Fatalf("unexpected campaign %d in open list", c.ID)
		}
	}
}
