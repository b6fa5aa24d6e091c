package services

import (
	"errors"
	"testing"
	"time"

	"foodconnect/models"
	"foodconnect/store"
)

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)

	tests := []struct {
		name   string
		mutate func(in *CampaignInput)
	}{
		{name: "zero capacity", mutate: func(in *CampaignInput) { in.MaxInfluencers = 0 }},
		{name: "negative budget", mutate: func(in *CampaignInput) { in.BudgetPerInfluencer = -1 }},
		{name: "negative meal value", mutate: func(in *CampaignInput) { v := -5.0; in.MealValue = &v }},
		{name: "unknown tier", mutate: func(in *CampaignInput) { in.TargetTiers = []models.Tier{"celebrity"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(1)
			tt.mutate(&input)
			_, err := f.svc.Campaigns.Create(f.ctx, owner, input)
			expectKind(t, err, KindValidation)
		})
	}

	_, err := f.svc.Campaigns.Create(f.ctx, influencer, validInput(1))
	expectKind(t, err, KindAuthorization)

	campaign := f.draft(owner, validInput(1))
	if campaign.Status != models.CampaignDraft {
		t.Fatalf("expected draft, got %q", campaign.Status)
	}
}

func TestPublishRequiresTitleBudgetAndRequirements(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()

	tests := []struct {
		name   string
		mutate func(in *CampaignInput)
	}{
		{name: "missing title", mutate: func(in *CampaignInput) { in.Title = "  " }},
		{name: "zero budget", mutate: func(in *CampaignInput) { in.BudgetPerInfluencer = 0 }},
		{name: "missing requirements", mutate: func(in *CampaignInput) { in.Requirements = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(1)
			tt.mutate(&input)
			campaign := f.draft(owner, input)

			_, err := f.svc.Campaigns.Publish(f.ctx, owner, campaign.ID)
			expectKind(t, err, KindValidation)
			if got := f.campaign(campaign.ID).Status; got != models.CampaignDraft {
				t.Fatalf("expected campaign to stay draft, got %q", got)
			}
		})
	}

	published := f.published(owner, 1)
	if published.PublishedAt == nil || !published.PublishedAt.Equal(f.now) {
		t.Fatalf("expected published_at %v, got %v", f.now, published.PublishedAt)
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)

	campaign := f.published(owner, 1)
	opened, err := f.svc.Campaigns.OpenApplications(f.ctx, owner, campaign.ID)
	if err != nil {
		t.Fatalf("OpenApplications returned error: %v", err)
	}
	if opened.Status != models.CampaignApplicationsOpen {
		t.Fatalf("expected applications_open, got %q", opened.Status)
	}

	application := f.apply(influencer, campaign.ID)
	f.accept(owner, application.ID)
	if got := f.campaign(campaign.ID).Status; got != models.CampaignInProgress {
		t.Fatalf("expected in_progress, got %q", got)
	}

	completed, commissions, err := f.svc.Campaigns.Complete(f.ctx, owner, campaign.ID)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if completed.Status != models.CampaignCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected completed with completed_at, got %+v", completed)
	}
	if len(commissions) != 1 {
		t.Fatalf("expected 1 commission, got %d", len(commissions))
	}

	paid, err := f.svc.Campaigns.MarkPaid(f.ctx, owner, campaign.ID)
	if err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}
	if paid.Status != models.CampaignPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid with paid_at, got %+v", paid)
	}
}

func TestIllegalTransitionsAreRejectedWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)

	draft := f.draft(owner, validInput(1))
	published := f.published(owner, 1)
	active := f.inProgress(owner, influencer)

	paidCampaign := f.inProgress(owner, f.influencer(1000))
	if _, _, err := f.svc.Campaigns.Complete(f.ctx, owner, paidCampaign.ID); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if _, err := f.svc.Campaigns.MarkPaid(f.ctx, owner, paidCampaign.ID); err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}

	closed := f.published(owner, 1)
	if _, err := f.svc.Campaigns.Close(f.ctx, owner, closed.ID); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	tests := []struct {
		name string
		id   uint
		run  func(id uint) error
	}{
		{name: "complete draft", id: draft.ID, run: func(id uint) error {
			_, _, err := f.svc.Campaigns.Complete(f.ctx, owner, id)
			return err
		}},
		{name: "close draft", id: draft.ID, run: func(id uint) error {
			_, err := f.svc.Campaigns.Close(f.ctx, owner, id)
			return err
		}},
		{name: "publish twice", id: published.ID, run: func(id uint) error {
			_, err := f.svc.Campaigns.Publish(f.ctx, owner, id)
			return err
		}},
		{name: "complete published", id: published.ID, run: func(id uint) error {
			_, _, err := f.svc.Campaigns.Complete(f.ctx, owner, id)
			return err
		}},
		{name: "pay in progress", id: active.ID, run: func(id uint) error {
			_, err := f.svc.Campaigns.MarkPaid(f.ctx, owner, id)
			return err
		}},
		{name: "open in progress", id: active.ID, run: func(id uint) error {
			_, err := f.svc.Campaigns.OpenApplications(f.ctx, owner, id)
			return err
		}},
		{name: "close paid", id: paidCampaign.ID, run: func(id uint) error {
			_, err := f.svc.Campaigns.Close(f.ctx, owner, id)
			return err
		}},
		{name: "publish closed", id: closed.ID, run: func(id uint) error {
			_, err := f.svc.Campaigns.Publish(f.ctx, owner, id)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.campaign(tt.id)
			commissionsBefore, _ := f.store.ListCommissions(f.ctx, store.CommissionFilter{CampaignID: tt.id})

			expectKind(t, tt.run(tt.id), KindInvalidState)

			after := f.campaign(tt.id)
			if after.Status != before.Status || !after.UpdatedAt.Equal(before.UpdatedAt) {
				t.Fatalf("expected campaign unchanged, before=%+v after=%+v", before, after)
			}
			commissionsAfter, _ := f.store.ListCommissions(f.ctx, store.CommissionFilter{CampaignID: tt.id})
			if len(commissionsAfter) != len(commissionsBefore) {
				t.Fatalf("expected no commissions to be created, before=%d after=%d", len(commissionsBefore), len(commissionsAfter))
			}
		})
	}
}

func TestLifecycleRequiresOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	other := f.restaurant()
	admin := f.admin()
	campaign := f.draft(owner, validInput(1))

	_, err := f.svc.Campaigns.Publish(f.ctx, other, campaign.ID)
	expectKind(t, err, KindAuthorization)
	_, err = f.svc.Campaigns.Publish(f.ctx, admin, campaign.ID)
	expectKind(t, err, KindAuthorization)
	_, err = f.svc.Campaigns.Update(f.ctx, other, campaign.ID, validInput(2))
	expectKind(t, err, KindAuthorization)
	err = f.svc.Campaigns.Delete(f.ctx, other, campaign.ID)
	expectKind(t, err, KindAuthorization)
	_, err = f.svc.Campaigns.Publish(f.ctx, owner, 999)
	expectKind(t, err, KindNotFound)
}

func TestUpdateOnlyWhileEditable(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	a := f.influencer(1000)
	b := f.influencer(1000)

	campaign := f.published(owner, 2)
	appA := f.apply(a, campaign.ID)
	f.apply(b, campaign.ID)

	input := validInput(3)
	input.Title = "Updated title"
	updated, err := f.svc.Campaigns.Update(f.ctx, owner, campaign.ID, input)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != "Updated title" || updated.MaxInfluencers != 3 {
		t.Fatalf("expected update to apply, got %+v", updated)
	}

	input.BudgetPerInfluencer = 0
	_, err = f.svc.Campaigns.Update(f.ctx, owner, campaign.ID, input)
	expectKind(t, err, KindValidation)

	f.accept(owner, appA.ID)
	_, err = f.svc.Campaigns.Update(f.ctx, owner, campaign.ID, validInput(3))
	expectKind(t, err, KindInvalidState)
}

func TestDeleteCampaign(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)

	withApplication := f.published(owner, 1)
	application := f.apply(influencer, withApplication.ID)
	if _, err := f.svc.Applications.UpdateStatus(f.ctx, owner, application.ID, models.ApplicationRejected); err != nil {
		t.Fatalf("reject returned error: %v", err)
	}
	err := f.svc.Campaigns.Delete(f.ctx, owner, withApplication.ID)
	expectKind(t, err, KindConflict)
	if _, err := f.store.GetCampaign(f.ctx, withApplication.ID); err != nil {
		t.Fatalf("expected campaign to survive failed delete, got %v", err)
	}

	closed := f.published(owner, 1)
	if _, err := f.svc.Campaigns.Close(f.ctx, owner, closed.ID); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	err = f.svc.Campaigns.Delete(f.ctx, owner, closed.ID)
	expectKind(t, err, KindInvalidState)

	for _, campaign := range []*models.Campaign{f.draft(owner, validInput(1)), f.published(owner, 1)} {
		if err := f.svc.Campaigns.Delete(f.ctx, owner, campaign.ID); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if _, err := f.store.GetCampaign(f.ctx, campaign.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected campaign %d to be deleted, got %v", campaign.ID, err)
		}
	}
}

func TestCloseNotifiesActiveApplicants(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	accepted := f.influencer(1000)
	pending := f.influencer(1000)
	rejectedInfluencer := f.influencer(1000)

	campaign := f.published(owner, 2)
	f.accept(owner, f.apply(accepted, campaign.ID).ID)
	f.apply(pending, campaign.ID)
	application := f.apply(rejectedInfluencer, campaign.ID)
	if _, err := f.svc.Applications.UpdateStatus(f.ctx, owner, application.ID, models.ApplicationRejected); err != nil {
		t.Fatalf("reject returned error: %v", err)
	}

	closed, err := f.svc.Campaigns.Close(f.ctx, owner, campaign.ID)
	if err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if closed.Status != models.CampaignClosed || closed.ClosedAt == nil {
		t.Fatalf("expected closed with closed_at, got %+v", closed)
	}
	if got := f.notifier.count(models.NotifyCampaignClosed); got != 2 {
		t.Fatalf("expected 2 campaign_closed notifications, got %d", got)
	}
	for _, kind := range f.notifier.kinds(rejectedInfluencer.UserID) {
		if kind == models.NotifyCampaignClosed {
			t.Fatal("rejected applicant should not be notified of closing")
		}
	}
}

func TestMarkPaidByAdminSettlesCommissions(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	admin := f.admin()
	a := f.influencer(1000)
	b := f.influencer(1000)

	campaign := f.inProgress(owner, a, b)
	_, commissions, err := f.svc.Campaigns.Complete(f.ctx, owner, campaign.ID)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if _, err := f.svc.Commissions.UpdateStatus(f.ctx, owner, commissions[0].ID, models.CommissionApproved); err != nil {
		t.Fatalf("approve returned error: %v", err)
	}

	other := f.restaurant()
	_, err = f.svc.Campaigns.MarkPaid(f.ctx, other, campaign.ID)
	expectKind(t, err, KindAuthorization)

	if _, err := f.svc.Campaigns.MarkPaid(f.ctx, admin, campaign.ID); err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}
	settled, err := f.store.ListCommissions(f.ctx, store.CommissionFilter{CampaignID: campaign.ID})
	if err != nil {
		t.Fatalf("ListCommissions returned error: %v", err)
	}
	for _, commission := range settled {
		if commission.Status != models.CommissionPaid || commission.PaidAt == nil {
			t.Fatalf("expected commission %d to be paid, got %+v", commission.ID, commission)
		}
	}
}

func TestMatchingFiltersTierStatusAndDeadline(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	major := f.influencer(60000)

	forMajor := validInput(1)
	forMajor.TargetTiers = []models.Tier{models.TierMajor, models.TierMega}
	targeted := f.draft(owner, forMajor)
	if _, err := f.svc.Campaigns.Publish(f.ctx, owner, targeted.ID); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	forEmerging := validInput(1)
	forEmerging.TargetTiers = []models.Tier{models.TierEmerging}
	other := f.draft(owner, forEmerging)
	if _, err := f.svc.Campaigns.Publish(f.ctx, owner, other.ID); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	past := f.now.Add(-time.Minute)
	expiredInput := validInput(1)
	expiredInput.Deadline = &past
	expired := f.draft(owner, expiredInput)
	if _, err := f.svc.Campaigns.Publish(f.ctx, owner, expired.ID); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	f.draft(owner, validInput(1))
	open := f.published(owner, 1)

	matched, total, err := f.svc.Campaigns.Matching(f.ctx, major, 1, 10)
	if err != nil {
		t.Fatalf("Matching returned error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected total 2, got %d", total)
	}
	ids := map[uint]bool{}
	for _, c := range matched {
		ids[c.ID] = true
	}
	if len(matched) != 2 || !ids[targeted.ID] || !ids[open.ID] {
		t.Fatalf("expected campaigns %d and %d, got %+v", targeted.ID, open.ID, ids)
	}
}

func TestMatchingPaginatesAfterDeadlineFilter(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)

	past := f.now.Add(-time.Hour)
	open := map[uint]bool{}
	for i := 0; i < 12; i++ {
		open[f.published(owner, 1).ID] = true

		// 过期活动穿插在可报名活动之间，分页不能因此漏掉后面的活动
		if i%4 == 0 {
			input := validInput(1)
			input.Deadline = &past
			expired := f.draft(owner, input)
			if _, err := f.svc.Campaigns.Publish(f.ctx, owner, expired.ID); err != nil {
				t.Fatalf("Publish returned error: %v", err)
			}
		}
	}

	seen := map[uint]bool{}
	for page := 1; page <= 3; page++ {
		campaigns, total, err := f.svc.Campaigns.Matching(f.ctx, influencer, page, 5)
		if err != nil {
			t.Fatalf("Matching returned error: %v", err)
		}
		if total != 12 {
			t.Fatalf("page %d: expected total 12, got %d", page, total)
		}
		for _, c := range campaigns {
			if !open[c.ID] {
				t.Fatalf("page %d: unexpected campaign %d", page, c.ID)
			}
			seen[c.ID] = true
		}
	}
	if len(seen) != 12 {
		t.Fatalf("expected all 12 open campaigns across pages, got %d", len(seen))
	}
}

func TestListDefaultsToOpenCampaignsForNonAdmins(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)
	admin := f.admin()

	f.draft(owner, validInput(1))
	f.published(owner, 1)

	visible, total, err := f.svc.Campaigns.List(f.ctx, influencer, models.CampaignQuery{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 1 || visible[0].Status != models.CampaignPublished {
		t.Fatalf("expected only the published campaign, got total=%d %+v", total, visible)
	}

	_, total, err = f.svc.Campaigns.List(f.ctx, admin, models.CampaignQuery{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected admin to see 2 campaigns, got %d", total)
	}

	_, _, err = f.svc.Campaigns.List(f.ctx, influencer, models.CampaignQuery{Status: "draft,bogus"})
	expectKind(t, err, KindValidation)

	own, total, err := f.svc.Campaigns.ListOwn(f.ctx, owner, 1, 10)
	if err != nil {
		t.Fatalf("ListOwn returned error: %v", err)
	}
	if total != 2 || len(own) != 2 {
		t.Fatalf("expected restaurant to see both own campaigns, got %d", total)
	}
}
