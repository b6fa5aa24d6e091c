package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"foodconnect/models"
	"foodconnect/store"
)

func TestApplyCreatesPendingApplicationAndNotifiesRestaurant(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(8000)
	campaign := f.published(owner, 2)

	application := f.apply(influencer, campaign.ID)
	if application.Status != models.ApplicationPending {
		t.Fatalf("expected pending, got %q", application.Status)
	}
	if !application.AppliedAt.Equal(f.now) {
		t.Fatalf("expected applied_at %v, got %v", f.now, application.AppliedAt)
	}
	if application.InfluencerID != f.influencerID(influencer) {
		t.Fatalf("expected influencer id %d, got %d", f.influencerID(influencer), application.InfluencerID)
	}

	kinds := f.notifier.kinds(owner.UserID)
	if len(kinds) != 1 || kinds[0] != models.NotifyApplicationReceived {
		t.Fatalf("expected restaurant to receive application_received, got %v", kinds)
	}
}

func TestApplyPreconditionsInOrder(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)

	past := f.now.Add(-time.Hour)
	expiredDraft := validInput(1)
	expiredDraft.Deadline = &past
	draft := f.draft(owner, expiredDraft)

	expiredPublished := f.published(owner, 1)
	expiredPublished.Deadline = &past
	if err := f.store.UpdateCampaign(f.ctx, expiredPublished); err != nil {
		t.Fatalf("UpdateCampaign returned error: %v", err)
	}

	open := f.published(owner, 1)

	// 有网红角色但没有网红资料
	bare := f.user(models.RoleInfluencer)
	noProfile := Actor{UserID: bare.ID, Role: models.RoleInfluencer}

	tests := []struct {
		name       string
		actor      Actor
		campaignID uint
		want       Kind
	}{
		{name: "missing campaign", actor: influencer, campaignID: 999, want: KindNotFound},
		{name: "missing campaign beats missing profile", actor: noProfile, campaignID: 999, want: KindNotFound},
		{name: "draft beats expired deadline", actor: influencer, campaignID: draft.ID, want: KindInvalidState},
		{name: "expired deadline", actor: influencer, campaignID: expiredPublished.ID, want: KindExpired},
		{name: "expired beats missing profile", actor: noProfile, campaignID: expiredPublished.ID, want: KindExpired},
		{name: "missing profile", actor: noProfile, campaignID: open.ID, want: KindNotFound},
		{name: "wrong role", actor: owner, campaignID: open.ID, want: KindAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Applications.Apply(f.ctx, tt.actor, tt.campaignID, "")
			expectKind(t, err, tt.want)
		})
	}

	if count, _ := f.store.CountApplications(f.ctx, store.ApplicationFilter{}); count != 0 {
		t.Fatalf("expected no applications to be created, got %d", count)
	}
}

func TestApplyRejectedForClosedAndCompletedCampaigns(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	first := f.influencer(1000)
	late := f.influencer(1000)

	closed := f.published(owner, 1)
	if _, err := f.svc.Campaigns.Close(f.ctx, owner, closed.ID); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	_, err := f.svc.Applications.Apply(f.ctx, late, closed.ID, "")
	expectKind(t, err, KindInvalidState)

	completed := f.inProgress(owner, first)
	if _, _, err := f.svc.Campaigns.Complete(f.ctx, owner, completed.ID); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	_, err = f.svc.Applications.Apply(f.ctx, late, completed.ID, "")
	expectKind(t, err, KindInvalidState)
}

func TestApplyAfterDeadlineIsExpired(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)

	deadline := f.now.Add(24 * time.Hour)
	input := validInput(3)
	input.Deadline = &deadline
	campaign := f.draft(owner, input)
	if _, err := f.svc.Campaigns.Publish(f.ctx, owner, campaign.ID); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	f.now = deadline.Add(time.Second)
	_, err := f.svc.Applications.Apply(f.ctx, influencer, campaign.ID, "")
	expectKind(t, err, KindExpired)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected errors.Is(err, ErrExpired), got %v", err)
	}
}

func TestApplyTwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)
	campaign := f.published(owner, 5)

	f.apply(influencer, campaign.ID)
	_, err := f.svc.Applications.Apply(f.ctx, influencer, campaign.ID, "again")
	expectKind(t, err, KindConflict)

	// 被拒绝之后再次报名同样冲突
	applications, err := f.svc.Applications.ListForCampaign(f.ctx, owner, campaign.ID, "")
	if err != nil {
		t.Fatalf("ListForCampaign returned error: %v", err)
	}
	if _, err := f.svc.Applications.UpdateStatus(f.ctx, owner, applications[0].ID, models.ApplicationRejected); err != nil {
		t.Fatalf("reject returned error: %v", err)
	}
	_, err = f.svc.Applications.Apply(f.ctx, influencer, campaign.ID, "again")
	expectKind(t, err, KindConflict)
}

func TestConcurrentApplySameInfluencerCreatesOneApplication(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)
	campaign := f.published(owner, 5)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Applications.Apply(f.ctx, influencer, campaign.ID, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		expectKind(t, err, KindConflict)
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful apply, got %d", succeeded)
	}
}

func TestCapacityScenarioWithSingleSlot(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	a := f.influencer(1000)
	b := f.influencer(1000)
	campaign := f.published(owner, 1)

	appA := f.apply(a, campaign.ID)
	appB := f.apply(b, campaign.ID)

	f.accept(owner, appA.ID)
	_, err := f.svc.Applications.UpdateStatus(f.ctx, owner, appB.ID, models.ApplicationAccepted)
	expectKind(t, err, KindCapacity)

	if got := f.acceptedCount(campaign.ID); got != 1 {
		t.Fatalf("expected 1 accepted application, got %d", got)
	}
	stored, err := f.store.GetApplication(f.ctx, appB.ID)
	if err != nil {
		t.Fatalf("GetApplication returned error: %v", err)
	}
	if stored.Status != models.ApplicationPending {
		t.Fatalf("expected B to stay pending, got %q", stored.Status)
	}

	// 名额已满后新的报名直接被拒绝
	c := f.influencer(1000)
	_, err = f.svc.Applications.Apply(f.ctx, c, campaign.ID, "")
	expectKind(t, err, KindCapacity)
}

func TestReacceptingAcceptedApplicationDoesNotCountItself(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)
	campaign := f.published(owner, 1)
	application := f.apply(influencer, campaign.ID)

	f.accept(owner, application.ID)
	again, err := f.svc.Applications.UpdateStatus(f.ctx, owner, application.ID, models.ApplicationAccepted)
	if err != nil {
		t.Fatalf("expected accepting the same application twice to succeed, got %v", err)
	}
	if again.Status != models.ApplicationAccepted {
		t.Fatalf("expected accepted, got %q", again.Status)
	}
	if got := f.notifier.count(models.NotifyApplicationAccepted); got != 1 {
		t.Fatalf("expected one acceptance notification, got %d", got)
	}
}

func TestConcurrentAcceptsNeverExceedCapacity(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	campaign := f.published(owner, 2)

	const applicants = 10
	ids := make([]uint, 0, applicants)
	for i := 0; i < applicants; i++ {
		ids = append(ids, f.apply(f.influencer(1000), campaign.ID).ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, applicants)
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := f.svc.Applications.UpdateStatus(f.ctx, owner, id, models.ApplicationAccepted)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
			continue
		}
		expectKind(t, err, KindCapacity)
	}
	if accepted != 2 {
		t.Fatalf("expected exactly 2 accepts, got %d", accepted)
	}
	if got := f.acceptedCount(campaign.ID); got != 2 {
		t.Fatalf("expected 2 accepted applications in store, got %d", got)
	}
}

func TestFirstAcceptMovesCampaignToInProgress(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)
	campaign := f.published(owner, 2)
	application := f.apply(influencer, campaign.ID)

	if got := f.campaign(campaign.ID).Status; got != models.CampaignPublished {
		t.Fatalf("expected published before accept, got %q", got)
	}
	f.accept(owner, application.ID)
	if got := f.campaign(campaign.ID).Status; got != models.CampaignInProgress {
		t.Fatalf("expected in_progress after accept, got %q", got)
	}

	kinds := f.notifier.kinds(influencer.UserID)
	if len(kinds) != 1 || kinds[0] != models.NotifyApplicationAccepted {
		t.Fatalf("expected influencer to be notified of acceptance, got %v", kinds)
	}
}

func TestRejectDoesNotChangeCampaignStatus(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)
	campaign := f.published(owner, 2)
	application := f.apply(influencer, campaign.ID)

	rejected, err := f.svc.Applications.UpdateStatus(f.ctx, owner, application.ID, models.ApplicationRejected)
	if err != nil {
		t.Fatalf("reject returned error: %v", err)
	}
	if rejected.Status != models.ApplicationRejected || rejected.DecidedAt == nil {
		t.Fatalf("expected rejected with decided_at, got %+v", rejected)
	}
	if got := f.campaign(campaign.ID).Status; got != models.CampaignPublished {
		t.Fatalf("expected campaign to stay published, got %q", got)
	}
	if kinds := f.notifier.kinds(influencer.UserID); len(kinds) != 1 || kinds[0] != models.NotifyApplicationRejected {
		t.Fatalf("expected application_rejected notification, got %v", kinds)
	}
}

func TestUpdateStatusRequiresOwningRestaurant(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	other := f.restaurant()
	influencer := f.influencer(1000)
	campaign := f.published(owner, 1)
	application := f.apply(influencer, campaign.ID)

	_, err := f.svc.Applications.UpdateStatus(f.ctx, other, application.ID, models.ApplicationAccepted)
	expectKind(t, err, KindAuthorization)
	_, err = f.svc.Applications.UpdateStatus(f.ctx, influencer, application.ID, models.ApplicationAccepted)
	expectKind(t, err, KindAuthorization)
	_, err = f.svc.Applications.UpdateStatus(f.ctx, owner, application.ID, models.ApplicationPending)
	expectKind(t, err, KindValidation)
	_, err = f.svc.Applications.UpdateStatus(f.ctx, owner, 999, models.ApplicationAccepted)
	expectKind(t, err, KindNotFound)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	a := f.influencer(1000)
	b := f.influencer(1000)
	campaign := f.published(owner, 1)

	appA := f.apply(a, campaign.ID)
	appB := f.apply(b, campaign.ID)
	f.accept(owner, appA.ID)

	err := f.svc.Applications.Withdraw(f.ctx, a, appA.ID)
	expectKind(t, err, KindInvalidState)

	err = f.svc.Applications.Withdraw(f.ctx, a, appB.ID)
	expectKind(t, err, KindAuthorization)

	if err := f.svc.Applications.Withdraw(f.ctx, b, appB.ID); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if _, err := f.store.GetApplication(f.ctx, appB.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected withdrawn application to be removed, got %v", err)
	}
	if kinds := f.notifier.kinds(owner.UserID); kinds[len(kinds)-1] != models.NotifyApplicationWithdrawn {
		t.Fatalf("expected restaurant to be notified of withdrawal, got %v", kinds)
	}
}

func TestWithdrawnPendingApplicationFreesCapacityCheck(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	a := f.influencer(1000)
	b := f.influencer(1000)
	campaign := f.published(owner, 1)

	appA := f.apply(a, campaign.ID)
	if err := f.svc.Applications.Withdraw(f.ctx, a, appA.ID); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	appB := f.apply(b, campaign.ID)
	f.accept(owner, appB.ID)

	if got := f.acceptedCount(campaign.ID); got != 1 {
		t.Fatalf("expected 1 accepted, got %d", got)
	}
	// 撤回后可以重新报名，此时名额已满
	_, err := f.svc.Applications.Apply(f.ctx, a, campaign.ID, "")
	expectKind(t, err, KindCapacity)
}

func TestNotifierFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	influencer := f.influencer(1000)
	campaign := f.published(owner, 1)
	f.notifier.err = errors.New("smtp unavailable")

	application, err := f.svc.Applications.Apply(f.ctx, influencer, campaign.ID, "")
	if err != nil {
		t.Fatalf("expected apply to succeed despite notifier failure, got %v", err)
	}
	if _, err := f.store.GetApplication(f.ctx, application.ID); err != nil {
		t.Fatalf("expected application to be stored, got %v", err)
	}

	if _, err := f.svc.Applications.UpdateStatus(f.ctx, owner, application.ID, models.ApplicationAccepted); err != nil {
		t.Fatalf("expected accept to succeed despite notifier failure, got %v", err)
	}
	if got := f.acceptedCount(campaign.ID); got != 1 {
		t.Fatalf("expected accept to persist, got %d accepted", got)
	}
}

func TestApplicationVisibility(t *testing.T) {
	f := newFixture(t)
	owner := f.restaurant()
	other := f.restaurant()
	influencer := f.influencer(1000)
	stranger := f.influencer(1000)
	admin := f.admin()
	campaign := f.published(owner, 1)
	application := f.apply(influencer, campaign.ID)

	for _, actor := range []Actor{owner, influencer, admin} {
		if _, err := f.svc.Applications.Get(f.ctx, actor, application.ID); err != nil {
			t.Fatalf("expected %s to see application, got %v", actor.Role, err)
		}
	}
	for _, actor := range []Actor{other, stranger} {
		_, err := f.svc.Applications.Get(f.ctx, actor, application.ID)
		expectKind(t, err, KindAuthorization)
	}

	own, err := f.svc.Applications.ListOwn(f.ctx, influencer, models.ApplicationPending)
	if err != nil {
		t.Fatalf("ListOwn returned error: %v", err)
	}
	if len(own) != 1 || own[0].ID != application.ID {
		t.Fatalf("expected own pending application, got %+v", own)
	}
	_, err = f.svc.Applications.ListForCampaign(f.ctx, other, campaign.ID, "")
	expectKind(t, err, KindAuthorization)
}
