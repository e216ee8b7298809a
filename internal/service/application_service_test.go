package service

import (
	"testing"
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

func TestApplicationReviewScenario(t *testing.T) {
	f := newFixture(t)
	apps := f.applicationService()
	coCaller, co := f.company("acme")
	kCaller, k := f.craftworker("k", "Kim", "Austin", "welding")
	job := f.job(co.ID, "j1", domain.JobOpen)

	app, err := apps.Apply(f.ctx, kCaller, job.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if app.Status != domain.ApplicationPending || app.SubmittedBy != domain.SubmittedBySelf || app.ProviderID != nil {
		t.Fatalf("unexpected application %+v", app)
	}
	if !app.AppliedAt.Equal(f.now) {
		t.Fatalf("expected appliedAt %v, got %v", f.now, app.AppliedAt)
	}
	if got := f.pub.types(co.UserID); len(got) != 1 || got[0] != domain.EventApplicationCreated {
		t.Fatalf("expected company to be notified, got %v", got)
	}

	f.now = f.now.Add(time.Hour)
	reviewed, err := apps.Review(f.ctx, coCaller, app.ID, domain.ApplicationApproved, strptr("great fit"))
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if reviewed.Status != domain.ApplicationApproved || reviewed.Notes != "great fit" {
		t.Fatalf("unexpected review result %+v", reviewed)
	}
	if reviewed.ReviewedAt == nil || !reviewed.ReviewedAt.Equal(f.now) {
		t.Fatalf("expected reviewedAt set to %v, got %v", f.now, reviewed.ReviewedAt)
	}
	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != co.ID {
		t.Fatalf("expected reviewedBy %s, got %v", co.ID, reviewed.ReviewedBy)
	}
	if got := f.pub.types(k.UserID); len(got) != 1 || got[0] != domain.EventApplicationReviewed {
		t.Fatalf("expected craftworker to be notified, got %v", got)
	}

	if err := apps.Withdraw(f.ctx, kCaller, app.ID); !domain.IsKind(err, domain.KindInvalidState) {
		t.Fatalf("expected invalid state on withdraw after review, got %v", err)
	}
}

func TestReviewIsIdempotentAndFinal(t *testing.T) {
	f := newFixture(t)
	apps := f.applicationService()
	coCaller, co := f.company("acme")
	kCaller, _ := f.craftworker("k", "Kim", "Austin")
	job := f.job(co.ID, "j1", domain.JobOpen)

	app, err := apps.Apply(f.ctx, kCaller, job.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	first, err := apps.Review(f.ctx, coCaller, app.ID, domain.ApplicationRejected, strptr("no certs"))
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}

	f.now = f.now.Add(24 * time.Hour)
	again, err := apps.Review(f.ctx, coCaller, app.ID, domain.ApplicationRejected, nil)
	if err != nil {
		t.Fatalf("repeat review failed: %v", err)
	}
	if !again.ReviewedAt.Equal(*first.ReviewedAt) || again.Notes != "no certs" {
		t.Fatalf("expected first reviewedAt and notes kept, got %v %q", again.ReviewedAt, again.Notes)
	}

	if _, err := apps.Review(f.ctx, coCaller, app.ID, domain.ApplicationApproved, nil); !domain.IsKind(err, domain.KindInvalidState) {
		t.Fatalf("expected reversing a decision to fail, got %v", err)
	}
	if _, err := apps.Review(f.ctx, coCaller, app.ID, domain.ApplicationPending, nil); !domain.IsKind(err, domain.KindInvalidState) {
		t.Fatalf("expected pending target to fail, got %v", err)
	}
}

func TestReviewRequiresOwningCompany(t *testing.T) {
	f := newFixture(t)
	apps := f.applicationService()
	_, co := f.company("acme")
	otherCaller, _ := f.company("rival")
	kCaller, _ := f.craftworker("k", "Kim", "Austin")
	job := f.job(co.ID, "j1", domain.JobOpen)

	app, err := apps.Apply(f.ctx, kCaller, job.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := apps.Review(f.ctx, otherCaller, app.ID, domain.ApplicationApproved, nil); !domain.IsKind(err, domain.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := apps.Review(f.ctx, otherCaller, "missing", domain.ApplicationApproved, nil); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	stored, _ := f.store.Applications().GetByID(f.ctx, app.ID)
	if stored.Status != domain.ApplicationPending || stored.ReviewedAt != nil {
		t.Fatalf("application must be unchanged, got %+v", stored)
	}
}

func TestApplyUniquenessAndClosedJob(t *testing.T) {
	f := newFixture(t)
	apps := f.applicationService()
	_, co := f.company("acme")
	kCaller, k := f.craftworker("k", "Kim", "Austin")
	open := f.job(co.ID, "open", domain.JobOpen)
	closed := f.job(co.ID, "closed", domain.JobClosed)

	if _, err := apps.Apply(f.ctx, kCaller, open.ID); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := apps.Apply(f.ctx, kCaller, open.ID); !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected conflict on second application, got %v", err)
	}
	if _, err := apps.Apply(f.ctx, kCaller, closed.ID); !domain.IsKind(err, domain.KindInvalidState) {
		t.Fatalf("expected invalid state for closed job, got %v", err)
	}
	if _, err := apps.Apply(f.ctx, kCaller, "missing"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found for unknown job, got %v", err)
	}

	list, err := f.store.Applications().List(f.ctx, domain.ApplicationFilter{CraftworkerID: k.ID})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected exactly one stored application, got %d err=%v", len(list), err)
	}
}

func TestProviderSubmissionScenario(t *testing.T) {
	f := newFixture(t)
	roster := f.rosterService()
	apps := f.applicationService()
	_, co := f.company("acme")
	pCaller, p := f.provider("p")
	_, k1 := f.craftworker("k1", "Kim", "Austin")
	_, k2 := f.craftworker("k2", "Lee", "Austin")
	job := f.job(co.ID, "j1", domain.JobOpen)

	if _, err := roster.Add(f.ctx, pCaller, k1.ID); err != nil {
		t.Fatalf("add k1 failed: %v", err)
	}
	if _, err := roster.Add(f.ctx, pCaller, k2.ID); err != nil {
		t.Fatalf("add k2 failed: %v", err)
	}
	if _, err := roster.SetStatus(f.ctx, pCaller, k2.ID, domain.RosterInactive); err != nil {
		t.Fatalf("deactivate k2 failed: %v", err)
	}

	if _, err := apps.ApplyOnBehalf(f.ctx, pCaller, job.ID, k2.ID); !domain.IsKind(err, domain.KindForbidden) {
		t.Fatalf("expected forbidden for inactive member, got %v", err)
	}
	_, stranger := f.craftworker("k3", "Sam", "Austin")
	if _, err := apps.ApplyOnBehalf(f.ctx, pCaller, job.ID, stranger.ID); !domain.IsKind(err, domain.KindForbidden) {
		t.Fatalf("expected forbidden for non-member, got %v", err)
	}

	app, err := apps.ApplyOnBehalf(f.ctx, pCaller, job.ID, k1.ID)
	if err != nil {
		t.Fatalf("apply on behalf failed: %v", err)
	}
	if app.SubmittedBy != domain.SubmittedByProvider || app.ProviderID == nil || *app.ProviderID != p.ID {
		t.Fatalf("unexpected application %+v", app)
	}

	submitted, err := apps.ListSubmitted(f.ctx, pCaller, "")
	if err != nil {
		t.Fatalf("list submitted failed: %v", err)
	}
	if len(submitted) != 1 || submitted[0].Craftworker == nil || submitted[0].Craftworker.ID != k1.ID {
		t.Fatalf("unexpected submitted list %+v", submitted)
	}
	if submitted[0].Job == nil || submitted[0].Job.CompanyName != co.CompanyName {
		t.Fatalf("expected job joined with company name, got %+v", submitted[0].Job)
	}
}

func TestProviderReviewNotifiesProvider(t *testing.T) {
	f := newFixture(t)
	roster := f.rosterService()
	apps := f.applicationService()
	coCaller, co := f.company("acme")
	pCaller, p := f.provider("p")
	_, k := f.craftworker("k", "Kim", "Austin")
	job := f.job(co.ID, "j1", domain.JobOpen)

	if _, err := roster.Add(f.ctx, pCaller, k.ID); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	app, err := apps.ApplyOnBehalf(f.ctx, pCaller, job.ID, k.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := apps.Review(f.ctx, coCaller, app.ID, domain.ApplicationApproved, nil); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	if got := f.pub.types(p.UserID); len(got) != 1 || got[0] != domain.EventApplicationReviewed {
		t.Fatalf("expected provider notified of review, got %v", got)
	}

	applicants, err := apps.ListApplicants(f.ctx, coCaller, job.ID)
	if err != nil {
		t.Fatalf("list applicants failed: %v", err)
	}
	if len(applicants) != 1 || applicants[0].Provider == nil || applicants[0].Provider.CompanyName != p.CompanyName {
		t.Fatalf("expected provider name joined, got %+v", applicants)
	}
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	apps := f.applicationService()
	_, co := f.company("acme")
	kCaller, _ := f.craftworker("k", "Kim", "Austin")
	otherCaller, _ := f.craftworker("o", "Oli", "Austin")
	job := f.job(co.ID, "j1", domain.JobOpen)

	app, err := apps.Apply(f.ctx, kCaller, job.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := apps.Withdraw(f.ctx, otherCaller, app.ID); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found for someone else's application, got %v", err)
	}
	if err := apps.Withdraw(f.ctx, kCaller, app.ID); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if _, err := f.store.Applications().GetByID(f.ctx, app.ID); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected application deleted, got %v", err)
	}
	got := f.pub.types(co.UserID)
	if len(got) != 2 || got[1] != domain.EventApplicationWithdrawn {
		t.Fatalf("expected withdrawn event for company, got %v", got)
	}

	// the pair is free again
	if _, err := apps.Apply(f.ctx, kCaller, job.ID); err != nil {
		t.Fatalf("re-apply after withdraw failed: %v", err)
	}
}

func TestListMineOrderAndFilter(t *testing.T) {
	f := newFixture(t)
	apps := f.applicationService()
	coCaller, co := f.company("acme")
	kCaller, _ := f.craftworker("k", "Kim", "Austin")
	j1 := f.job(co.ID, "j1", domain.JobOpen)
	j2 := f.job(co.ID, "j2", domain.JobOpen)

	first, err := apps.Apply(f.ctx, kCaller, j1.ID)
	if err != nil {
		t.Fatalf("apply j1 failed: %v", err)
	}
	f.now = f.now.Add(time.Minute)
	second, err := apps.Apply(f.ctx, kCaller, j2.ID)
	if err != nil {
		t.Fatalf("apply j2 failed: %v", err)
	}

	all, err := apps.ListMine(f.ctx, kCaller, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Fatalf("expected newest first, got %v then %v", all[0].ID, all[1].ID)
	}
	if all[0].Job == nil || all[0].Job.Title != j2.Title {
		t.Fatalf("expected job joined, got %+v", all[0].Job)
	}

	if _, err := apps.Review(f.ctx, coCaller, first.ID, domain.ApplicationApproved, nil); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	approved, err := apps.ListMine(f.ctx, kCaller, domain.ApplicationApproved)
	if err != nil || len(approved) != 1 || approved[0].ID != first.ID {
		t.Fatalf("expected one approved application, got %v err=%v", approved, err)
	}
	if _, err := apps.ListMine(f.ctx, kCaller, "done"); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	view, err := apps.GetMine(f.ctx, kCaller, second.ID)
	if err != nil || view.ID != second.ID {
		t.Fatalf("get mine failed: %v", err)
	}
}

func TestDeletingJobRemovesApplications(t *testing.T) {
	f := newFixture(t)
	apps := f.applicationService()
	jobs := NewJobService(f.store, nil, 0, nil, nil)
	coCaller, co := f.company("acme")
	kCaller, _ := f.craftworker("k", "Kim", "Austin")
	job := f.job(co.ID, "j1", domain.JobOpen)

	app, err := apps.Apply(f.ctx, kCaller, job.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := jobs.Delete(f.ctx, coCaller, job.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := f.store.Applications().GetByID(f.ctx, app.ID); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected application removed with job, got %v", err)
	}
}
