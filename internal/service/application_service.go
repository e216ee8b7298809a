package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/observability/metrics"
	"github.com/aryan0dhankhar/crafthire/internal/observability/tracing"
)

// ApplicationService enforces who may create, review and withdraw
// applications.
type ApplicationService struct {
	store    domain.Store
	notifier notifier
	logger   *slog.Logger
	now      Clock
}

// NewApplicationService creates an application service
func NewApplicationService(store domain.Store, pub domain.EventPublisher, logger *slog.Logger) *ApplicationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplicationService{
		store:    store,
		notifier: newNotifier(pub, logger),
		logger:   logger,
		now:      utcNow,
	}
}

// Apply files a self-submitted application for the calling craftworker
func (s *ApplicationService) Apply(ctx context.Context, caller domain.Caller, jobID string) (*domain.Application, error) {
	ctx, span := tracing.Start(ctx, "application", "apply", attribute.String("job.id", jobID))
	var err error
	defer func() { tracing.End(span, err) }()

	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		err = domain.Validation("Job ID is required")
		return nil, err
	}

	var (
		app *domain.Application
		job *domain.Job
	)
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		c, err := craftworkerOf(ctx, tx, caller)
		if err != nil {
			return err
		}
		app, job, err = s.create(ctx, tx, jobID, c.ID, domain.SubmittedBySelf, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	s.created(ctx, app, job)
	return app, nil
}

// ApplyOnBehalf files an application for a member of the calling
// provider's roster. The member must be active.
func (s *ApplicationService) ApplyOnBehalf(ctx context.Context, caller domain.Caller, jobID, craftworkerID string) (*domain.Application, error) {
	ctx, span := tracing.Start(ctx, "application", "apply_on_behalf",
		attribute.String("job.id", jobID),
		attribute.String("craftworker.id", craftworkerID),
	)
	var err error
	defer func() { tracing.End(span, err) }()

	jobID, craftworkerID = strings.TrimSpace(jobID), strings.TrimSpace(craftworkerID)
	switch {
	case jobID == "":
		err = domain.Validation("Job ID is required")
	case craftworkerID == "":
		err = domain.Validation("Craftworker ID is required")
	}
	if err != nil {
		return nil, err
	}

	var (
		app *domain.Application
		job *domain.Job
	)
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		// the roster lock keeps the membership check valid until commit
		p, err := lockedProvider(ctx, tx, caller)
		if err != nil {
			return err
		}
		if !p.HasActiveMember(craftworkerID) {
			return domain.Forbidden("Craftworker must be in your active roster")
		}
		app, job, err = s.create(ctx, tx, jobID, craftworkerID, domain.SubmittedByProvider, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.created(ctx, app, job)
	return app, nil
}

func (s *ApplicationService) create(ctx context.Context, tx domain.Store, jobID, craftworkerID string, channel domain.SubmissionChannel, providerID string) (*domain.Application, *domain.Job, error) {
	job, err := tx.Jobs().GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, notFoundAs(err, "Job not found")
	}
	if !job.IsOpen() {
		return nil, nil, domain.InvalidState("Job is not open for applications")
	}

	if _, err := tx.Applications().FindByJobAndCraftworker(ctx, jobID, craftworkerID); err == nil {
		return nil, nil, domain.Conflict("Application already exists for this job")
	} else if !domain.IsKind(err, domain.KindNotFound) {
		return nil, nil, fmt.Errorf("failed to check existing application: %w", err)
	}

	app, err := domain.NewApplication(uuid.NewString(), jobID, craftworkerID, channel, providerID, s.now())
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Applications().Create(ctx, app); err != nil {
		if domain.IsKind(err, domain.KindConflict) {
			return nil, nil, domain.Wrap(domain.KindConflict, "Application already exists for this job", err)
		}
		return nil, nil, fmt.Errorf("failed to create application: %w", err)
	}
	return app, job, nil
}

func (s *ApplicationService) created(ctx context.Context, app *domain.Application, job *domain.Job) {
	metrics.ObserveApplicationCreated(string(app.SubmittedBy))
	s.logger.Info("application submitted",
		slog.String("application_id", app.ID),
		slog.String("job_id", app.JobID),
		slog.String("craftworker_id", app.CraftworkerID),
		slog.String("submitted_by", string(app.SubmittedBy)),
	)
	s.notifier.notify(ctx, s.companyUser(ctx, job.CompanyID), eventFor(domain.EventApplicationCreated, app, app.AppliedAt))
}

// Review moves an application of one of the caller's jobs to approved or
// rejected. Repeating the current decision is accepted and keeps the
// first reviewedAt; reversing a decision is an invalid state.
func (s *ApplicationService) Review(ctx context.Context, caller domain.Caller, applicationID string, status domain.ApplicationStatus, notes *string) (*domain.Application, error) {
	ctx, span := tracing.Start(ctx, "application", "review",
		attribute.String("application.id", applicationID),
		attribute.String("application.status", string(status)),
	)
	var err error
	defer func() { tracing.End(span, err) }()

	if !status.Terminal() {
		err = domain.InvalidState("Status must be approved or rejected")
		return nil, err
	}

	var app *domain.Application
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		company, err := companyOf(ctx, tx, caller)
		if err != nil {
			return err
		}
		a, err := tx.Applications().GetByID(ctx, applicationID)
		if err != nil {
			return notFoundAs(err, "Application not found")
		}
		job, err := tx.Jobs().GetByID(ctx, a.JobID)
		if err != nil {
			return notFoundAs(err, "Job not found")
		}
		if job.CompanyID != company.ID {
			return domain.Forbidden("Not authorized for this job/application")
		}
		if err := a.Review(status, company.ID, notes, s.now()); err != nil {
			return err
		}
		if err := tx.Applications().Update(ctx, a); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}
		app = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveApplicationTransition(string(app.Status))
	s.logger.Info("application reviewed",
		slog.String("application_id", app.ID),
		slog.String("status", string(app.Status)),
	)

	ev := eventFor(domain.EventApplicationReviewed, app, s.now())
	s.notifier.notify(ctx, s.craftworkerUser(ctx, app.CraftworkerID), ev)
	if app.SubmittedBy == domain.SubmittedByProvider && app.ProviderID != nil {
		s.notifier.notify(ctx, s.providerUser(ctx, *app.ProviderID), ev)
	}
	return app, nil
}

// Withdraw deletes one of the calling craftworker's applications while it
// is still pending.
func (s *ApplicationService) Withdraw(ctx context.Context, caller domain.Caller, applicationID string) error {
	ctx, span := tracing.Start(ctx, "application", "withdraw", attribute.String("application.id", applicationID))
	var err error
	defer func() { tracing.End(span, err) }()

	var (
		app *domain.Application
		job *domain.Job
	)
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		c, err := craftworkerOf(ctx, tx, caller)
		if err != nil {
			return err
		}
		a, err := tx.Applications().GetByID(ctx, applicationID)
		if err != nil {
			return notFoundAs(err, "Application not found")
		}
		if a.CraftworkerID != c.ID {
			return domain.NotFound("Application not found")
		}
		if !a.Withdrawable() {
			return domain.InvalidState("Cannot withdraw application that has been reviewed")
		}
		j, err := tx.Jobs().GetByID(ctx, a.JobID)
		if err != nil && !domain.IsKind(err, domain.KindNotFound) {
			return fmt.Errorf("failed to load job: %w", err)
		}
		if err := tx.Applications().Delete(ctx, a.ID); err != nil {
			return notFoundAs(err, "Application not found")
		}
		app, job = a, j
		return nil
	})
	if err != nil {
		return err
	}

	metrics.ObserveApplicationWithdrawn()
	s.logger.Info("application withdrawn", slog.String("application_id", app.ID))
	if job != nil {
		s.notifier.notify(ctx, s.companyUser(ctx, job.CompanyID), eventFor(domain.EventApplicationWithdrawn, app, s.now()))
	}
	return nil
}

// ListMine returns the calling craftworker's applications, newest first
func (s *ApplicationService) ListMine(ctx context.Context, caller domain.Caller, status domain.ApplicationStatus) ([]ApplicationView, error) {
	if err := checkStatusFilter(status); err != nil {
		return nil, err
	}
	c, err := craftworkerOf(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	apps, err := s.store.Applications().List(ctx, domain.ApplicationFilter{CraftworkerID: c.ID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return newJoiner(s.store).views(ctx, apps, joinJob)
}

// GetMine returns one of the calling craftworker's applications
func (s *ApplicationService) GetMine(ctx context.Context, caller domain.Caller, applicationID string) (ApplicationView, error) {
	c, err := craftworkerOf(ctx, s.store, caller)
	if err != nil {
		return ApplicationView{}, err
	}
	app, err := s.store.Applications().GetByID(ctx, applicationID)
	if err != nil {
		return ApplicationView{}, notFoundAs(err, "Application not found")
	}
	if app.CraftworkerID != c.ID {
		return ApplicationView{}, domain.NotFound("Application not found")
	}
	views, err := newJoiner(s.store).views(ctx, []*domain.Application{app}, joinJob)
	if err != nil {
		return ApplicationView{}, err
	}
	return views[0], nil
}

// ListSubmitted returns applications the calling provider filed
func (s *ApplicationService) ListSubmitted(ctx context.Context, caller domain.Caller, status domain.ApplicationStatus) ([]ApplicationView, error) {
	if err := checkStatusFilter(status); err != nil {
		return nil, err
	}
	p, err := providerOf(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	apps, err := s.store.Applications().List(ctx, domain.ApplicationFilter{ProviderID: p.ID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return newJoiner(s.store).views(ctx, apps, joinJob|joinCraftworker)
}

// ListApplicants returns the applications filed against one of the
// caller's jobs
func (s *ApplicationService) ListApplicants(ctx context.Context, caller domain.Caller, jobID string) ([]ApplicationView, error) {
	company, err := companyOf(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	if _, err := ownedJob(ctx, s.store, company.ID, jobID); err != nil {
		return nil, err
	}
	apps, err := s.store.Applications().List(ctx, domain.ApplicationFilter{JobID: jobID})
	if err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	return newJoiner(s.store).views(ctx, apps, joinCraftworker|joinProvider)
}

func checkStatusFilter(status domain.ApplicationStatus) error {
	if status != "" && !status.Valid() {
		return domain.Validation("Status must be pending, approved or rejected")
	}
	return nil
}

func eventFor(t domain.EventType, app *domain.Application, at time.Time) domain.Event {
	ev := domain.Event{
		Type:          t,
		ApplicationID: app.ID,
		JobID:         app.JobID,
		CraftworkerID: app.CraftworkerID,
		Status:        string(app.Status),
		OccurredAt:    at,
	}
	if app.ProviderID != nil {
		ev.ProviderID = *app.ProviderID
	}
	return ev
}

func (s *ApplicationService) companyUser(ctx context.Context, companyID string) string {
	c, err := s.store.Companies().GetByID(ctx, companyID)
	if err != nil {
		s.logger.Warn("cannot resolve event recipient", slog.String("company_id", companyID), slog.String("error", err.Error()))
		return ""
	}
	return c.UserID
}

func (s *ApplicationService) craftworkerUser(ctx context.Context, craftworkerID string) string {
	c, err := s.store.Craftworkers().GetByID(ctx, craftworkerID)
	if err != nil {
		s.logger.Warn("cannot resolve event recipient", slog.String("craftworker_id", craftworkerID), slog.String("error", err.Error()))
		return ""
	}
	return c.UserID
}

func (s *ApplicationService) providerUser(ctx context.Context, providerID string) string {
	p, err := s.store.Providers().GetByID(ctx, providerID)
	if err != nil {
		s.logger.Warn("cannot resolve event recipient", slog.String("provider_id", providerID), slog.String("error", err.Error()))
		return ""
	}
	return p.UserID
}
