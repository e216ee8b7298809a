package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/featureflags"
	"github.com/aryan0dhankhar/crafthire/internal/observability/metrics"
	"github.com/aryan0dhankhar/crafthire/internal/observability/tracing"
	"github.com/aryan0dhankhar/crafthire/internal/validation"
	"github.com/aryan0dhankhar/crafthire/pkg/cache"
)

const (
	// PublicJobsCachePrefix namespaces cached public listings
	PublicJobsCachePrefix = "jobs:public:"
	publicJobsLimit       = 100
	defaultJobsCacheTTL   = time.Minute
)

// JobInput is the full set of job fields a company submits
type JobInput struct {
	Title                  string           `json:"title" validate:"required,max=100"`
	Description            string           `json:"description" validate:"required,max=2000"`
	SkillsRequired         []string         `json:"skillsRequired" validate:"dive,max=50"`
	Location               string           `json:"location" validate:"required,max=120"`
	StartDate              time.Time        `json:"startDate" validate:"required"`
	EndDate                time.Time        `json:"endDate" validate:"required,gtfield=StartDate"`
	NumberOfPositions      int              `json:"numberOfPositions" validate:"min=1,max=1000"`
	CertificationsRequired []string         `json:"certificationsRequired" validate:"dive,max=100"`
	DocumentsRequired      []string         `json:"documentsRequired" validate:"dive,max=50"`
	Status                 domain.JobStatus `json:"status" validate:"omitempty,oneof=open closed"`
}

// JobPatch is a partial job update; nil fields are kept
type JobPatch struct {
	Title                  *string           `json:"title"`
	Description            *string           `json:"description"`
	SkillsRequired         *[]string         `json:"skillsRequired"`
	Location               *string           `json:"location"`
	StartDate              *time.Time        `json:"startDate"`
	EndDate                *time.Time        `json:"endDate"`
	NumberOfPositions      *int              `json:"numberOfPositions"`
	CertificationsRequired *[]string         `json:"certificationsRequired"`
	DocumentsRequired      *[]string         `json:"documentsRequired"`
	Status                 *domain.JobStatus `json:"status"`
}

// PublicJobQuery filters the job board seen by craftworkers and providers
type PublicJobQuery struct {
	Status   domain.JobStatus
	Location string
	Skills   []string
}

// JobService manages company job postings and the public job board
type JobService struct {
	store    domain.Store
	cache    cache.Cache
	cacheTTL time.Duration
	validate *validation.Validator
	logger   *slog.Logger
	now      Clock
}

// NewJobService creates a job service. A nil cache disables listing caching.
func NewJobService(store domain.Store, c cache.Cache, cacheTTL time.Duration, validate *validation.Validator, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	if validate == nil {
		validate = validation.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultJobsCacheTTL
	}
	return &JobService{
		store:    store,
		cache:    c,
		cacheTTL: cacheTTL,
		validate: validate,
		logger:   logger,
		now:      utcNow,
	}
}

// Create posts a job for the caller's company
func (s *JobService) Create(ctx context.Context, caller domain.Caller, in JobInput) (JobView, error) {
	ctx, span := tracing.Start(ctx, "job", "create")
	var err error
	defer func() { tracing.End(span, err) }()

	company, err := companyOf(ctx, s.store, caller)
	if err != nil {
		return JobView{}, err
	}
	if in.Status == "" {
		in.Status = domain.JobOpen
	}
	if err = s.validate.Struct(in); err != nil {
		return JobView{}, err
	}

	job := &domain.Job{ID: uuid.NewString(), CompanyID: company.ID}
	in.copyTo(job)
	if err = s.store.Jobs().Create(ctx, job); err != nil {
		return JobView{}, fmt.Errorf("failed to create job: %w", err)
	}
	s.invalidatePublic(ctx)

	s.logger.Info("job created",
		slog.String("job_id", job.ID),
		slog.String("company_id", company.ID),
	)
	return jobView(job, nil, s.now()), nil
}

// List returns the caller's jobs, newest first
func (s *JobService) List(ctx context.Context, caller domain.Caller, status domain.JobStatus) ([]JobView, error) {
	company, err := companyOf(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, domain.Validation("Status must be open or closed")
	}
	jobs, err := s.store.Jobs().List(ctx, domain.JobFilter{CompanyID: company.ID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	now := s.now()
	out := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobView(j, nil, now))
	}
	return out, nil
}

// Get returns one of the caller's jobs. Another company's job is reported
// as not found.
func (s *JobService) Get(ctx context.Context, caller domain.Caller, id string) (JobView, error) {
	company, err := companyOf(ctx, s.store, caller)
	if err != nil {
		return JobView{}, err
	}
	job, err := ownedJob(ctx, s.store, company.ID, id)
	if err != nil {
		return JobView{}, err
	}
	return jobView(job, nil, s.now()), nil
}

// Update applies patch to one of the caller's jobs
func (s *JobService) Update(ctx context.Context, caller domain.Caller, id string, patch JobPatch) (JobView, error) {
	ctx, span := tracing.Start(ctx, "job", "update", attribute.String("job.id", id))
	var err error
	defer func() { tracing.End(span, err) }()

	var out *domain.Job
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		company, err := companyOf(ctx, tx, caller)
		if err != nil {
			return err
		}
		job, err := ownedJob(ctx, tx, company.ID, id)
		if err != nil {
			return err
		}
		in := jobInputOf(job)
		patch.apply(&in)
		if err := s.validate.Struct(in); err != nil {
			return err
		}
		in.copyTo(job)
		if err := tx.Jobs().Update(ctx, job); err != nil {
			return fmt.Errorf("failed to update job: %w", err)
		}
		out = job
		return nil
	})
	if err != nil {
		return JobView{}, err
	}
	s.invalidatePublic(ctx)

	s.logger.Info("job updated", slog.String("job_id", out.ID))
	return jobView(out, nil, s.now()), nil
}

// Delete removes one of the caller's jobs together with its applications
func (s *JobService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	ctx, span := tracing.Start(ctx, "job", "delete", attribute.String("job.id", id))
	var err error
	defer func() { tracing.End(span, err) }()

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		company, err := companyOf(ctx, tx, caller)
		if err != nil {
			return err
		}
		if _, err := ownedJob(ctx, tx, company.ID, id); err != nil {
			return err
		}
		if err := tx.Jobs().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete job: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidatePublic(ctx)

	s.logger.Info("job deleted", slog.String("job_id", id))
	return nil
}

// publicJob is the cached form of a board entry; day counts are derived
// on every read.
type publicJob struct {
	Job     *domain.Job     `json:"job"`
	Company *CompanySummary `json:"company,omitempty"`
}

// PublicList returns the job board: open jobs by default, newest first,
// at most 100.
func (s *JobService) PublicList(ctx context.Context, q PublicJobQuery) ([]JobView, error) {
	ctx, span := tracing.Start(ctx, "job", "public_list")
	var err error
	defer func() { tracing.End(span, err) }()

	if q.Status == "" {
		q.Status = domain.JobOpen
	}
	if !q.Status.Valid() {
		err = domain.Validation("Status must be open or closed")
		return nil, err
	}
	q.Location = strings.TrimSpace(q.Location)
	q.Skills = cleanSkills(q.Skills)

	key := publicJobsKey(q)
	entries, ok := s.cachedPublic(ctx, key)
	if !ok {
		entries, err = s.loadPublic(ctx, q)
		if err != nil {
			return nil, err
		}
		s.storePublic(ctx, key, entries)
	}

	now := s.now()
	out := make([]JobView, 0, len(entries))
	for _, e := range entries {
		out = append(out, jobView(e.Job, e.Company, now))
	}
	return out, nil
}

func (s *JobService) loadPublic(ctx context.Context, q PublicJobQuery) ([]publicJob, error) {
	jobs, err := s.store.Jobs().List(ctx, domain.JobFilter{
		Status:   q.Status,
		Location: q.Location,
		Skills:   q.Skills,
		Limit:    publicJobsLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list public jobs: %w", err)
	}

	companies := map[string]*CompanySummary{}
	out := make([]publicJob, 0, len(jobs))
	for _, j := range jobs {
		summary, seen := companies[j.CompanyID]
		if !seen {
			c, err := s.store.Companies().GetByID(ctx, j.CompanyID)
			if err != nil && !domain.IsKind(err, domain.KindNotFound) {
				return nil, fmt.Errorf("failed to load job company: %w", err)
			}
			summary = companySummary(c, false)
			companies[j.CompanyID] = summary
		}
		out = append(out, publicJob{Job: j, Company: summary})
	}
	return out, nil
}

// PublicGet returns any job joined with its company's contact details
func (s *JobService) PublicGet(ctx context.Context, id string) (JobView, error) {
	job, err := s.store.Jobs().GetByID(ctx, id)
	if err != nil {
		return JobView{}, notFoundAs(err, "Job not found")
	}
	c, err := s.store.Companies().GetByID(ctx, job.CompanyID)
	if err != nil && !domain.IsKind(err, domain.KindNotFound) {
		return JobView{}, fmt.Errorf("failed to load job company: %w", err)
	}
	return jobView(job, companySummary(c, true), s.now()), nil
}

func (s *JobService) cacheEnabled() bool {
	return s.cache != nil && featureflags.Enabled(featureflags.PublicJobCache)
}

func (s *JobService) cachedPublic(ctx context.Context, key string) ([]publicJob, bool) {
	if !s.cacheEnabled() {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("job cache read failed", slog.String("error", err.Error()))
		metrics.ObserveCacheLookup("error")
		return nil, false
	}
	if !ok {
		metrics.ObserveCacheLookup("miss")
		return nil, false
	}
	var entries []publicJob
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("discarding undecodable job cache entry", slog.String("error", err.Error()))
		metrics.ObserveCacheLookup("error")
		return nil, false
	}
	metrics.ObserveCacheLookup("hit")
	return entries, true
}

func (s *JobService) storePublic(ctx context.Context, key string, entries []publicJob) {
	if !s.cacheEnabled() {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		s.logger.Warn("failed to encode job cache entry", slog.String("error", err.Error()))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.Warn("job cache write failed", slog.String("error", err.Error()))
	}
}

func (s *JobService) invalidatePublic(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, PublicJobsCachePrefix); err != nil {
		s.logger.Warn("job cache invalidation failed", slog.String("error", err.Error()))
	}
}

func publicJobsKey(q PublicJobQuery) string {
	skills := append([]string(nil), q.Skills...)
	sort.Strings(skills)
	return PublicJobsCachePrefix + string(q.Status) + "|" + strings.ToLower(q.Location) + "|" + strings.Join(skills, ",")
}

func cleanSkills(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ownedJob loads a job and hides it unless companyID owns it
func ownedJob(ctx context.Context, store domain.Store, companyID, id string) (*domain.Job, error) {
	job, err := store.Jobs().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Job not found")
	}
	if job.CompanyID != companyID {
		return nil, domain.NotFound("Job not found")
	}
	return job, nil
}

func jobInputOf(j *domain.Job) JobInput {
	return JobInput{
		Title:                  j.Title,
		Description:            j.Description,
		SkillsRequired:         j.SkillsRequired,
		Location:               j.Location,
		StartDate:              j.StartDate,
		EndDate:                j.EndDate,
		NumberOfPositions:      j.NumberOfPositions,
		CertificationsRequired: j.CertificationsRequired,
		DocumentsRequired:      j.DocumentsRequired,
		Status:                 j.Status,
	}
}

func (in JobInput) copyTo(j *domain.Job) {
	j.Title = strings.TrimSpace(in.Title)
	j.Description = in.Description
	j.SkillsRequired = nonEmpty(in.SkillsRequired)
	j.Location = strings.TrimSpace(in.Location)
	j.StartDate = in.StartDate
	j.EndDate = in.EndDate
	j.NumberOfPositions = in.NumberOfPositions
	j.CertificationsRequired = nonEmpty(in.CertificationsRequired)
	j.DocumentsRequired = nonEmpty(in.DocumentsRequired)
	j.Status = in.Status
}

func (p JobPatch) apply(in *JobInput) {
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.SkillsRequired != nil {
		in.SkillsRequired = *p.SkillsRequired
	}
	if p.Location != nil {
		in.Location = *p.Location
	}
	if p.StartDate != nil {
		in.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		in.EndDate = *p.EndDate
	}
	if p.NumberOfPositions != nil {
		in.NumberOfPositions = *p.NumberOfPositions
	}
	if p.CertificationsRequired != nil {
		in.CertificationsRequired = *p.CertificationsRequired
	}
	if p.DocumentsRequired != nil {
		in.DocumentsRequired = *p.DocumentsRequired
	}
	if p.Status != nil && *p.Status != "" {
		in.Status = *p.Status
	}
}
