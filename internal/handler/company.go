package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/service"
)

// CompanyHandler serves the company profile, its job postings and the
// review of applicants.
type CompanyHandler struct {
	profiles     *service.ProfileService
	jobs         *service.JobService
	applications *service.ApplicationService
	logger       *slog.Logger
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(profiles *service.ProfileService, jobs *service.JobService, applications *service.ApplicationService, logger *slog.Logger) *CompanyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompanyHandler{
		profiles:     profiles,
		jobs:         jobs,
		applications: applications,
		logger:       logger,
	}
}

// ReviewRequest is the body of PUT /api/company/applications/{id}/status
type ReviewRequest struct {
	Status domain.ApplicationStatus `json:"status"`
	Notes  *string                  `json:"notes"`
}

// GetProfile handles GET /api/company/profile
func (h *CompanyHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	getProfile(w, r, h.profiles, h.logger)
}

// UpdateProfile handles PUT /api/company/profile
func (h *CompanyHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	var patch service.CompanyPatch
	if err := decode(r, &patch); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	c, err := h.profiles.UpdateCompany(r.Context(), caller, patch)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Profile updated", service.ViewOf(c))
}

// CreateJob handles POST /api/company/jobs
func (h *CompanyHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	var in service.JobInput
	if err := decode(r, &in); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	job, err := h.jobs.Create(r.Context(), caller, in)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, "Job created", job)
}

// ListJobs handles GET /api/company/jobs?status=
func (h *CompanyHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	jobs, err := h.jobs.List(r.Context(), caller, domain.JobStatus(r.URL.Query().Get("status")))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "", jobs)
}

// GetJob handles GET /api/company/jobs/{id}
func (h *CompanyHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	job, err := h.jobs.Get(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "", job)
}

// UpdateJob handles PUT /api/company/jobs/{id}
func (h *CompanyHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	var patch service.JobPatch
	if err := decode(r, &patch); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	job, err := h.jobs.Update(r.Context(), caller, r.PathValue("id"), patch)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Job updated", job)
}

// DeleteJob handles DELETE /api/company/jobs/{id}
func (h *CompanyHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.jobs.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Job deleted", nil)
}

// ListApplicants handles GET /api/company/jobs/{id}/applicants
func (h *CompanyHandler) ListApplicants(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	apps, err := h.applications.ListApplicants(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "", apps)
}

// ReviewApplication handles PUT /api/company/applications/{id}/status
func (h *CompanyHandler) ReviewApplication(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	var req ReviewRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	app, err := h.applications.Review(r.Context(), caller, r.PathValue("id"), req.Status, req.Notes)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Application "+string(app.Status), app)
}

// getProfile serves GET */profile for any role
func getProfile(w http.ResponseWriter, r *http.Request, profiles *service.ProfileService, log *slog.Logger) {
	caller, ok := callerOf(w, r, log)
	if !ok {
		return
	}
	p, err := profiles.Get(r.Context(), caller)
	if err != nil {
		fail(w, r, log, err)
		return
	}
	respond(w, http.StatusOK, "", service.ViewOf(p))
}
