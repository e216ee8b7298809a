package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/service"
)

// CraftworkerHandler serves a craftworker's profile, the job board and
// self-submitted applications.
type CraftworkerHandler struct {
	profiles     *service.ProfileService
	jobs         *service.JobService
	applications *service.ApplicationService
	logger       *slog.Logger
}

func NewCraftworkerHandler(profiles *service.ProfileService, jobs *service.JobService, applications *service.ApplicationService, logger *slog.Logger) *CraftworkerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CraftworkerHandler{
		profiles:     profiles,
		jobs:         jobs,
		applications: applications,
		logger:       logger,
	}
}

// ApplyRequest is the body of POST /api/craftworker/applications
type ApplyRequest struct {
	JobID string `json:"jobId"`
}

func (h *CraftworkerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	getProfile(w, r, h.profiles, h.logger)
}

func (h *CraftworkerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	var patch service.CraftworkerPatch
	if err := decode(r, &patch); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	c, err := h.profiles.UpdateCraftworker(r.Context(), caller, patch)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Profile updated", service.ViewOf(c))
}

// ListJobs handles GET /api/craftworker/jobs?status=&location=&skills=
func (h *CraftworkerHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	listPublicJobs(w, r, h.jobs, h.logger)
}

func (h *CraftworkerHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	getPublicJob(w, r, h.jobs, h.logger)
}

// Apply handles POST /api/craftworker/applications
func (h *CraftworkerHandler) Apply(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	var req ApplyRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	app, err := h.applications.Apply(r.Context(), caller, req.JobID)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, "Application submitted", app)
}

// ListApplications handles GET /api/craftworker/applications?status=
func (h *CraftworkerHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	apps, err := h.applications.ListMine(r.Context(), caller, domain.ApplicationStatus(r.URL.Query().Get("status")))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "", apps)
}

func (h *CraftworkerHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	app, err := h.applications.GetMine(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "", app)
}

// Withdraw handles DELETE /api/craftworker/applications/{id}
func (h *CraftworkerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.applications.Withdraw(r.Context(), caller, r.PathValue("id")); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Application withdrawn", nil)
}

// listPublicJobs serves the job board shared by craftworkers and providers
func listPublicJobs(w http.ResponseWriter, r *http.Request, jobs *service.JobService, log *slog.Logger) {
	q := service.PublicJobQuery{
		Status:   domain.JobStatus(r.URL.Query().Get("status")),
		Location: r.URL.Query().Get("location"),
		Skills:   queryList(r, "skills"),
	}
	list, err := jobs.PublicList(r.Context(), q)
	if err != nil {
		fail(w, r, log, err)
		return
	}
	respond(w, http.StatusOK, "", list)
}

func getPublicJob(w http.ResponseWriter, r *http.Request, jobs *service.JobService, log *slog.Logger) {
	job, err := jobs.PublicGet(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, log, err)
		return
	}
	respond(w, http.StatusOK, "", job)
}
