package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/service"
)

// ProviderHandler serves a craft provider's profile, roster, craftworker
// search and the applications it files for roster members.
type ProviderHandler struct {
	profiles     *service.ProfileService
	roster       *service.RosterService
	jobs         *service.JobService
	applications *service.ApplicationService
	logger       *slog.Logger
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(profiles *service.ProfileService, roster *service.RosterService, jobs *service.JobService, applications *service.ApplicationService, logger *slog.Logger) *ProviderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderHandler{
		profiles:     profiles,
		roster:       roster,
		jobs:         jobs,
		applications: applications,
		logger:       logger,
	}
}

// RosterAddRequest is the body of POST /api/provider/roster
type RosterAddRequest struct {
	CraftsmanID string `json:"craftsmanId"`
}

// RosterStatusRequest is the body of PUT /api/provider/roster/{craftsmanId}/status
type RosterStatusRequest struct {
	Status domain.RosterStatus `json:"status"`
}

// ProviderApplyRequest is the body of POST /api/provider/applications
type ProviderApplyRequest struct {
	JobID       string `json:"jobId"`
	CraftsmanID string `json:"craftsmanId"`
}

func (h *ProviderHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	getProfile(w, r, h.profiles, h.logger)
}

func (h *ProviderHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	var patch service.CompanyPatch
	if err := decode(r, &patch); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	p, err := h.profiles.UpdateProvider(r.Context(), caller, patch)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Profile updated", service.ViewOf(p))
}

// Roster handles GET /api/provider/roster
func (h *ProviderHandler) Roster(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	members, err := h.roster.Roster(r.Context(), caller)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "", members)
}

// AddToRoster handles POST /api/provider/roster
func (h *ProviderHandler) AddToRoster(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	var req RosterAddRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	roster, err := h.roster.Add(r.Context(), caller, req.CraftsmanID)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Craftworker added to roster", roster)
}

// RemoveFromRoster handles DELETE /api/provider/roster/{craftsmanId}
func (h *ProviderHandler) RemoveFromRoster(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.roster.Remove(r.Context(), caller, r.PathValue("craftsmanId")); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Craftworker removed from roster", nil)
}

// SetRosterStatus handles PUT /api/provider/roster/{craftsmanId}/status
func (h *ProviderHandler) SetRosterStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	var req RosterStatusRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	entry, err := h.roster.SetStatus(r.Context(), caller, r.PathValue("craftsmanId"), req.Status)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Roster status updated", entry)
}

// Search handles GET /api/provider/craftworkers/search?search=&location=&skills=&page=&limit=
func (h *ProviderHandler) Search(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	res, err := h.roster.Search(r.Context(), caller, service.SearchQuery{
		Name:     r.URL.Query().Get("search"),
		Location: r.URL.Query().Get("location"),
		Skills:   queryList(r, "skills"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "", res)
}

func (h *ProviderHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	listPublicJobs(w, r, h.jobs, h.logger)
}

func (h *ProviderHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	getPublicJob(w, r, h.jobs, h.logger)
}

// Apply handles POST /api/provider/applications
func (h *ProviderHandler) Apply(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	var req ProviderApplyRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	app, err := h.applications.ApplyOnBehalf(r.Context(), caller, req.JobID, req.CraftsmanID)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, "Application submitted", app)
}

// ListApplications handles GET /api/provider/applications?status=
func (h *ProviderHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}
	apps, err := h.applications.ListSubmitted(r.Context(), caller, domain.ApplicationStatus(r.URL.Query().Get("status")))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "", apps)
}
