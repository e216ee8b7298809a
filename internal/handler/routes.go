package handler

import (
	"net/http"

	"github.com/aryan0dhankhar/crafthire/internal/security"
	"github.com/aryan0dhankhar/crafthire/internal/security/audit"
	"github.com/aryan0dhankhar/crafthire/internal/security/middleware"
)

// Routes groups the handlers and the role gate used to mount the API
type Routes struct {
	Auth        *AuthHandler
	Company     *CompanyHandler
	Craftworker *CraftworkerHandler
	Provider    *ProviderHandler
	Events      *EventsHandler
	Health      *HealthHandler

	Authz *security.AuthorizationService
	Audit *audit.Logger
}

// Register mounts every endpoint on mux. Role-scoped routes are wrapped
// in a permission check; authentication itself happens in the outer chain.
func (rt Routes) Register(mux *http.ServeMux) {
	gate := func(perm security.Permission, h http.HandlerFunc) http.Handler {
		return middleware.RequirePermission(rt.Authz, perm, rt.Audit)(h)
	}

	mux.HandleFunc("POST /api/auth/register", rt.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", rt.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", rt.Auth.Refresh)
	mux.HandleFunc("GET /api/auth/me", rt.Auth.Me)
	mux.HandleFunc("POST /api/auth/logout", rt.Auth.Logout)
	mux.HandleFunc("POST /api/auth/change-password", rt.Auth.ChangePassword)

	c := rt.Company
	mux.Handle("GET /api/company/profile", gate(security.PermManageOwnProfile, c.GetProfile))
	mux.Handle("PUT /api/company/profile", gate(security.PermManageOwnProfile, c.UpdateProfile))
	mux.Handle("POST /api/company/jobs", gate(security.PermManageJobs, c.CreateJob))
	mux.Handle("GET /api/company/jobs", gate(security.PermManageJobs, c.ListJobs))
	mux.Handle("GET /api/company/jobs/{id}", gate(security.PermManageJobs, c.GetJob))
	mux.Handle("PUT /api/company/jobs/{id}", gate(security.PermManageJobs, c.UpdateJob))
	mux.Handle("DELETE /api/company/jobs/{id}", gate(security.PermManageJobs, c.DeleteJob))
	mux.Handle("GET /api/company/jobs/{id}/applicants", gate(security.PermReviewApplications, c.ListApplicants))
	mux.Handle("PUT /api/company/applications/{id}/status", gate(security.PermReviewApplications, c.ReviewApplication))

	cw := rt.Craftworker
	mux.Handle("GET /api/craftworker/profile", gate(security.PermManageOwnProfile, cw.GetProfile))
	mux.Handle("PUT /api/craftworker/profile", gate(security.PermManageOwnProfile, cw.UpdateProfile))
	mux.Handle("GET /api/craftworker/jobs", gate(security.PermBrowseJobs, cw.ListJobs))
	mux.Handle("GET /api/craftworker/jobs/{id}", gate(security.PermBrowseJobs, cw.GetJob))
	mux.Handle("POST /api/craftworker/applications", gate(security.PermApplySelf, cw.Apply))
	mux.Handle("GET /api/craftworker/applications", gate(security.PermApplySelf, cw.ListApplications))
	mux.Handle("GET /api/craftworker/applications/{id}", gate(security.PermApplySelf, cw.GetApplication))
	mux.Handle("DELETE /api/craftworker/applications/{id}", gate(security.PermWithdrawApplication, cw.Withdraw))

	p := rt.Provider
	mux.Handle("GET /api/provider/profile", gate(security.PermManageOwnProfile, p.GetProfile))
	mux.Handle("PUT /api/provider/profile", gate(security.PermManageOwnProfile, p.UpdateProfile))
	mux.Handle("GET /api/provider/roster", gate(security.PermManageRoster, p.Roster))
	mux.Handle("POST /api/provider/roster", gate(security.PermManageRoster, p.AddToRoster))
	mux.Handle("DELETE /api/provider/roster/{craftsmanId}", gate(security.PermManageRoster, p.RemoveFromRoster))
	mux.Handle("PUT /api/provider/roster/{craftsmanId}/status", gate(security.PermManageRoster, p.SetRosterStatus))
	mux.Handle("GET /api/provider/craftworkers/search", gate(security.PermSearchCraftworkers, p.Search))
	mux.Handle("GET /api/provider/jobs", gate(security.PermBrowseJobs, p.ListJobs))
	mux.Handle("GET /api/provider/jobs/{id}", gate(security.PermBrowseJobs, p.GetJob))
	mux.Handle("POST /api/provider/applications", gate(security.PermApplyOnBehalf, p.Apply))
	mux.Handle("GET /api/provider/applications", gate(security.PermApplyOnBehalf, p.ListApplications))

	mux.Handle("GET /ws/events", rt.Events)
	mux.HandleFunc("GET /healthz", rt.Health.Health)
	mux.HandleFunc("GET /readyz", rt.Health.Ready)
}
