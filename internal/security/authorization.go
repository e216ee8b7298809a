package security

import (
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermManageOwnProfile    Permission = "manage_own_profile"
	PermManageJobs          Permission = "manage_jobs"
	PermReviewApplications  Permission = "review_applications"
	PermBrowseJobs          Permission = "browse_jobs"
	PermApplySelf           Permission = "apply_self"
	PermWithdrawApplication Permission = "withdraw_application"
	PermManageRoster        Permission = "manage_roster"
	PermSearchCraftworkers  Permission = "search_craftworkers"
	PermApplyOnBehalf       Permission = "apply_on_behalf"
	PermReceiveEvents       Permission = "receive_events"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleCompany: {
		PermManageOwnProfile,
		PermManageJobs,
		PermReviewApplications,
		PermReceiveEvents,
	},
	domain.RoleCraftworker: {
		PermManageOwnProfile,
		PermBrowseJobs,
		PermApplySelf,
		PermWithdrawApplication,
		PermReceiveEvents,
	},
	domain.RoleProvider: {
		PermManageOwnProfile,
		PermBrowseJobs,
		PermManageRoster,
		PermSearchCraftworkers,
		PermApplyOnBehalf,
		PermReceiveEvents,
	},
}

// ResourceType identifies the kind of resource being accessed
type ResourceType string

const (
	ResourceJob         ResourceType = "job"
	ResourceApplication ResourceType = "application"
)

// AuthorizationService handles role and ownership checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission returns a Forbidden error unless role holds permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return domain.Forbidden(fmt.Sprintf("Access denied: %s role cannot %s", role, permission))
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}

// ValidateOwnership returns a Forbidden error unless ownerID is callerID.
// ownerID and callerID are profile ids of the same kind, e.g. the company
// that posted a job and the reviewing company.
func (as *AuthorizationService) ValidateOwnership(callerID, ownerID string, resource ResourceType, resourceID string) error {
	if callerID == "" || callerID != ownerID {
		as.logger.Warn("resource access denied",
			slog.String("caller_id", callerID),
			slog.String("owner_id", ownerID),
			slog.String("resource_type", string(resource)),
			slog.String("resource_id", resourceID),
		)
		return domain.Forbidden(fmt.Sprintf("Access denied: you do not own this %s", resource))
	}
	return nil
}
