package domain

import (
	"context"
	"fmt"
	"time"
)

// ApplicationStatus is the review state of an application
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Valid reports whether s is a known status
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// Terminal reports whether s is approved or rejected
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationApproved || s == ApplicationRejected
}

// SubmissionChannel records who filed an application
type SubmissionChannel string

const (
	SubmittedBySelf     SubmissionChannel = "self"
	SubmittedByProvider SubmissionChannel = "provider"
)

// MaxNotesLength bounds Application.Notes
const MaxNotesLength = 500

// Application links one job to one craftworker. At most one exists per
// (JobID, CraftworkerID).
type Application struct {
	ID            string            `json:"id"`
	JobID         string            `json:"jobId"`
	CraftworkerID string            `json:"craftworkerId"`
	SubmittedBy   SubmissionChannel `json:"submittedBy"`
	ProviderID    *string           `json:"providerId"`
	Status        ApplicationStatus `json:"status"`
	AppliedAt     time.Time         `json:"appliedAt"`
	ReviewedAt    *time.Time        `json:"reviewedAt,omitempty"`
	ReviewedBy    *string           `json:"reviewedBy,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// NewApplication builds a pending application. providerID must be set
// for provider submissions and empty for self submissions.
func NewApplication(id, jobID, craftworkerID string, channel SubmissionChannel, providerID string, now time.Time) (*Application, error) {
	app := &Application{
		ID:            id,
		JobID:         jobID,
		CraftworkerID: craftworkerID,
		SubmittedBy:   channel,
		Status:        ApplicationPending,
		AppliedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if providerID != "" {
		app.ProviderID = &providerID
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

// Validate checks the record-level invariants
func (a *Application) Validate() error {
	switch a.SubmittedBy {
	case SubmittedBySelf:
		if a.ProviderID != nil {
			return Validation("providerId must be empty for self submissions")
		}
	case SubmittedByProvider:
		if a.ProviderID == nil || *a.ProviderID == "" {
			return Validation("Provider ID is required when submitted by provider")
		}
	default:
		return Validation(fmt.Sprintf("invalid submittedBy %q", a.SubmittedBy))
	}
	if !a.Status.Valid() {
		return Validation(fmt.Sprintf("invalid status %q", a.Status))
	}
	if a.Status != ApplicationPending && a.ReviewedAt == nil {
		return Validation("reviewedAt is required once an application is reviewed")
	}
	if len([]rune(a.Notes)) > MaxNotesLength {
		return Validation("Notes cannot exceed 500 characters")
	}
	return nil
}

// Review moves the application to approved or rejected. Repeating the
// current terminal status is accepted; switching between terminal
// statuses is not. reviewedAt keeps its first value.
func (a *Application) Review(status ApplicationStatus, reviewerCompanyID string, notes *string, now time.Time) error {
	if !status.Terminal() {
		return InvalidState("Status must be approved or rejected")
	}
	if a.Status.Terminal() && a.Status != status {
		return InvalidState(fmt.Sprintf("application already %s", a.Status))
	}
	if notes != nil && len([]rune(*notes)) > MaxNotesLength {
		return Validation("Notes cannot exceed 500 characters")
	}

	a.Status = status
	if a.ReviewedAt == nil {
		t := now
		a.ReviewedAt = &t
	}
	reviewer := reviewerCompanyID
	a.ReviewedBy = &reviewer
	if notes != nil && *notes != "" {
		a.Notes = *notes
	}
	a.UpdatedAt = now
	return nil
}

// Withdrawable reports whether the owning craftworker may still delete it
func (a *Application) Withdrawable() bool {
	return a.Status == ApplicationPending
}

// ApplicationFilter narrows application listings. Zero fields are ignored.
type ApplicationFilter struct {
	JobID         string
	CraftworkerID string
	ProviderID    string
	Status        ApplicationStatus
}

// ApplicationRepository defines data access for applications
type ApplicationRepository interface {
	// Create fails with Conflict when (JobID, CraftworkerID) already exists.
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	FindByJobAndCraftworker(ctx context.Context, jobID, craftworkerID string) (*Application, error)
	Update(ctx context.Context, app *Application) error
	Delete(ctx context.Context, id string) error
	// List returns matches ordered by AppliedAt descending.
	List(ctx context.Context, filter ApplicationFilter) ([]*Application, error)
}
