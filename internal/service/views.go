package service

import (
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

// CompanyView is a company profile as returned to its owner
type CompanyView struct {
	*domain.Company
}

// ProviderView adds the active roster count to a provider profile
type ProviderView struct {
	*domain.CraftProvider
	ActiveRosterCount int `json:"activeRosterCount"`
}

// CraftworkerView adds the rendered location to a craftworker profile
type CraftworkerView struct {
	*domain.Craftworker
	FullLocation string `json:"fullLocation"`
}

// ViewOf renders a profile for responses
func ViewOf(p domain.Profile) any {
	switch v := p.(type) {
	case *domain.Company:
		return CompanyView{Company: v}
	case *domain.CraftProvider:
		return ProviderView{CraftProvider: v, ActiveRosterCount: v.ActiveRosterCount()}
	case *domain.Craftworker:
		return CraftworkerView{Craftworker: v, FullLocation: v.FullLocation()}
	}
	return nil
}

// CompanySummary is the company block joined onto jobs and applications
type CompanySummary struct {
	ID            string `json:"id"`
	CompanyName   string `json:"companyName"`
	Industry      string `json:"industry,omitempty"`
	Location      string `json:"location,omitempty"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Description   string `json:"description,omitempty"`
}

func companySummary(c *domain.Company, withContact bool) *CompanySummary {
	if c == nil {
		return nil
	}
	s := &CompanySummary{
		ID:            c.ID,
		CompanyName:   c.CompanyName,
		Industry:      c.Industry,
		Location:      c.Location,
		ContactPerson: c.ContactPerson,
	}
	if withContact {
		s.Phone = c.Phone
		s.Description = c.Description
	}
	return s
}

// JobView is a job with derived day counts and, for public reads, its company
type JobView struct {
	*domain.Job
	DaysUntilStart int             `json:"daysUntilStart"`
	DurationDays   int             `json:"durationDays"`
	Company        *CompanySummary `json:"company,omitempty"`
}

func jobView(j *domain.Job, company *CompanySummary, now time.Time) JobView {
	return JobView{
		Job:            j,
		DaysUntilStart: j.DaysUntilStart(now),
		DurationDays:   j.DurationDays(),
		Company:        company,
	}
}

// JobSummary is the job block joined onto applications
type JobSummary struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Location          string           `json:"location"`
	StartDate         time.Time        `json:"startDate"`
	EndDate           time.Time        `json:"endDate"`
	NumberOfPositions int              `json:"numberOfPositions"`
	Status            domain.JobStatus `json:"status"`
	CompanyID         string           `json:"companyId"`
	CompanyName       string           `json:"companyName,omitempty"`
}

func jobSummary(j *domain.Job, company *domain.Company) *JobSummary {
	if j == nil {
		return nil
	}
	s := &JobSummary{
		ID:                j.ID,
		Title:             j.Title,
		Description:       j.Description,
		Location:          j.Location,
		StartDate:         j.StartDate,
		EndDate:           j.EndDate,
		NumberOfPositions: j.NumberOfPositions,
		Status:            j.Status,
		CompanyID:         j.CompanyID,
	}
	if company != nil {
		s.CompanyName = company.CompanyName
	}
	return s
}

// CraftworkerSummary is the craftworker block joined onto rosters,
// applications and search results
type CraftworkerSummary struct {
	ID             string          `json:"id"`
	FullName       string          `json:"fullName"`
	Phone          string          `json:"phone,omitempty"`
	Location       domain.Location `json:"location"`
	FullLocation   string          `json:"fullLocation"`
	Skills         []string        `json:"skills"`
	Experience     string          `json:"experience"`
	Certifications []string        `json:"certifications"`
	Bio            string          `json:"bio,omitempty"`
	ProviderID     *string         `json:"providerId"`
	IsIndependent  bool            `json:"isIndependent"`
}

func craftworkerSummary(c *domain.Craftworker) *CraftworkerSummary {
	if c == nil {
		return nil
	}
	return &CraftworkerSummary{
		ID:             c.ID,
		FullName:       c.FullName,
		Phone:          c.Phone,
		Location:       c.Location,
		FullLocation:   c.FullLocation(),
		Skills:         c.Skills,
		Experience:     c.Experience,
		Certifications: c.Certifications,
		Bio:            c.Bio,
		ProviderID:     c.ProviderID,
		IsIndependent:  c.IsIndependent,
	}
}

// ProviderSummary is the provider block joined onto applicants
type ProviderSummary struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName"`
}

// ApplicationView is an application joined with its display fields
type ApplicationView struct {
	*domain.Application
	Job         *JobSummary         `json:"job,omitempty"`
	Craftworker *CraftworkerSummary `json:"craftworker,omitempty"`
	Provider    *ProviderSummary    `json:"provider,omitempty"`
}

// RosterMember is a roster entry joined with the craftworker it names
type RosterMember struct {
	domain.RosterEntry
	Craftworker *CraftworkerSummary `json:"craftworker,omitempty"`
}

// SearchResult is one page of craftworker search results
type SearchResult struct {
	Items []*CraftworkerSummary `json:"items"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
	Total int                   `json:"total"`
	Pages int                   `json:"pages"`
}
