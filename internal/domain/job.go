package domain

import (
	"context"
	"math"
	"time"
)

// JobStatus is whether a job accepts applications
type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

// Valid reports whether s is open or closed
func (s JobStatus) Valid() bool {
	return s == JobOpen || s == JobClosed
}

// Job is a posting owned by exactly one company
type Job struct {
	ID                     string    `json:"id"`
	CompanyID              string    `json:"companyId"`
	Title                  string    `json:"title"`
	Description            string    `json:"description"`
	SkillsRequired         []string  `json:"skillsRequired"`
	Location               string    `json:"location"`
	StartDate              time.Time `json:"startDate"`
	EndDate                time.Time `json:"endDate"`
	NumberOfPositions      int       `json:"numberOfPositions"`
	CertificationsRequired []string  `json:"certificationsRequired"`
	DocumentsRequired      []string  `json:"documentsRequired"`
	Status                 JobStatus `json:"status"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// IsOpen reports whether the job accepts applications
func (j *Job) IsOpen() bool {
	return j.Status == JobOpen
}

// DaysUntilStart rounds up the days between now and the start date
func (j *Job) DaysUntilStart(now time.Time) int {
	return ceilDays(j.StartDate.Sub(now))
}

// DurationDays rounds up the days between start and end
func (j *Job) DurationDays() int {
	return ceilDays(j.EndDate.Sub(j.StartDate))
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

// JobFilter narrows job listings. Zero fields are ignored.
type JobFilter struct {
	CompanyID string
	Status    JobStatus
	Location  string
	Skills    []string
	Limit     int
}

// JobRepository defines data access for jobs
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, job *Job) error
	// Delete removes the job and every application filed against it.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter JobFilter) ([]*Job, error)
}
