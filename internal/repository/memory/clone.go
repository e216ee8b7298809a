package memory

import (
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u *domain.User) *domain.User {
	out := *u
	out.LastLogin = cloneTimePtr(u.LastLogin)
	return &out
}

func cloneCompany(c *domain.Company) *domain.Company {
	out := *c
	return &out
}

func cloneProvider(p *domain.CraftProvider) *domain.CraftProvider {
	out := *p
	out.Roster = append([]domain.RosterEntry{}, p.Roster...)
	return &out
}

func cloneCraftworker(c *domain.Craftworker) *domain.Craftworker {
	out := *c
	out.Skills = cloneStrings(c.Skills)
	out.Certifications = cloneStrings(c.Certifications)
	out.ProviderID = cloneStringPtr(c.ProviderID)
	return &out
}

func cloneJob(j *domain.Job) *domain.Job {
	out := *j
	out.SkillsRequired = cloneStrings(j.SkillsRequired)
	out.CertificationsRequired = cloneStrings(j.CertificationsRequired)
	out.DocumentsRequired = cloneStrings(j.DocumentsRequired)
	return &out
}

func cloneApplication(a *domain.Application) *domain.Application {
	out := *a
	out.ProviderID = cloneStringPtr(a.ProviderID)
	out.ReviewedBy = cloneStringPtr(a.ReviewedBy)
	out.ReviewedAt = cloneTimePtr(a.ReviewedAt)
	return &out
}
