package service

import (
	"context"
	"fmt"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

type joinSet int

const (
	joinJob joinSet = 1 << iota
	joinCraftworker
	joinProvider
)

// joiner attaches display fields to applications, loading each referenced
// document once per call.
type joiner struct {
	store        domain.Store
	jobs         map[string]*domain.Job
	companies    map[string]*domain.Company
	craftworkers map[string]*domain.Craftworker
	providers    map[string]*domain.CraftProvider
}

func newJoiner(store domain.Store) *joiner {
	return &joiner{
		store:        store,
		jobs:         map[string]*domain.Job{},
		companies:    map[string]*domain.Company{},
		craftworkers: map[string]*domain.Craftworker{},
		providers:    map[string]*domain.CraftProvider{},
	}
}

func (j *joiner) views(ctx context.Context, apps []*domain.Application, set joinSet) ([]ApplicationView, error) {
	out := make([]ApplicationView, 0, len(apps))
	for _, a := range apps {
		v := ApplicationView{Application: a}
		if set&joinJob != 0 {
			job, err := j.job(ctx, a.JobID)
			if err != nil {
				return nil, err
			}
			if job != nil {
				company, err := j.company(ctx, job.CompanyID)
				if err != nil {
					return nil, err
				}
				v.Job = jobSummary(job, company)
			}
		}
		if set&joinCraftworker != 0 {
			c, err := j.craftworker(ctx, a.CraftworkerID)
			if err != nil {
				return nil, err
			}
			v.Craftworker = craftworkerSummary(c)
		}
		if set&joinProvider != 0 && a.ProviderID != nil {
			p, err := j.provider(ctx, *a.ProviderID)
			if err != nil {
				return nil, err
			}
			if p != nil {
				v.Provider = &ProviderSummary{ID: p.ID, CompanyName: p.CompanyName}
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// A missing document yields nil rather than an error.

func (j *joiner) job(ctx context.Context, id string) (*domain.Job, error) {
	if v, ok := j.jobs[id]; ok {
		return v, nil
	}
	v, err := j.store.Jobs().GetByID(ctx, id)
	if err = tolerateMissing(err); err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	j.jobs[id] = v
	return v, nil
}

func (j *joiner) company(ctx context.Context, id string) (*domain.Company, error) {
	if v, ok := j.companies[id]; ok {
		return v, nil
	}
	v, err := j.store.Companies().GetByID(ctx, id)
	if err = tolerateMissing(err); err != nil {
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	j.companies[id] = v
	return v, nil
}

func (j *joiner) craftworker(ctx context.Context, id string) (*domain.Craftworker, error) {
	if v, ok := j.craftworkers[id]; ok {
		return v, nil
	}
	v, err := j.store.Craftworkers().GetByID(ctx, id)
	if err = tolerateMissing(err); err != nil {
		return nil, fmt.Errorf("failed to load craftworker: %w", err)
	}
	j.craftworkers[id] = v
	return v, nil
}

func (j *joiner) provider(ctx context.Context, id string) (*domain.CraftProvider, error) {
	if v, ok := j.providers[id]; ok {
		return v, nil
	}
	v, err := j.store.Providers().GetByID(ctx, id)
	if err = tolerateMissing(err); err != nil {
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	j.providers[id] = v
	return v, nil
}

func tolerateMissing(err error) error {
	if domain.IsKind(err, domain.KindNotFound) {
		return nil
	}
	return err
}
