package memory

import (
	"context"
	"sort"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

type applicationRepo struct{ st *Store }

func (r *applicationRepo) Create(ctx context.Context, a *domain.Application) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return r.st.write(func(d *data) error {
		if _, ok := d.applications[a.ID]; ok {
			return domain.Conflict("application already exists")
		}
		if _, ok := d.jobs[a.JobID]; !ok {
			return domain.NotFound("referenced record not found")
		}
		if _, ok := d.craftworkers[a.CraftworkerID]; !ok {
			return domain.NotFound("referenced record not found")
		}
		for _, other := range d.applications {
			if other.JobID == a.JobID && other.CraftworkerID == a.CraftworkerID {
				return domain.Conflict("application already exists")
			}
		}
		now := r.st.now()
		a.CreatedAt, a.UpdatedAt = now, now
		d.applications[a.ID] = cloneApplication(a)
		return nil
	})
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	var out *domain.Application
	err := r.st.read(func(d *data) error {
		a, ok := d.applications[id]
		if !ok {
			return domain.NotFound("Application not found")
		}
		out = cloneApplication(a)
		return nil
	})
	return out, err
}

func (r *applicationRepo) FindByJobAndCraftworker(ctx context.Context, jobID, craftworkerID string) (*domain.Application, error) {
	var out *domain.Application
	err := r.st.read(func(d *data) error {
		for _, a := range d.applications {
			if a.JobID == jobID && a.CraftworkerID == craftworkerID {
				out = cloneApplication(a)
				return nil
			}
		}
		return domain.NotFound("Application not found")
	})
	return out, err
}

func (r *applicationRepo) Update(ctx context.Context, a *domain.Application) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return r.st.write(func(d *data) error {
		cur, ok := d.applications[a.ID]
		if !ok {
			return domain.NotFound("Application not found")
		}
		cur.Status = a.Status
		cur.ReviewedAt = cloneTimePtr(a.ReviewedAt)
		cur.ReviewedBy = cloneStringPtr(a.ReviewedBy)
		cur.Notes = a.Notes
		cur.UpdatedAt = r.st.now()
		a.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r *applicationRepo) Delete(ctx context.Context, id string) error {
	return r.st.write(func(d *data) error {
		if _, ok := d.applications[id]; !ok {
			return domain.NotFound("Application not found")
		}
		delete(d.applications, id)
		return nil
	})
}

func (r *applicationRepo) List(ctx context.Context, f domain.ApplicationFilter) ([]*domain.Application, error) {
	var out []*domain.Application
	err := r.st.read(func(d *data) error {
		for _, a := range d.applications {
			if f.JobID != "" && a.JobID != f.JobID {
				continue
			}
			if f.CraftworkerID != "" && a.CraftworkerID != f.CraftworkerID {
				continue
			}
			if f.ProviderID != "" && (a.ProviderID == nil || *a.ProviderID != f.ProviderID) {
				continue
			}
			if f.Status != "" && a.Status != f.Status {
				continue
			}
			out = append(out, cloneApplication(a))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].AppliedAt.After(out[j].AppliedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
