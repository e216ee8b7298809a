package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

type jobRepo struct{ st *Store }

func (r *jobRepo) Create(ctx context.Context, j *domain.Job) error {
	return r.st.write(func(d *data) error {
		if _, ok := d.jobs[j.ID]; ok {
			return domain.Conflict("job already exists")
		}
		if _, ok := d.companies[j.CompanyID]; !ok {
			return domain.NotFound("referenced record not found")
		}
		now := r.st.now()
		j.CreatedAt, j.UpdatedAt = now, now
		d.jobs[j.ID] = cloneJob(j)
		return nil
	})
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	var out *domain.Job
	err := r.st.read(func(d *data) error {
		j, ok := d.jobs[id]
		if !ok {
			return domain.NotFound("Job not found")
		}
		out = cloneJob(j)
		return nil
	})
	return out, err
}

func (r *jobRepo) Update(ctx context.Context, j *domain.Job) error {
	return r.st.write(func(d *data) error {
		cur, ok := d.jobs[j.ID]
		if !ok {
			return domain.NotFound("Job not found")
		}
		next := cloneJob(j)
		next.CompanyID = cur.CompanyID
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = r.st.now()
		j.UpdatedAt = next.UpdatedAt
		d.jobs[j.ID] = next
		return nil
	})
}

func (r *jobRepo) Delete(ctx context.Context, id string) error {
	return r.st.write(func(d *data) error {
		if _, ok := d.jobs[id]; !ok {
			return domain.NotFound("Job not found")
		}
		delete(d.jobs, id)
		for appID, a := range d.applications {
			if a.JobID == id {
				delete(d.applications, appID)
			}
		}
		return nil
	})
}

func (r *jobRepo) List(ctx context.Context, filter domain.JobFilter) ([]*domain.Job, error) {
	var out []*domain.Job
	err := r.st.read(func(d *data) error {
		for _, j := range d.jobs {
			if matchesJob(j, filter) {
				out = append(out, cloneJob(j))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.After(out[k].CreatedAt)
		}
		return out[i].ID < out[k].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchesJob(j *domain.Job, f domain.JobFilter) bool {
	if f.CompanyID != "" && j.CompanyID != f.CompanyID {
		return false
	}
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if loc := strings.TrimSpace(f.Location); loc != "" && !containsFold(j.Location, loc) {
		return false
	}
	if len(f.Skills) == 0 {
		return true
	}
	for _, want := range f.Skills {
		for _, have := range j.SkillsRequired {
			if have == want {
				return true
			}
		}
	}
	return false
}
