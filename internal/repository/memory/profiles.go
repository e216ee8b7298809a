package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

type companyRepo struct{ st *Store }

func (r *companyRepo) Create(ctx context.Context, c *domain.Company) error {
	return r.st.write(func(d *data) error {
		if _, ok := d.users[c.UserID]; !ok {
			return domain.NotFound("referenced record not found")
		}
		for _, other := range d.companies {
			if other.ID == c.ID || other.UserID == c.UserID {
				return domain.Conflict("company profile already exists")
			}
		}
		now := r.st.now()
		c.CreatedAt, c.UpdatedAt = now, now
		d.companies[c.ID] = cloneCompany(c)
		return nil
	})
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	var out *domain.Company
	err := r.st.read(func(d *data) error {
		c, ok := d.companies[id]
		if !ok {
			return domain.NotFound("company profile not found")
		}
		out = cloneCompany(c)
		return nil
	})
	return out, err
}

func (r *companyRepo) GetByUserID(ctx context.Context, userID string) (*domain.Company, error) {
	var out *domain.Company
	err := r.st.read(func(d *data) error {
		for _, c := range d.companies {
			if c.UserID == userID {
				out = cloneCompany(c)
				return nil
			}
		}
		return domain.NotFound("company profile not found")
	})
	return out, err
}

func (r *companyRepo) Update(ctx context.Context, c *domain.Company) error {
	return r.st.write(func(d *data) error {
		cur, ok := d.companies[c.ID]
		if !ok {
			return domain.NotFound("company profile not found")
		}
		next := cloneCompany(c)
		next.UserID = cur.UserID
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = r.st.now()
		c.UpdatedAt = next.UpdatedAt
		d.companies[c.ID] = next
		return nil
	})
}

type providerRepo struct{ st *Store }

func (r *providerRepo) Create(ctx context.Context, p *domain.CraftProvider) error {
	return r.st.write(func(d *data) error {
		if _, ok := d.users[p.UserID]; !ok {
			return domain.NotFound("referenced record not found")
		}
		for _, other := range d.providers {
			if other.ID == p.ID || other.UserID == p.UserID {
				return domain.Conflict("provider profile already exists")
			}
		}
		now := r.st.now()
		p.CreatedAt, p.UpdatedAt = now, now
		if p.Roster == nil {
			p.Roster = []domain.RosterEntry{}
		}
		d.providers[p.ID] = cloneProvider(p)
		return nil
	})
}

func (r *providerRepo) GetByID(ctx context.Context, id string) (*domain.CraftProvider, error) {
	var out *domain.CraftProvider
	err := r.st.read(func(d *data) error {
		p, ok := d.providers[id]
		if !ok {
			return domain.NotFound("provider profile not found")
		}
		out = cloneProvider(p)
		return nil
	})
	return out, err
}

func (r *providerRepo) GetByUserID(ctx context.Context, userID string) (*domain.CraftProvider, error) {
	var out *domain.CraftProvider
	err := r.st.read(func(d *data) error {
		for _, p := range d.providers {
			if p.UserID == userID {
				out = cloneProvider(p)
				return nil
			}
		}
		return domain.NotFound("provider profile not found")
	})
	return out, err
}

// GetForUpdate needs no row lock: writers are already serialized by txMu.
func (r *providerRepo) GetForUpdate(ctx context.Context, id string) (*domain.CraftProvider, error) {
	return r.GetByID(ctx, id)
}

func (r *providerRepo) Update(ctx context.Context, p *domain.CraftProvider) error {
	return r.st.write(func(d *data) error {
		cur, ok := d.providers[p.ID]
		if !ok {
			return domain.NotFound("provider profile not found")
		}
		next := cloneProvider(p)
		next.UserID = cur.UserID
		next.Roster = cur.Roster
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = r.st.now()
		p.UpdatedAt = next.UpdatedAt
		d.providers[p.ID] = next
		return nil
	})
}

func (r *providerRepo) AddRosterEntry(ctx context.Context, providerID string, entry domain.RosterEntry) error {
	return r.st.write(func(d *data) error {
		p, ok := d.providers[providerID]
		if !ok {
			return domain.NotFound("provider profile not found")
		}
		if _, ok := d.craftworkers[entry.CraftsmanID]; !ok {
			return domain.NotFound("referenced record not found")
		}
		if _, exists := p.Entry(entry.CraftsmanID); exists {
			return domain.Conflict("roster entry already exists")
		}
		p.Roster = append(p.Roster, entry)
		p.UpdatedAt = r.st.now()
		return nil
	})
}

func (r *providerRepo) RemoveRosterEntry(ctx context.Context, providerID, craftworkerID string) error {
	return r.st.write(func(d *data) error {
		p, ok := d.providers[providerID]
		if !ok {
			return domain.NotFound("provider profile not found")
		}
		for i, e := range p.Roster {
			if e.CraftsmanID == craftworkerID {
				p.Roster = append(p.Roster[:i:i], p.Roster[i+1:]...)
				p.UpdatedAt = r.st.now()
				return nil
			}
		}
		return domain.NotFound("Craftsman not found in roster")
	})
}

func (r *providerRepo) SetRosterStatus(ctx context.Context, providerID, craftworkerID string, status domain.RosterStatus) error {
	return r.st.write(func(d *data) error {
		p, ok := d.providers[providerID]
		if !ok {
			return domain.NotFound("provider profile not found")
		}
		for i := range p.Roster {
			if p.Roster[i].CraftsmanID == craftworkerID {
				p.Roster[i].Status = status
				p.UpdatedAt = r.st.now()
				return nil
			}
		}
		return domain.NotFound("Craftsman not found in roster")
	})
}

func (r *providerRepo) List(ctx context.Context) ([]*domain.CraftProvider, error) {
	var out []*domain.CraftProvider
	err := r.st.read(func(d *data) error {
		for _, p := range d.providers {
			out = append(out, cloneProvider(p))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

type craftworkerRepo struct{ st *Store }

func (r *craftworkerRepo) Create(ctx context.Context, c *domain.Craftworker) error {
	return r.st.write(func(d *data) error {
		if _, ok := d.users[c.UserID]; !ok {
			return domain.NotFound("referenced record not found")
		}
		for _, other := range d.craftworkers {
			if other.ID == c.ID || other.UserID == c.UserID {
				return domain.Conflict("craftworker profile already exists")
			}
		}
		now := r.st.now()
		c.CreatedAt, c.UpdatedAt = now, now
		c.SetProvider(c.ProviderID)
		d.craftworkers[c.ID] = cloneCraftworker(c)
		return nil
	})
}

func (r *craftworkerRepo) GetByID(ctx context.Context, id string) (*domain.Craftworker, error) {
	var out *domain.Craftworker
	err := r.st.read(func(d *data) error {
		c, ok := d.craftworkers[id]
		if !ok {
			return domain.NotFound("craftworker profile not found")
		}
		out = cloneCraftworker(c)
		return nil
	})
	return out, err
}

func (r *craftworkerRepo) GetByUserID(ctx context.Context, userID string) (*domain.Craftworker, error) {
	var out *domain.Craftworker
	err := r.st.read(func(d *data) error {
		for _, c := range d.craftworkers {
			if c.UserID == userID {
				out = cloneCraftworker(c)
				return nil
			}
		}
		return domain.NotFound("craftworker profile not found")
	})
	return out, err
}

func (r *craftworkerRepo) GetForUpdate(ctx context.Context, id string) (*domain.Craftworker, error) {
	return r.GetByID(ctx, id)
}

func (r *craftworkerRepo) Update(ctx context.Context, c *domain.Craftworker) error {
	return r.st.write(func(d *data) error {
		cur, ok := d.craftworkers[c.ID]
		if !ok {
			return domain.NotFound("craftworker profile not found")
		}
		next := cloneCraftworker(c)
		next.UserID = cur.UserID
		next.ProviderID = cloneStringPtr(cur.ProviderID)
		next.IsIndependent = cur.IsIndependent
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = r.st.now()
		c.UpdatedAt = next.UpdatedAt
		d.craftworkers[c.ID] = next
		return nil
	})
}

func (r *craftworkerRepo) SetAffiliation(ctx context.Context, id string, providerID *string) error {
	return r.st.write(func(d *data) error {
		c, ok := d.craftworkers[id]
		if !ok {
			return domain.NotFound("craftworker profile not found")
		}
		if providerID != nil && *providerID != "" {
			if _, ok := d.providers[*providerID]; !ok {
				return domain.NotFound("referenced record not found")
			}
		}
		c.SetProvider(providerID)
		c.UpdatedAt = r.st.now()
		return nil
	})
}

func (r *craftworkerRepo) Search(ctx context.Context, q domain.CraftworkerSearch) ([]*domain.Craftworker, int, error) {
	exclude := make(map[string]struct{}, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		exclude[id] = struct{}{}
	}

	var matches []*domain.Craftworker
	err := r.st.read(func(d *data) error {
		for _, c := range d.craftworkers {
			if _, skip := exclude[c.ID]; skip {
				continue
			}
			if matchesSearch(c, q) {
				matches = append(matches, cloneCraftworker(c))
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].FullName != matches[j].FullName {
			return matches[i].FullName < matches[j].FullName
		}
		return matches[i].ID < matches[j].ID
	})

	total := len(matches)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return matches[start:end], total, nil
}

func (r *craftworkerRepo) List(ctx context.Context) ([]*domain.Craftworker, error) {
	var out []*domain.Craftworker
	err := r.st.read(func(d *data) error {
		for _, c := range d.craftworkers {
			out = append(out, cloneCraftworker(c))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matchesSearch(c *domain.Craftworker, q domain.CraftworkerSearch) bool {
	if name := strings.TrimSpace(q.Name); name != "" && !containsFold(c.FullName, name) {
		return false
	}
	if loc := strings.TrimSpace(q.Location); loc != "" &&
		!containsFold(c.Location.City, loc) && !containsFold(c.Location.State, loc) {
		return false
	}
	wanted := 0
	for _, want := range q.Skills {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		wanted++
		for _, have := range c.Skills {
			if containsFold(have, want) {
				return true
			}
		}
	}
	return wanted == 0
}
