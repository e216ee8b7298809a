package memory

import (
	"context"
	"strings"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

type userRepo struct{ st *Store }

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	return r.st.write(func(d *data) error {
		if _, ok := d.users[u.ID]; ok {
			return domain.Conflict("user already exists")
		}
		for _, other := range d.users {
			if strings.EqualFold(other.Email, u.Email) {
				return domain.Conflict("user already exists")
			}
		}
		now := r.st.now()
		u.CreatedAt, u.UpdatedAt = now, now
		d.users[u.ID] = cloneUser(u)
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.st.read(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return domain.NotFound("user not found")
		}
		out = cloneUser(u)
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.st.read(func(d *data) error {
		for _, u := range d.users {
			if u.Email == email {
				out = cloneUser(u)
				return nil
			}
		}
		return domain.NotFound("user not found")
	})
	return out, err
}

func (r *userRepo) Update(ctx context.Context, u *domain.User) error {
	return r.st.write(func(d *data) error {
		cur, ok := d.users[u.ID]
		if !ok {
			return domain.NotFound("user not found")
		}
		u.CreatedAt = cur.CreatedAt
		u.UpdatedAt = r.st.now()
		d.users[u.ID] = cloneUser(u)
		return nil
	})
}
