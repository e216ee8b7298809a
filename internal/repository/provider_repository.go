package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

const providerColumns = `id, user_id, company_name, location, contact_person, phone, description, created_at, updated_at`

// PostgresProviderRepository implements domain.ProviderRepository using PostgreSQL.
// Roster entries live in roster_entries and are loaded with the provider.
type PostgresProviderRepository struct {
	db     dbtx
	logger *slog.Logger
}

// NewPostgresProviderRepository creates a new provider repository
func NewPostgresProviderRepository(db dbtx, logger *slog.Logger) *PostgresProviderRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProviderRepository{db: db, logger: logger}
}

// Create creates a provider with an empty roster
func (r *PostgresProviderRepository) Create(ctx context.Context, p *domain.CraftProvider) error {
	query := `
		INSERT INTO craft_providers (id, user_id, company_name, location, contact_person, phone, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.CompanyName, p.Location, p.ContactPerson, p.Phone, p.Description,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", classify(err, "provider profile"))
	}
	if p.Roster == nil {
		p.Roster = []domain.RosterEntry{}
	}
	return nil
}

// GetByID retrieves a provider and its roster
func (r *PostgresProviderRepository) GetByID(ctx context.Context, id string) (*domain.CraftProvider, error) {
	query := `SELECT ` + providerColumns + ` FROM craft_providers WHERE id = $1`
	return r.getOne(ctx, query, id, "failed to get provider")
}

// GetByUserID retrieves the provider owned by a user
func (r *PostgresProviderRepository) GetByUserID(ctx context.Context, userID string) (*domain.CraftProvider, error) {
	query := `SELECT ` + providerColumns + ` FROM craft_providers WHERE user_id = $1`
	return r.getOne(ctx, query, userID, "failed to get provider by user")
}

// GetForUpdate locks the provider row for the rest of the transaction
func (r *PostgresProviderRepository) GetForUpdate(ctx context.Context, id string) (*domain.CraftProvider, error) {
	query := `SELECT ` + providerColumns + ` FROM craft_providers WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id, "failed to lock provider")
}

func (r *PostgresProviderRepository) getOne(ctx context.Context, query, arg, failure string) (*domain.CraftProvider, error) {
	p, err := scanProvider(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", failure, classify(err, "provider profile"))
	}
	rosters, err := r.loadRosters(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Roster = rosters[p.ID]
	if p.Roster == nil {
		p.Roster = []domain.RosterEntry{}
	}
	return p, nil
}

// Update updates profile fields; the roster is left untouched
func (r *PostgresProviderRepository) Update(ctx context.Context, p *domain.CraftProvider) error {
	query := `
		UPDATE craft_providers
		SET company_name = $1, location = $2, contact_person = $3, phone = $4,
		    description = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.CompanyName, p.Location, p.ContactPerson, p.Phone, p.Description, p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", classify(err, "provider profile"))
	}
	return nil
}

// AddRosterEntry inserts a roster entry; a duplicate craftsman is a Conflict
func (r *PostgresProviderRepository) AddRosterEntry(ctx context.Context, providerID string, entry domain.RosterEntry) error {
	query := `
		INSERT INTO roster_entries (provider_id, craftworker_id, added_at, status)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, providerID, entry.CraftsmanID, entry.AddedAt, entry.Status)
	if err != nil {
		r.logger.Error("failed to add roster entry",
			slog.String("provider_id", providerID),
			slog.String("craftworker_id", entry.CraftsmanID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to add roster entry: %w", classify(err, "roster entry"))
	}
	return r.touch(ctx, providerID)
}

// RemoveRosterEntry deletes a roster entry
func (r *PostgresProviderRepository) RemoveRosterEntry(ctx context.Context, providerID, craftworkerID string) error {
	query := `DELETE FROM roster_entries WHERE provider_id = $1 AND craftworker_id = $2`
	res, err := r.db.ExecContext(ctx, query, providerID, craftworkerID)
	if err != nil {
		return fmt.Errorf("failed to remove roster entry: %w", classify(err, "roster entry"))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFound("Craftsman not found in roster")
	}
	return r.touch(ctx, providerID)
}

// SetRosterStatus changes the status of one roster entry
func (r *PostgresProviderRepository) SetRosterStatus(ctx context.Context, providerID, craftworkerID string, status domain.RosterStatus) error {
	query := `UPDATE roster_entries SET status = $1 WHERE provider_id = $2 AND craftworker_id = $3`
	res, err := r.db.ExecContext(ctx, query, status, providerID, craftworkerID)
	if err != nil {
		return fmt.Errorf("failed to set roster status: %w", classify(err, "roster entry"))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFound("Craftsman not found in roster")
	}
	return r.touch(ctx, providerID)
}

// List returns every provider with its roster
func (r *PostgresProviderRepository) List(ctx context.Context) ([]*domain.CraftProvider, error) {
	query := `SELECT ` + providerColumns + ` FROM craft_providers ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var out []*domain.CraftProvider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rosters, err := r.loadRosters(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range out {
		p.Roster = rosters[p.ID]
		if p.Roster == nil {
			p.Roster = []domain.RosterEntry{}
		}
	}
	return out, nil
}

// loadRosters returns roster entries keyed by provider id. An empty
// providerID loads every roster.
func (r *PostgresProviderRepository) loadRosters(ctx context.Context, providerID string) (map[string][]domain.RosterEntry, error) {
	query := `
		SELECT provider_id, craftworker_id, added_at, status
		FROM roster_entries
		WHERE $1 = '' OR provider_id::text = $1
		ORDER BY added_at, craftworker_id
	`
	rows, err := r.db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	defer rows.Close()

	out := map[string][]domain.RosterEntry{}
	for rows.Next() {
		var pid string
		var e domain.RosterEntry
		if err := rows.Scan(&pid, &e.CraftsmanID, &e.AddedAt, &e.Status); err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		out[pid] = append(out[pid], e)
	}
	return out, rows.Err()
}

func (r *PostgresProviderRepository) touch(ctx context.Context, providerID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE craft_providers SET updated_at = NOW() WHERE id = $1`, providerID); err != nil {
		return fmt.Errorf("failed to touch provider: %w", err)
	}
	return nil
}

func scanProvider(row scanner) (*domain.CraftProvider, error) {
	p := &domain.CraftProvider{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.CompanyName, &p.Location, &p.ContactPerson,
		&p.Phone, &p.Description, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
