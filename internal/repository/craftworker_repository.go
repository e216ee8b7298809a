package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

const craftworkerColumns = `id, user_id, full_name, phone, city, state, skills, experience,
	certifications, bio, profile_picture, provider_id, is_independent, created_at, updated_at`

// PostgresCraftworkerRepository implements domain.CraftworkerRepository using PostgreSQL
type PostgresCraftworkerRepository struct {
	db     dbtx
	logger *slog.Logger
}

// NewPostgresCraftworkerRepository creates a new craftworker repository
func NewPostgresCraftworkerRepository(db dbtx, logger *slog.Logger) *PostgresCraftworkerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCraftworkerRepository{db: db, logger: logger}
}

// Create creates a craftworker profile
func (r *PostgresCraftworkerRepository) Create(ctx context.Context, c *domain.Craftworker) error {
	query := `
		INSERT INTO craftworkers (id, user_id, full_name, phone, city, state, skills, experience,
		                          certifications, bio, profile_picture, provider_id, is_independent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.UserID, c.FullName, c.Phone, c.Location.City, c.Location.State,
		pq.Array(nonNil(c.Skills)), c.Experience, pq.Array(nonNil(c.Certifications)),
		c.Bio, c.ProfilePicture, nullString(c.ProviderID), c.ProviderID == nil,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create craftworker: %w", classify(err, "craftworker profile"))
	}
	c.IsIndependent = c.ProviderID == nil
	return nil
}

// GetByID retrieves a craftworker by ID
func (r *PostgresCraftworkerRepository) GetByID(ctx context.Context, id string) (*domain.Craftworker, error) {
	query := `SELECT ` + craftworkerColumns + ` FROM craftworkers WHERE id = $1`
	c, err := scanCraftworker(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get craftworker: %w", classify(err, "craftworker profile"))
	}
	return c, nil
}

// GetByUserID retrieves the craftworker owned by a user
func (r *PostgresCraftworkerRepository) GetByUserID(ctx context.Context, userID string) (*domain.Craftworker, error) {
	query := `SELECT ` + craftworkerColumns + ` FROM craftworkers WHERE user_id = $1`
	c, err := scanCraftworker(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get craftworker by user: %w", classify(err, "craftworker profile"))
	}
	return c, nil
}

// GetForUpdate locks the craftworker row for the rest of the transaction
func (r *PostgresCraftworkerRepository) GetForUpdate(ctx context.Context, id string) (*domain.Craftworker, error) {
	query := `SELECT ` + craftworkerColumns + ` FROM craftworkers WHERE id = $1 FOR UPDATE`
	c, err := scanCraftworker(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock craftworker: %w", classify(err, "craftworker profile"))
	}
	return c, nil
}

// Update writes profile fields; affiliation columns are left untouched
func (r *PostgresCraftworkerRepository) Update(ctx context.Context, c *domain.Craftworker) error {
	query := `
		UPDATE craftworkers
		SET full_name = $1, phone = $2, city = $3, state = $4, skills = $5, experience = $6,
		    certifications = $7, bio = $8, profile_picture = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.FullName, c.Phone, c.Location.City, c.Location.State, pq.Array(nonNil(c.Skills)),
		c.Experience, pq.Array(nonNil(c.Certifications)), c.Bio, c.ProfilePicture, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update craftworker: %w", classify(err, "craftworker profile"))
	}
	return nil
}

// SetAffiliation sets provider_id and is_independent in one statement
func (r *PostgresCraftworkerRepository) SetAffiliation(ctx context.Context, id string, providerID *string) error {
	query := `
		UPDATE craftworkers
		SET provider_id = $1, is_independent = $2, updated_at = NOW()
		WHERE id = $3
	`
	pid := nullString(providerID)
	res, err := r.db.ExecContext(ctx, query, pid, !pid.Valid, id)
	if err != nil {
		r.logger.Error("failed to set craftworker affiliation",
			slog.String("craftworker_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to set affiliation: %w", classify(err, "craftworker profile"))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFound("craftworker profile not found")
	}
	return nil
}

const craftworkerSearchWhere = `
	WHERE ($1 = '' OR full_name ILIKE $1)
	  AND ($2 = '' OR city ILIKE $2 OR state ILIKE $2)
	  AND (cardinality($3::text[]) = 0 OR EXISTS (
	        SELECT 1 FROM unnest(skills) AS s, unnest($3::text[]) AS p WHERE s ILIKE p))
	  AND NOT (id::text = ANY($4::text[]))
`

// Search filters craftworkers by name, location and skills with
// case-insensitive substring matching. It returns one page ordered by
// full name plus the total match count.
func (r *PostgresCraftworkerRepository) Search(ctx context.Context, q domain.CraftworkerSearch) ([]*domain.Craftworker, int, error) {
	skillPatterns := make([]string, 0, len(q.Skills))
	for _, s := range q.Skills {
		if p := containsPattern(s); p != "" {
			skillPatterns = append(skillPatterns, p)
		}
	}
	args := []any{
		containsPattern(q.Name),
		containsPattern(q.Location),
		pq.Array(skillPatterns),
		pq.Array(nonNil(q.ExcludeIDs)),
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM craftworkers` + craftworkerSearchWhere
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count craftworkers: %w", err)
	}

	pageQuery := `SELECT ` + craftworkerColumns + ` FROM craftworkers` + craftworkerSearchWhere +
		` ORDER BY full_name, id LIMIT $5 OFFSET $6`
	rows, err := r.db.QueryContext(ctx, pageQuery, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search craftworkers: %w", err)
	}
	defer rows.Close()

	out, err := scanCraftworkers(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// List returns every craftworker
func (r *PostgresCraftworkerRepository) List(ctx context.Context) ([]*domain.Craftworker, error) {
	query := `SELECT ` + craftworkerColumns + ` FROM craftworkers ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list craftworkers: %w", err)
	}
	defer rows.Close()
	return scanCraftworkers(rows)
}

func scanCraftworkers(rows *sql.Rows) ([]*domain.Craftworker, error) {
	var out []*domain.Craftworker
	for rows.Next() {
		c, err := scanCraftworker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan craftworker: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCraftworker(row scanner) (*domain.Craftworker, error) {
	c := &domain.Craftworker{}
	var providerID sql.NullString
	err := row.Scan(
		&c.ID, &c.UserID, &c.FullName, &c.Phone, &c.Location.City, &c.Location.State,
		pq.Array(&c.Skills), &c.Experience, pq.Array(&c.Certifications), &c.Bio,
		&c.ProfilePicture, &providerID, &c.IsIndependent, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ProviderID = stringPtr(providerID)
	return c, nil
}
