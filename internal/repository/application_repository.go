package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

const applicationColumns = `id, job_id, craftworker_id, submitted_by, provider_id, status, applied_at,
	reviewed_at, reviewed_by, notes, created_at, updated_at`

// PostgresApplicationRepository implements domain.ApplicationRepository using PostgreSQL
type PostgresApplicationRepository struct {
	db     dbtx
	logger *slog.Logger
}

// NewPostgresApplicationRepository creates a new application repository
func NewPostgresApplicationRepository(db dbtx, logger *slog.Logger) *PostgresApplicationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresApplicationRepository{db: db, logger: logger}
}

// Create inserts an application; the (job_id, craftworker_id) key rejects duplicates
func (r *PostgresApplicationRepository) Create(ctx context.Context, a *domain.Application) error {
	query := `
		INSERT INTO applications (id, job_id, craftworker_id, submitted_by, provider_id, status,
		                          applied_at, reviewed_at, reviewed_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.JobID, a.CraftworkerID, a.SubmittedBy, nullString(a.ProviderID), a.Status,
		a.AppliedAt, nullTime(a), nullString(a.ReviewedBy), a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create application",
			slog.String("job_id", a.JobID),
			slog.String("craftworker_id", a.CraftworkerID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create application: %w", classify(err, "application"))
	}
	return nil
}

// GetByID retrieves an application by ID
func (r *PostgresApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	a, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", classify(err, "Application"))
	}
	return a, nil
}

// FindByJobAndCraftworker retrieves the single application for a pair
func (r *PostgresApplicationRepository) FindByJobAndCraftworker(ctx context.Context, jobID, craftworkerID string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE job_id = $1 AND craftworker_id = $2`
	a, err := scanApplication(r.db.QueryRowContext(ctx, query, jobID, craftworkerID))
	if err != nil {
		return nil, fmt.Errorf("failed to find application: %w", classify(err, "Application"))
	}
	return a, nil
}

// Update writes the review fields
func (r *PostgresApplicationRepository) Update(ctx context.Context, a *domain.Application) error {
	query := `
		UPDATE applications
		SET status = $1, reviewed_at = $2, reviewed_by = $3, notes = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.Status, nullTime(a), nullString(a.ReviewedBy), a.Notes, a.ID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", classify(err, "Application"))
	}
	return nil
}

// Delete removes an application
func (r *PostgresApplicationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", classify(err, "Application"))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFound("Application not found")
	}
	return nil
}

// List returns applications matching filter ordered by applied_at descending
func (r *PostgresApplicationRepository) List(ctx context.Context, filter domain.ApplicationFilter) ([]*domain.Application, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.JobID != "" {
		add("job_id = $%d", filter.JobID)
	}
	if filter.CraftworkerID != "" {
		add("craftworker_id = $%d", filter.CraftworkerID)
	}
	if filter.ProviderID != "" {
		add("provider_id = $%d", filter.ProviderID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY applied_at DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", classify(err, "Application"))
	}
	defer rows.Close()

	var out []*domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullTime(a *domain.Application) sql.NullTime {
	if a.ReviewedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *a.ReviewedAt, Valid: true}
}

func scanApplication(row scanner) (*domain.Application, error) {
	a := &domain.Application{}
	var (
		providerID, reviewedBy sql.NullString
		reviewedAt             sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.JobID, &a.CraftworkerID, &a.SubmittedBy, &providerID, &a.Status, &a.AppliedAt,
		&reviewedAt, &reviewedBy, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ProviderID = stringPtr(providerID)
	a.ReviewedBy = stringPtr(reviewedBy)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		a.ReviewedAt = &t
	}
	return a, nil
}
