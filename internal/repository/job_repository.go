package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

const jobColumns = `id, company_id, title, description, skills_required, location, start_date, end_date,
	number_of_positions, certifications_required, documents_required, status, created_at, updated_at`

// PostgresJobRepository implements domain.JobRepository using PostgreSQL
type PostgresJobRepository struct {
	db     dbtx
	logger *slog.Logger
}

// NewPostgresJobRepository creates a new job repository
func NewPostgresJobRepository(db dbtx, logger *slog.Logger) *PostgresJobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobRepository{db: db, logger: logger}
}

// Create creates a job
func (r *PostgresJobRepository) Create(ctx context.Context, j *domain.Job) error {
	query := `
		INSERT INTO jobs (id, company_id, title, description, skills_required, location, start_date,
		                  end_date, number_of_positions, certifications_required, documents_required, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		j.ID, j.CompanyID, j.Title, j.Description, pq.Array(nonNil(j.SkillsRequired)), j.Location,
		j.StartDate, j.EndDate, j.NumberOfPositions, pq.Array(nonNil(j.CertificationsRequired)),
		pq.Array(nonNil(j.DocumentsRequired)), j.Status,
	).Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create job",
			slog.String("company_id", j.CompanyID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create job: %w", classify(err, "job"))
	}
	return nil
}

// GetByID retrieves a job by ID
func (r *PostgresJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	j, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", classify(err, "Job"))
	}
	return j, nil
}

// Update updates a job
func (r *PostgresJobRepository) Update(ctx context.Context, j *domain.Job) error {
	query := `
		UPDATE jobs
		SET title = $1, description = $2, skills_required = $3, location = $4, start_date = $5,
		    end_date = $6, number_of_positions = $7, certifications_required = $8,
		    documents_required = $9, status = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		j.Title, j.Description, pq.Array(nonNil(j.SkillsRequired)), j.Location, j.StartDate,
		j.EndDate, j.NumberOfPositions, pq.Array(nonNil(j.CertificationsRequired)),
		pq.Array(nonNil(j.DocumentsRequired)), j.Status, j.ID,
	).Scan(&j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", classify(err, "Job"))
	}
	return nil
}

// Delete removes a job; its applications go with it through ON DELETE CASCADE
func (r *PostgresJobRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", classify(err, "Job"))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFound("Job not found")
	}
	return nil
}

// List returns jobs matching filter, newest first
func (r *PostgresJobRepository) List(ctx context.Context, filter domain.JobFilter) ([]*domain.Job, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.CompanyID != "" {
		add("company_id = $%d", filter.CompanyID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if p := containsPattern(filter.Location); p != "" {
		add("location ILIKE $%d", p)
	}
	if len(filter.Skills) > 0 {
		add("skills_required && $%d::text[]", pq.Array(filter.Skills))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var out []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanJob(row scanner) (*domain.Job, error) {
	j := &domain.Job{}
	err := row.Scan(
		&j.ID, &j.CompanyID, &j.Title, &j.Description, pq.Array(&j.SkillsRequired), &j.Location,
		&j.StartDate, &j.EndDate, &j.NumberOfPositions, pq.Array(&j.CertificationsRequired),
		pq.Array(&j.DocumentsRequired), &j.Status, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return j, nil
}
