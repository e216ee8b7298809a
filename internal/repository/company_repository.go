package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

const companyColumns = `id, user_id, company_name, industry, location, contact_person, phone, description, created_at, updated_at`

// PostgresCompanyRepository implements domain.CompanyRepository using PostgreSQL
type PostgresCompanyRepository struct {
	db     dbtx
	logger *slog.Logger
}

// NewPostgresCompanyRepository creates a new company repository
func NewPostgresCompanyRepository(db dbtx, logger *slog.Logger) *PostgresCompanyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCompanyRepository{db: db, logger: logger}
}

// Create creates a new company profile
func (r *PostgresCompanyRepository) Create(ctx context.Context, c *domain.Company) error {
	query := `
		INSERT INTO companies (id, user_id, company_name, industry, location, contact_person, phone, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.UserID, c.CompanyName, c.Industry, c.Location, c.ContactPerson, c.Phone, c.Description,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", classify(err, "company profile"))
	}
	return nil
}

// GetByID retrieves a company by ID
func (r *PostgresCompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	c, err := scanCompany(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", classify(err, "company profile"))
	}
	return c, nil
}

// GetByUserID retrieves the company owned by a user
func (r *PostgresCompanyRepository) GetByUserID(ctx context.Context, userID string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE user_id = $1`
	c, err := scanCompany(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get company by user: %w", classify(err, "company profile"))
	}
	return c, nil
}

// Update updates an existing company
func (r *PostgresCompanyRepository) Update(ctx context.Context, c *domain.Company) error {
	query := `
		UPDATE companies
		SET company_name = $1, industry = $2, location = $3, contact_person = $4,
		    phone = $5, description = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.CompanyName, c.Industry, c.Location, c.ContactPerson, c.Phone, c.Description, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", classify(err, "company profile"))
	}
	return nil
}

func scanCompany(row scanner) (*domain.Company, error) {
	c := &domain.Company{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.CompanyName, &c.Industry, &c.Location,
		&c.ContactPerson, &c.Phone, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
