package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// PostgresStore implements domain.Store on PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	q      dbtx
	inTx   bool
	logger *slog.Logger
}

// NewPostgresStore creates a store backed by db
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, q: db, logger: logger}
}

func (s *PostgresStore) Users() domain.UserRepository {
	return NewPostgresUserRepository(s.q, s.logger)
}

func (s *PostgresStore) Companies() domain.CompanyRepository {
	return NewPostgresCompanyRepository(s.q, s.logger)
}

func (s *PostgresStore) Providers() domain.ProviderRepository {
	return NewPostgresProviderRepository(s.q, s.logger)
}

func (s *PostgresStore) Craftworkers() domain.CraftworkerRepository {
	return NewPostgresCraftworkerRepository(s.q, s.logger)
}

func (s *PostgresStore) Jobs() domain.JobRepository {
	return NewPostgresJobRepository(s.q, s.logger)
}

func (s *PostgresStore) Applications() domain.ApplicationRepository {
	return NewPostgresApplicationRepository(s.q, s.logger)
}

// WithinTx runs fn inside a single database transaction
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &PostgresStore{db: s.db, q: tx, inTx: true, logger: s.logger}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction",
				slog.String("error", rbErr.Error()),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
