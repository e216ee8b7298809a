package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
	pqInvalidTextRep      = "22P02"
)

// classify maps driver errors onto domain error kinds. Unrecognized
// errors are returned unchanged.
func classify(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(entity + " not found")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return domain.Wrap(domain.KindConflict, entity+" already exists", err)
		case pqForeignKeyViolation:
			return domain.Wrap(domain.KindNotFound, "referenced record not found", err)
		case pqCheckViolation:
			return domain.Wrap(domain.KindValidation, "invalid "+entity+": "+pqErr.Constraint, err)
		case pqInvalidTextRep:
			// malformed uuid in a lookup
			return domain.Wrap(domain.KindNotFound, entity+" not found", err)
		}
	}
	return err
}

// containsPattern builds an ILIKE pattern matching s anywhere, with
// wildcard characters in s taken literally. Empty input yields "".
func containsPattern(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func nullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
