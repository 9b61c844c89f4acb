package dbx

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// CodeUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const CodeUniqueViolation = "23505"

// UniqueViolation reports whether err carries a PostgreSQL unique violation
// and, if so, the name of the constraint that was violated.
func UniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == CodeUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
