package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// IsUniqueViolation reports whether err is a unique constraint failure. When
// constraintName is set the constraint must match as well.
func IsUniqueViolation(err error, constraintName string) bool {
	return matchConstraint(err, pgUniqueViolation, "UNIQUE constraint failed", "duplicate key value", constraintName)
}

// IsCheckViolation reports whether err is a CHECK constraint failure, such as
// a balance or stock column going negative.
func IsCheckViolation(err error, constraintName string) bool {
	return matchConstraint(err, pgCheckViolation, "CHECK constraint failed", "violates check constraint", constraintName)
}

func matchConstraint(err error, pgCode, sqliteText, pgText, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgCode {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}
	msg := err.Error()
	if !strings.Contains(msg, sqliteText) && !strings.Contains(msg, pgText) {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
