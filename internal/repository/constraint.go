package repository

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ConstraintKind is the category of integrity constraint a database error violated.
type ConstraintKind int

const (
	ConstraintNone ConstraintKind = iota
	ConstraintForeignKey
	ConstraintUnique
	ConstraintNotNull
	// ConstraintOther is an integrity violation outside the three categories above (CHECK, EXCLUDE, ...).
	ConstraintOther
)

// PostgreSQL SQLSTATE codes, class 23 (integrity constraint violation)
const (
	pgForeignKeyViolation pq.ErrorCode  = "23503"
	pgUniqueViolation     pq.ErrorCode  = "23505"
	pgNotNullViolation    pq.ErrorCode  = "23502"
	pgIntegrityClass      pq.ErrorClass = "23"
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintForeignKey:
		return "foreign_key"
	case ConstraintUnique:
		return "unique"
	case ConstraintNotNull:
		return "not_null"
	case ConstraintOther:
		return "other"
	default:
		return "none"
	}
}

// ClassifyConstraint inspects a driver error and reports which constraint it violated.
// Errors that are not constraint violations (connection loss, syntax, cancellation) yield ConstraintNone.
func ClassifyConstraint(err error) ConstraintKind {
	if err == nil {
		return ConstraintNone
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgForeignKeyViolation:
			return ConstraintForeignKey
		case pgUniqueViolation:
			return ConstraintUnique
		case pgNotNullViolation:
			return ConstraintNotNull
		}
		if pqErr.Code.Class() == pgIntegrityClass {
			return ConstraintOther
		}
		return ConstraintNone
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code != sqlite3.ErrConstraint {
			return ConstraintNone
		}
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return ConstraintForeignKey
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ConstraintUnique
		case sqlite3.ErrConstraintNotNull:
			return ConstraintNotNull
		}
		return ConstraintOther
	}

	return ConstraintNone
}
