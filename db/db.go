package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"procurelink/internal/lifecycle"
)

// pq error codes.
const (
	uniqueViolation   = "23505"
	checkViolation    = "23514"
	numericOutOfRange = "22003"
)

// Storage is the PostgreSQL implementation of lifecycle.Store.
type Storage struct {
	db *sqlx.DB
	queries
}

var _ lifecycle.Store = (*Storage)(nil)

// NewStorage wraps an open pool. The caller owns db and closes it.
func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db, queries: queries{q: db}}
}

// Connect opens a pooled connection and pings the server.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return conn, nil
}

// Tx runs fn inside a database transaction. The transaction is committed
// when fn returns nil and rolled back otherwise.
func (s *Storage) Tx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(queries{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", mapErr(err))
	}
	return nil
}

// queries holds every statement; q is either the pool or an open transaction.
type queries struct {
	q sqlx.ExtContext
}

func (s queries) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return mapErr(sqlx.GetContext(ctx, s.q, dest, query, args...))
}

func (s queries) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return mapErr(sqlx.SelectContext(ctx, s.q, dest, query, args...))
}

func (s queries) exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.q.ExecContext(ctx, query, args...)
	return mapErr(err)
}

// execCAS runs a conditional update and reports whether a row changed.
func (s queries) execCAS(ctx context.Context, query string, args ...interface{}) (bool, error) {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return lifecycle.ErrNotFound
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		return fmt.Errorf("%s: %w", pqErr.Constraint, lifecycle.ErrConflict)
	case checkViolation, numericOutOfRange:
		return &lifecycle.ValidationError{Fields: map[string]string{rejectedField(pqErr): "is out of range"}}
	}
	return err
}

// rejectedField names the input a constraint rejected. Check constraints are
// named <table>_<column>_check.
func rejectedField(e *pq.Error) string {
	if e.Column != "" {
		return e.Column
	}
	if c := strings.TrimSuffix(e.Constraint, "_check"); c != e.Constraint && e.Table != "" {
		return strings.TrimPrefix(c, e.Table+"_")
	}
	return "value"
}
