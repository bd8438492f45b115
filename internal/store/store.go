// Package store is the data-access boundary. Every method on a tenant-owned
// table takes the tenant id as its first argument after the context and adds
// it to the WHERE clause, so no query can reach another tenant's rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Queries runs statements against either the pool or an open transaction.
type Queries struct {
	db dbtx
}

// Store owns the connection pool.
type Store struct {
	Queries
	db *sqlx.DB
}

// New wraps db. Queries run outside a transaction until InTx is used.
func New(db *sqlx.DB) *Store {
	return &Store{Queries: Queries{db: db}, db: db}
}

// InTx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (q *Queries) rebind(query string) string {
	return q.db.Rebind(query)
}

// lockSuffix takes a row lock on PostgreSQL. SQLite serializes writers on its
// single connection and has no FOR UPDATE.
func (q *Queries) lockSuffix() string {
	if q.db.DriverName() == "postgres" {
		return " FOR UPDATE"
	}
	return ""
}

func (q *Queries) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := q.db.QueryRowxContext(ctx, q.rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (q *Queries) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
