package store

import (
	"context"
	"database/sql"
)

// DBTX is the querying surface the quiz, material, and question stores run
// against. Both *sql.DB and *sql.Tx satisfy it, so a store built on a plain
// connection can be rebound to a transaction with WithTx and the same query
// code runs inside RunInTransaction unchanged.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
