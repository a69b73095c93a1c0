// Package db is the hand-rolled query layer over the SQLite schema.
// It follows the sqlc shape (Queries over a DBTX, Params structs per
// statement) so call sites stay uniform.
package db

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB / *sql.Tx the query layer needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries exposes typed statements against the schema.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}
