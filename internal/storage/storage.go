package storage

import (
	"context"
	"embed"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations exposes the embedded schema migrations for goose.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// The subdirectory is embedded at compile time; failure here means a
		// broken build, not a runtime condition.
		panic(err)
	}
	return sub
}

// DB is the querying surface the repositories need. Both *pgxpool.Pool and
// pgx.Tx satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxDB extends DB with transaction support, needed where a check and a write
// must be atomic (story lock acquisition).
type TxDB interface {
	DB
	Begin(ctx context.Context) (pgx.Tx, error)
}
