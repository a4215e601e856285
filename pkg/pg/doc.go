// Package pg wires the PostgreSQL layer: a pgx/v5 connection pool with retry
// on startup, goose/v3 migrations applied from an embedded filesystem, a
// health check closure, and error classification helpers used by the
// repositories (not-found, duplicate key, foreign key violation).
package pg
