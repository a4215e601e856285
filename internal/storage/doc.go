// Package storage persists the service's durable entities over PostgreSQL:
// users, their bearer sessions, and the collaborative stories with their
// snippets. Schema migrations are embedded and applied at startup.
//
// Uniqueness that matters for correctness lives in the schema rather than
// application logic: a user's email and a session's token are both unique
// indexes, so concurrent logins cannot create duplicate users or colliding
// sessions regardless of interleaving.
package storage
