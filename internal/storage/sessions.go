package storage

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/fictlabs/fict/pkg/pg"
)

// tokenAttempts bounds retries when a freshly minted token collides with the
// unique index. A collision among 2^64 values is effectively theoretical.
const tokenAttempts = 3

// Session is an issued bearer credential tying a random 64-bit token to a
// user. Sessions are created once per completed handshake and read-only
// afterward.
type Session struct {
	ID     int64
	Token  int64
	UserID int64
}

// Sessions persists Session rows.
type Sessions struct {
	db DB
}

// NewSessions creates the sessions repository.
func NewSessions(db DB) *Sessions {
	return &Sessions{db: db}
}

// Assign mints a random token and inserts a session for the user. The user
// always carries a persisted ID because FindOrCreate is the only way to
// obtain one.
func (s *Sessions) Assign(ctx context.Context, user User) (Session, error) {
	for range tokenAttempts {
		token, err := randomToken()
		if err != nil {
			return Session{}, fmt.Errorf("failed to generate session token: %w", err)
		}

		var id int64
		err = s.db.QueryRow(ctx, `
			INSERT INTO sessions (token, user_id)
			VALUES ($1, $2)
			RETURNING id
		`, token, user.ID).Scan(&id)
		if err != nil {
			if pg.IsDuplicateKeyError(err) {
				continue
			}
			return Session{}, fmt.Errorf("failed to create session: %w", err)
		}

		return Session{ID: id, Token: token, UserID: user.ID}, nil
	}
	return Session{}, fmt.Errorf("failed to create session: token collisions on %d attempts", tokenAttempts)
}

// Validate looks up the session matching a presented token. It returns
// ErrSessionNotFound for an unknown token; any other error is a storage
// failure and reported as such.
func (s *Sessions) Validate(ctx context.Context, token int64) (Session, error) {
	var session Session
	err := s.db.QueryRow(ctx, `
		SELECT id, token, user_id FROM sessions WHERE token = $1
	`, token).Scan(&session.ID, &session.Token, &session.UserID)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("failed to validate session: %w", err)
	}
	return session, nil
}

func randomToken() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}
