// Package session bridges issued bearer tokens to authenticated requests.
// The token itself is validated against the sessions table; handlers read
// the resulting session from the request context.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/fictlabs/fict/internal/storage"
	"github.com/fictlabs/fict/pkg/logger"
)

// Validator checks a presented bearer token against issued sessions.
type Validator interface {
	// Validate returns the matching session, storage.ErrSessionNotFound for
	// an unknown token, or a wrapped storage error.
	Validate(ctx context.Context, token int64) (storage.Session, error)
}

// RequireUser rejects requests that do not carry a valid bearer session.
// An unknown or malformed token answers 401; a storage failure answers 500,
// keeping benign misses distinguishable from infrastructure trouble.
func RequireUser(sessions Validator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			s, err := sessions.Validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, storage.ErrSessionNotFound) {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				log.ErrorContext(r.Context(), "session validation failed", logger.Error(err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// bearerToken extracts the numeric session token from the Authorization
// header.
func bearerToken(r *http.Request) (int64, bool) {
	auth := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return 0, false
	}
	token, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return token, true
}
