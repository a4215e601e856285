package storage

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUserNotFound indicates no user matched the lookup.
	ErrUserNotFound = errors.New("storage: user not found")

	// ErrSessionNotFound indicates no session matched the presented token.
	// Distinct from query failures so callers can treat it as a benign miss.
	ErrSessionNotFound = errors.New("storage: session not found")

	// ErrStoryNotFound indicates the story does not exist.
	ErrStoryNotFound = errors.New("storage: story not found")

	// ErrLockRequired indicates a contribution was attempted without holding
	// the story's write lock.
	ErrLockRequired = errors.New("storage: story write lock not held")
)

// AlreadyLockedError reports that another contributor holds a story's write
// lock. It carries what the API response needs: who owns the lock and when it
// lapses.
type AlreadyLockedError struct {
	Owner      string
	Expiration time.Time
}

func (e *AlreadyLockedError) Error() string {
	return fmt.Sprintf("storage: story locked by %s until %s", e.Owner, e.Expiration.Format(time.RFC3339))
}
