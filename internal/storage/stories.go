package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fictlabs/fict/pkg/pg"
)

// Story is an ongoing collaborative work. At most one contributor at a time
// holds its write lock.
type Story struct {
	ID             int64
	LockUserID     *int64
	LockExpiration *time.Time
	CreatedAt      time.Time
}

// Snippet is a single submission to a story.
type Snippet struct {
	ID           int64
	Ordinal      int32
	UserID       int64
	StoryID      int64
	CreationTime time.Time
	Content      string
}

// Stories persists stories and their snippets and arbitrates the per-story
// write lock.
type Stories struct {
	db      TxDB
	lockTTL time.Duration
}

// NewStories creates the stories repository. The lock TTL controls how long
// an acquired write lock lasts before other contributors may claim it.
func NewStories(db TxDB, lockTTL time.Duration) *Stories {
	if lockTTL <= 0 {
		lockTTL = 15 * time.Minute
	}
	return &Stories{db: db, lockTTL: lockTTL}
}

// Begin starts a new story with its first snippet, contributed by owner.
func (s *Stories) Begin(ctx context.Context, owner User, content string) (Story, Snippet, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Story{}, Snippet{}, fmt.Errorf("failed to begin story: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var story Story
	if err := tx.QueryRow(ctx, `
		INSERT INTO stories DEFAULT VALUES
		RETURNING id, created_at
	`).Scan(&story.ID, &story.CreatedAt); err != nil {
		return Story{}, Snippet{}, fmt.Errorf("failed to insert story: %w", err)
	}

	snippet, err := insertSnippet(ctx, tx, story.ID, owner.ID, content)
	if err != nil {
		return Story{}, Snippet{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Story{}, Snippet{}, fmt.Errorf("failed to commit story: %w", err)
	}
	return story, snippet, nil
}

// AcquireLock claims the write lock on a story for the applicant and returns
// the most recent snippet so the next contribution can pick up from it.
// When another user holds an unexpired lock it fails with AlreadyLockedError
// carrying the owner's name and the lock expiration.
func (s *Stories) AcquireLock(ctx context.Context, storyID int64, applicant User) (Story, Snippet, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Story{}, Snippet{}, fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	story, ownerName, err := lockRow(ctx, tx, storyID)
	if err != nil {
		return Story{}, Snippet{}, err
	}

	now := time.Now()
	if heldByOther(story, applicant.ID, now) {
		return Story{}, Snippet{}, &AlreadyLockedError{Owner: ownerName, Expiration: *story.LockExpiration}
	}

	expiration := now.Add(s.lockTTL)
	if _, err := tx.Exec(ctx, `
		UPDATE stories SET lock_user_id = $1, lock_expiration = $2 WHERE id = $3
	`, applicant.ID, expiration, storyID); err != nil {
		return Story{}, Snippet{}, fmt.Errorf("failed to record lock: %w", err)
	}
	story.LockUserID = &applicant.ID
	story.LockExpiration = &expiration

	var latest Snippet
	err = tx.QueryRow(ctx, `
		SELECT id, ordinal, user_id, story_id, creation_time, content
		FROM snippets
		WHERE story_id = $1
		ORDER BY ordinal DESC
		LIMIT 1
	`, storyID).Scan(&latest.ID, &latest.Ordinal, &latest.UserID, &latest.StoryID, &latest.CreationTime, &latest.Content)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Story{}, Snippet{}, fmt.Errorf("failed to load latest snippet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Story{}, Snippet{}, fmt.Errorf("failed to commit lock: %w", err)
	}
	return story, latest, nil
}

// Contribute appends the next snippet to a story. The contributor must hold
// the story's unexpired write lock; the lock is released on success so the
// next contributor can claim it.
func (s *Stories) Contribute(ctx context.Context, storyID int64, contributor User, content string) (Snippet, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Snippet{}, fmt.Errorf("failed to contribute: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	story, _, err := lockRow(ctx, tx, storyID)
	if err != nil {
		return Snippet{}, err
	}

	now := time.Now()
	if story.LockUserID == nil || *story.LockUserID != contributor.ID ||
		story.LockExpiration == nil || now.After(*story.LockExpiration) {
		return Snippet{}, ErrLockRequired
	}

	snippet, err := insertSnippet(ctx, tx, storyID, contributor.ID, content)
	if err != nil {
		return Snippet{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE stories SET lock_user_id = NULL, lock_expiration = NULL WHERE id = $1
	`, storyID); err != nil {
		return Snippet{}, fmt.Errorf("failed to release lock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Snippet{}, fmt.Errorf("failed to commit contribution: %w", err)
	}
	return snippet, nil
}

// lockRow loads a story row under FOR UPDATE, serializing lock decisions.
func lockRow(ctx context.Context, tx pgx.Tx, storyID int64) (Story, string, error) {
	var story Story
	var ownerName *string
	err := tx.QueryRow(ctx, `
		SELECT s.id, s.lock_user_id, s.lock_expiration, s.created_at, u.name
		FROM stories s
		LEFT JOIN users u ON u.id = s.lock_user_id
		WHERE s.id = $1
		FOR UPDATE OF s
	`, storyID).Scan(&story.ID, &story.LockUserID, &story.LockExpiration, &story.CreatedAt, &ownerName)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Story{}, "", ErrStoryNotFound
		}
		return Story{}, "", fmt.Errorf("failed to load story: %w", err)
	}

	name := ""
	if ownerName != nil {
		name = *ownerName
	}
	return story, name, nil
}

func heldByOther(story Story, applicantID int64, now time.Time) bool {
	return story.LockUserID != nil && *story.LockUserID != applicantID &&
		story.LockExpiration != nil && now.Before(*story.LockExpiration)
}

func insertSnippet(ctx context.Context, tx pgx.Tx, storyID, userID int64, content string) (Snippet, error) {
	snippet := Snippet{UserID: userID, StoryID: storyID, Content: content}
	err := tx.QueryRow(ctx, `
		INSERT INTO snippets (user_id, story_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, ordinal, creation_time
	`, userID, storyID, content).Scan(&snippet.ID, &snippet.Ordinal, &snippet.CreationTime)
	if err != nil {
		return Snippet{}, fmt.Errorf("failed to insert snippet: %w", err)
	}
	return snippet, nil
}
