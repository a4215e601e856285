package storage

import (
	"context"
	"fmt"

	"github.com/fictlabs/fict/pkg/pg"
)

// User is a participant in the collaborative storytelling process, created
// automatically on first federated login. Its email uniquely identifies it.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Users persists User rows.
type Users struct {
	db DB
}

// NewUsers creates the users repository.
func NewUsers(db DB) *Users {
	return &Users{db: db}
}

// FindOrCreate resolves an email address to a user, inserting a new row with
// the given display name when none exists. The upsert leans on the unique
// email constraint, so concurrent callbacks for the same address cannot
// create duplicate rows. A repeat login refreshes the stored display name.
func (u *Users) FindOrCreate(ctx context.Context, email, name string) (User, error) {
	var user User
	err := u.db.QueryRow(ctx, `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, email
	`, name, email).Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		return User{}, fmt.Errorf("failed to find or create user: %w", err)
	}
	return user, nil
}

// ByID fetches a user by primary key.
func (u *Users) ByID(ctx context.Context, id int64) (User, error) {
	var user User
	err := u.db.QueryRow(ctx, `
		SELECT id, name, email FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
