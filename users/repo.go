package users

import "context"

// Repo is the user side of the persistence collaborator.
type Repo interface {
	// Find returns the user with the given lower-cased email or an error
	// wrapping errors.ErrNotFound.
	Find(ctx context.Context, email string) (*User, error)

	// Ensure creates a bare user for email if none exists yet.
	Ensure(ctx context.Context, email string) error

	// Upsert creates or replaces a user record.
	Upsert(ctx context.Context, user *User) error
}
