package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for accounts.
//
// Update is a compare-and-swap on the record's Version stamp: a stale write
// fails with ErrCodeVersionConflict instead of silently overwriting a
// concurrent mutation, so token appends from parallel logins never drop
// each other. Email uniqueness is enforced on both Create and Update,
// failing with ErrCodeEmailTaken.
type Repository interface {
	// GetByID retrieves an account by its ID, ErrCodeNotFound when absent
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)

	// GetByEmail retrieves an account by its normalized email address
	GetByEmail(ctx context.Context, email string) (Account, error)

	// Create persists a new account and stamps Version and the timestamps
	Create(ctx context.Context, acct *Account) error

	// Update persists a mutation read at acct.Version, bumping the stamp
	Update(ctx context.Context, acct *Account) error

	// Delete removes the account record
	Delete(ctx context.Context, id uuid.UUID) error
}

// Remover deletes every record owned by an account together with the
// account itself as a single unit of failure: when the cascade fails the
// account removal is aborted, never skipped.
type Remover interface {
	// RemoveCascade returns the number of owned records deleted
	RemoveCascade(ctx context.Context, id uuid.UUID) (int64, error)
}
