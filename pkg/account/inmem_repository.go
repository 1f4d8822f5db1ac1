package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/identity/pkg/errors"
)

// InMemRepository implements Repository using an in-memory map.
// Used in tests and for running the service without PostgreSQL.
type InMemRepository struct {
	accounts map[uuid.UUID]Account
	byEmail  map[string]uuid.UUID
	mu       sync.Mutex
}

// NewInMemRepository creates a new in-memory account repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		accounts: make(map[uuid.UUID]Account),
		byEmail:  make(map[string]uuid.UUID),
	}
}

// GetByID retrieves an account by ID
func (r *InMemRepository) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, exists := r.accounts[id]
	if !exists {
		return Account{}, errors.NotFound("account", id.String())
	}
	return acct.Clone(), nil
}

// GetByEmail retrieves an account by its normalized email
func (r *InMemRepository) GetByEmail(ctx context.Context, email string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, exists := r.byEmail[email]
	if !exists {
		return Account{}, errors.NotFound("account", email)
	}
	return r.accounts[id].Clone(), nil
}

// Create persists a new account, enforcing email uniqueness
func (r *InMemRepository) Create(ctx context.Context, acct *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[acct.Email]; taken {
		return errors.Newf(errors.ErrCodeEmailTaken, "email already registered: %s", acct.Email)
	}

	now := time.Now().UTC()
	acct.Version = 1
	acct.CreatedAt = now
	acct.UpdatedAt = now

	r.accounts[acct.ID] = acct.Clone()
	r.byEmail[acct.Email] = acct.ID
	return nil
}

// Update persists a mutation using compare-and-swap on Version
func (r *InMemRepository) Update(ctx context.Context, acct *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.accounts[acct.ID]
	if !exists {
		return errors.NotFound("account", acct.ID.String())
	}
	if stored.Version != acct.Version {
		return errors.Newf(errors.ErrCodeVersionConflict,
			"account %s modified concurrently (have version %d, want %d)",
			acct.ID, acct.Version, stored.Version)
	}

	if acct.Email != stored.Email {
		if _, taken := r.byEmail[acct.Email]; taken {
			return errors.Newf(errors.ErrCodeEmailTaken, "email already registered: %s", acct.Email)
		}
		delete(r.byEmail, stored.Email)
		r.byEmail[acct.Email] = acct.ID
	}

	acct.Version++
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[acct.ID] = acct.Clone()
	return nil
}

// Delete removes the account record
func (r *InMemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.accounts[id]
	if !exists {
		return errors.NotFound("account", id.String())
	}
	delete(r.byEmail, stored.Email)
	delete(r.accounts, id)
	return nil
}
