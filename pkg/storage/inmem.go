package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskhub/identity/pkg/account"
	"github.com/taskhub/identity/pkg/task"
)

// InMemStore composes the in-memory repositories. The cascade confirms the
// owned-record deletion before the account is removed, matching the unit-of-
// failure contract without a transaction.
type InMemStore struct {
	accounts *account.InMemRepository
	tasks    *task.InMemRepository
}

// NewInMemStore creates a store backed by in-memory repositories
func NewInMemStore() *InMemStore {
	return &InMemStore{
		accounts: account.NewInMemRepository(),
		tasks:    task.NewInMemRepository(),
	}
}

// Accounts returns the account repository
func (s *InMemStore) Accounts() account.Repository {
	return s.accounts
}

// Tasks returns the task repository
func (s *InMemStore) Tasks() task.Repository {
	return s.tasks
}

// RemoveCascade deletes the account's tasks, then the account
func (s *InMemStore) RemoveCascade(ctx context.Context, id uuid.UUID) (int64, error) {
	removed, err := s.tasks.DeleteByOwner(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return 0, err
	}
	return removed, nil
}
