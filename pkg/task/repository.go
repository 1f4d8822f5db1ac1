package task

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for owned task records
type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByOwner removes every task owned by the account and returns
	// how many were removed. Used by the account deletion cascade.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}
