package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/identity/pkg/errors"
)

// InMemRepository implements Repository using an in-memory map
type InMemRepository struct {
	tasks map[uuid.UUID]Task
	mu    sync.Mutex
}

// NewInMemRepository creates a new in-memory task repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		tasks: make(map[uuid.UUID]Task),
	}
}

// Create persists a new task
func (r *InMemRepository) Create(ctx context.Context, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tasks[t.ID] = *t
	return nil
}

// GetByID retrieves a task by ID
func (r *InMemRepository) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tasks[id]
	if !exists {
		return Task{}, errors.NotFound("task", id.String())
	}
	return t, nil
}

// ListByOwner returns the owner's tasks, oldest first
func (r *InMemRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task, 0)
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Update persists a task mutation
func (r *InMemRepository) Update(ctx context.Context, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[t.ID]; !exists {
		return errors.NotFound("task", t.ID.String())
	}
	t.UpdatedAt = time.Now().UTC()
	r.tasks[t.ID] = *t
	return nil
}

// Delete removes a task
func (r *InMemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[id]; !exists {
		return errors.NotFound("task", id.String())
	}
	delete(r.tasks, id)
	return nil
}

// DeleteByOwner removes every task owned by the account
func (r *InMemRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, t := range r.tasks {
		if t.OwnerID == ownerID {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed, nil
}
