package task

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/taskhub/identity/pkg/errors"
)

// Service provides task operations scoped to the owning account: a task is
// only visible and mutable to its owner.
type Service struct {
	repo Repository
}

// NewService creates a new task service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a task owned by the account
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, title string) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, errors.Validation("title", "is required")
	}

	t := Task{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Title:   title,
	}
	if err := s.repo.Create(ctx, &t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Get returns the task when it exists and belongs to the account.
// A task owned by someone else is indistinguishable from a missing one.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if t.OwnerID != ownerID {
		return Task{}, errors.NotFound("task", id.String())
	}
	return t, nil
}

// List returns the account's tasks
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]Task, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// UpdateParams carries the optional task patch fields
type UpdateParams struct {
	Title *string
	Done  *bool
}

// Update applies a patch to the account's task
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, params UpdateParams) (Task, error) {
	t, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Task{}, err
	}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return Task{}, errors.Validation("title", "is required")
		}
		t.Title = title
	}
	if params.Done != nil {
		t.Done = *params.Done
	}

	if err := s.repo.Update(ctx, &t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Delete removes the account's task
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// DeleteOwnedBy removes every task owned by the account and returns the
// number removed. Invoked by the account deletion cascade.
func (s *Service) DeleteOwnedBy(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return s.repo.DeleteByOwner(ctx, ownerID)
}
