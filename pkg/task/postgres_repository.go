package task

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/taskhub/identity/pkg/dbx"
	"github.com/taskhub/identity/pkg/errors"
)

// PostgresRepository implements Repository over a dbx.DBTX handle
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository creates a new PostgreSQL task repository
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists a new task
func (r *PostgresRepository) Create(ctx context.Context, t *Task) error {
	query := `
		INSERT INTO tasks (id, owner_id, title, done)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, t.ID, t.OwnerID, t.Title, t.Done).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return errors.StorageWrap(err, "failed to create task")
	}
	return nil
}

// GetByID retrieves a task by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	query := `SELECT id, owner_id, title, done, created_at, updated_at FROM tasks WHERE id = $1`

	var t Task
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.OwnerID, &t.Title, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Task{}, errors.NotFound("task", id.String())
		}
		return Task{}, errors.StorageWrap(err, "failed to load task")
	}
	return t, nil
}

// ListByOwner returns the owner's tasks, oldest first
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Task, error) {
	query := `
		SELECT id, owner_id, title, done, created_at, updated_at
		FROM tasks WHERE owner_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, errors.StorageWrap(err, "failed to list tasks")
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Done, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.StorageWrap(err, "failed to scan task")
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageWrap(err, "failed to list tasks")
	}
	return tasks, nil
}

// Update persists a task mutation
func (r *PostgresRepository) Update(ctx context.Context, t *Task) error {
	query := `
		UPDATE tasks SET title = $1, done = $2, updated_at = now()
		WHERE id = $3
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, t.Title, t.Done, t.ID).Scan(&t.UpdatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NotFound("task", t.ID.String())
		}
		return errors.StorageWrap(err, "failed to update task")
	}
	return nil
}

// Delete removes a task
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return errors.StorageWrap(err, "failed to delete task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("task", id.String())
	}
	return nil
}

// DeleteByOwner removes every task owned by the account
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, errors.StorageWrap(err, "failed to delete owned tasks")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.StorageWrap(err, "failed to count deleted tasks")
	}
	return n, nil
}
