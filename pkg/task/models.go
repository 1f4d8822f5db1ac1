package task

import (
	"time"

	"github.com/google/uuid"
)

// Task is a record owned by exactly one account. No task outlives its owner.
type Task struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
