package task

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses and priorities.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusCancelled  = "CANCELLED"

	PriorityRoutine = "routine"
	PriorityUrgent  = "urgent"
	PriorityStat    = "stat"
)

// Task maps to the staff_task table.
type Task struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description,omitempty"`
	AssigneeID  uuid.UUID  `db:"assignee_id" json:"assignee_id"`
	CreatedBy   *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	DueAt       *time.Time `db:"due_at" json:"due_at,omitempty"`
	Priority    string     `db:"priority" json:"priority"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
