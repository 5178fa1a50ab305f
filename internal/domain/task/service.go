package task

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medcore/medcore/internal/domain/user"
	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/db"
	"github.com/medcore/medcore/internal/platform/ensure"
	"github.com/medcore/medcore/internal/platform/notify"
)

var validStatuses = map[string]bool{
	StatusOpen:       true,
	StatusInProgress: true,
	StatusDone:       true,
	StatusCancelled:  true,
}

var validPriorities = map[string]bool{
	PriorityRoutine: true,
	PriorityUrgent:  true,
	PriorityStat:    true,
}

// StaffDirectory resolves assignees for validation and notification.
type StaffDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type notifier interface {
	SendAsync(templateID, recipient string, data map[string]string)
}

type auditor interface {
	RecordAsync(action, entityType, entityID string, actorID uuid.UUID, actorRole string, details map[string]interface{})
}

type Service struct {
	tasks  TaskRepository
	staff  StaffDirectory
	notify notifier
	audit  auditor
}

func NewService(tasks TaskRepository, staff StaffDirectory, n notifier, a auditor) *Service {
	return &Service{tasks: tasks, staff: staff, notify: n, audit: a}
}

type CreateInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssigneeID  uuid.UUID  `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
	Priority    string     `json:"priority"`
}

func (s *Service) Create(ctx context.Context, in CreateInput, actorID uuid.UUID, actorRole string) (*Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperror.Validation("title is required")
	}
	if in.Priority == "" {
		in.Priority = PriorityRoutine
	}
	if !validPriorities[in.Priority] {
		return nil, apperror.Validation("invalid priority: %s", in.Priority)
	}
	if err := ensure.Exists(ctx, s.staff, in.AssigneeID, "assignee"); err != nil {
		return nil, err
	}

	t := &Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		AssigneeID:  in.AssigneeID,
		DueAt:       in.DueAt,
		Priority:    in.Priority,
		Status:      StatusOpen,
	}
	if actorID != uuid.Nil {
		t.CreatedBy = &actorID
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, apperror.Internal(err)
	}

	s.notifyAssignee(ctx, t)
	s.audit.RecordAsync("task.create", "task", t.ID.String(), actorID, actorRole, nil)
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("task")
		}
		return nil, apperror.Internal(err)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Task, int, error) {
	items, total, err := s.tasks.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, total, nil
}

type UpdateInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
	Priority    *string    `json:"priority"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, actorID uuid.UUID, actorRole string) (*Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperror.Validation("title cannot be empty")
		}
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	reassigned := false
	if in.AssigneeID != nil && *in.AssigneeID != t.AssigneeID {
		if err := ensure.Exists(ctx, s.staff, *in.AssigneeID, "assignee"); err != nil {
			return nil, err
		}
		t.AssigneeID = *in.AssigneeID
		reassigned = true
	}
	if in.DueAt != nil {
		t.DueAt = in.DueAt
	}
	if in.Priority != nil {
		if !validPriorities[*in.Priority] {
			return nil, apperror.Validation("invalid priority: %s", *in.Priority)
		}
		t.Priority = *in.Priority
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("task")
		}
		return nil, apperror.Internal(err)
	}

	if reassigned {
		s.notifyAssignee(ctx, t)
	}
	s.audit.RecordAsync("task.update", "task", id.String(), actorID, actorRole, nil)
	return t, nil
}

// SetStatus moves the task to any valid status. Closed tasks (DONE or
// CANCELLED) cannot be reopened.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string, actorID uuid.UUID, actorRole string) (*Task, error) {
	if !validStatuses[status] {
		return nil, apperror.Validation("invalid status: %s", status)
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusDone || t.Status == StatusCancelled {
		return nil, apperror.Conflict("task is already " + t.Status)
	}
	prev := t.Status
	t.Status = status

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, apperror.Internal(err)
	}

	s.audit.RecordAsync("task.status", "task", id.String(), actorID, actorRole, map[string]interface{}{
		"from": prev,
		"to":   status,
	})
	return t, nil
}

func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) error {
	if err := s.tasks.SoftDelete(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return apperror.NotFound("task")
		}
		return apperror.Internal(err)
	}
	s.audit.RecordAsync("task.delete", "task", id.String(), actorID, actorRole, nil)
	return nil
}

func (s *Service) notifyAssignee(ctx context.Context, t *Task) {
	assignee, err := s.staff.GetByID(ctx, t.AssigneeID)
	if err != nil || assignee.Email == "" {
		return
	}
	due := ""
	if t.DueAt != nil {
		due = t.DueAt.Format("2006-01-02 15:04")
	}
	s.notify.SendAsync(notify.TemplateTaskAssigned, assignee.Email, map[string]string{
		"assignee_name": assignee.FullName,
		"title":         t.Title,
		"due":           due,
	})
}
