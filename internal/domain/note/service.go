package note

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/auth"
	"github.com/medcore/medcore/internal/platform/db"
	"github.com/medcore/medcore/internal/platform/ensure"
)

type auditor interface {
	RecordAsync(action, entityType, entityID string, actorID uuid.UUID, actorRole string, details map[string]interface{})
}

type Service struct {
	notes    NoteRepository
	patients ensure.Checker
	audit    auditor
}

func NewService(notes NoteRepository, patients ensure.Checker, a auditor) *Service {
	return &Service{notes: notes, patients: patients, audit: a}
}

type CreateInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
}

func (s *Service) Create(ctx context.Context, in CreateInput, actorID uuid.UUID, actorRole string) (*Note, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperror.Validation("title is required")
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, apperror.Validation("body is required")
	}
	if actorID == uuid.Nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	if err := ensure.Exists(ctx, s.patients, in.PatientID, "patient"); err != nil {
		return nil, err
	}

	n := &Note{
		PatientID: in.PatientID,
		AuthorID:  actorID,
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		Category:  in.Category,
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, apperror.Internal(err)
	}

	s.audit.RecordAsync("note.create", "note", n.ID.String(), actorID, actorRole, nil)
	return n, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Note, error) {
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("note")
		}
		return nil, apperror.Internal(err)
	}
	return n, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error) {
	items, total, err := s.notes.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, total, nil
}

type UpdateInput struct {
	Title    *string `json:"title"`
	Body     *string `json:"body"`
	Category *string `json:"category"`
}

// Update is restricted to the note's author or an admin.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, actorID uuid.UUID, actorRole string) (*Note, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(n, actorID, actorRole) {
		return nil, apperror.Forbidden("only the author or an admin may update this note")
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperror.Validation("title cannot be empty")
		}
		n.Title = strings.TrimSpace(*in.Title)
	}
	if in.Body != nil {
		if strings.TrimSpace(*in.Body) == "" {
			return nil, apperror.Validation("body cannot be empty")
		}
		n.Body = *in.Body
	}
	if in.Category != nil {
		n.Category = *in.Category
	}

	if err := s.notes.Update(ctx, n); err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("note")
		}
		return nil, apperror.Internal(err)
	}

	s.audit.RecordAsync("note.update", "note", id.String(), actorID, actorRole, nil)
	return n, nil
}

func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) error {
	n, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(n, actorID, actorRole) {
		return apperror.Forbidden("only the author or an admin may delete this note")
	}

	if err := s.notes.SoftDelete(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return apperror.NotFound("note")
		}
		return apperror.Internal(err)
	}
	s.audit.RecordAsync("note.delete", "note", id.String(), actorID, actorRole, nil)
	return nil
}

func canModify(n *Note, actorID uuid.UUID, actorRole string) bool {
	return n.AuthorID == actorID || actorRole == auth.RoleAdmin || actorRole == auth.RoleSuperAdmin
}
