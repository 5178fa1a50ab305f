package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcore/medcore/internal/platform/apperror"
)

type Service struct {
	entries EntryRepository
	logger  zerolog.Logger
}

func NewService(entries EntryRepository, logger zerolog.Logger) *Service {
	return &Service{entries: entries, logger: logger}
}

// Record writes an audit entry synchronously.
func (s *Service) Record(ctx context.Context, e *Entry) error {
	if e.Action == "" || e.EntityType == "" {
		return apperror.Validation("action and entity_type are required")
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// RecordAsync writes an audit entry in the background. The triggering
// operation never waits on or fails because of the audit write.
func (s *Service) RecordAsync(action, entityType, entityID string, actorID uuid.UUID, actorRole string, details map[string]interface{}) {
	e := &Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorRole:  actorRole,
		Details:    details,
	}
	if actorID != uuid.Nil {
		e.ActorID = &actorID
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.entries.Create(ctx, e); err != nil {
			s.logger.Warn().Err(err).
				Str("action", action).
				Str("entity_type", entityType).
				Str("entity_id", entityID).
				Msg("audit write failed")
		}
	}()
}

func (s *Service) List(ctx context.Context, entityType, entityID string, limit, offset int) ([]*Entry, int, error) {
	items, total, err := s.entries.List(ctx, entityType, entityID, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, total, nil
}
