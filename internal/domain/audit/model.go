package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry maps to the append-only audit_log table. Rows are never
// updated or deleted.
type Entry struct {
	ID         uuid.UUID              `db:"id" json:"id"`
	Action     string                 `db:"action" json:"action"`
	EntityType string                 `db:"entity_type" json:"entity_type"`
	EntityID   string                 `db:"entity_id" json:"entity_id"`
	ActorID    *uuid.UUID             `db:"actor_id" json:"actor_id,omitempty"`
	ActorRole  string                 `db:"actor_role" json:"actor_role"`
	Details    map[string]interface{} `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
}
