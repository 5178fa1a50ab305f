package audit

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcore/medcore/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewEntryRepoPG(pool *pgxpool.Pool) EntryRepository {
	return &entryRepoPG{pool: pool}
}

func (r *entryRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *entryRepoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	var details []byte
	if e.Details != nil {
		var err error
		details, err = json.Marshal(e.Details)
		if err != nil {
			return err
		}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_log (id, action, entity_type, entity_id, actor_id, actor_role, details)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.Action, e.EntityType, e.EntityID, e.ActorID, e.ActorRole, details)
	return err
}

func (r *entryRepoPG) List(ctx context.Context, entityType, entityID string, limit, offset int) ([]*Entry, int, error) {
	where := `TRUE`
	args := []interface{}{}
	if entityType != "" {
		args = append(args, entityType)
		where += ` AND entity_type = $` + strconv.Itoa(len(args))
	}
	if entityID != "" {
		args = append(args, entityID)
		where += ` AND entity_id = $` + strconv.Itoa(len(args))
	}

	var items []*Entry
	var total int
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM audit_log WHERE `+where, args...).Scan(&total); err != nil {
			return err
		}
		n := len(args)
		rows, err := r.conn(ctx).Query(ctx, `
			SELECT id, action, entity_type, entity_id, actor_id, actor_role, details, created_at
			FROM audit_log WHERE `+where+
			` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
			append(args, limit, offset)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e Entry
			var details []byte
			if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID,
				&e.ActorID, &e.ActorRole, &details, &e.CreatedAt); err != nil {
				return err
			}
			if len(details) > 0 {
				if err := json.Unmarshal(details, &e.Details); err != nil {
					return err
				}
			}
			items = append(items, &e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
