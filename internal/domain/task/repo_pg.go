package task

import (
	"context"
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

type taskRepoPG struct{ pool *pgxpool.Pool }

func NewTaskRepoPG(pool *pgxpool.Pool) TaskRepository {
	return &taskRepoPG{pool: pool}
}

func (r *taskRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const taskCols = `id, title, description, assignee_id, created_by, due_at,
	priority, status, created_at, updated_at, deleted_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.AssigneeID, &t.CreatedBy, &t.DueAt,
		&t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	return &t, err
}

func (r *taskRepoPG) Create(ctx context.Context, t *Task) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO staff_task (id, title, description, assignee_id, created_by, due_at, priority, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.Title, t.Description, t.AssigneeID, t.CreatedBy, t.DueAt, t.Priority, t.Status)
	return err
}

func (r *taskRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	return scanTask(r.conn(ctx).QueryRow(ctx,
		`SELECT `+taskCols+` FROM staff_task WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *taskRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Task, int, error) {
	where := `deleted_at IS NULL`
	args := []interface{}{}
	if f.AssigneeID != nil {
		args = append(args, *f.AssigneeID)
		where += ` AND assignee_id = $` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}

	var items []*Task
	var total int
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM staff_task WHERE `+where, args...).Scan(&total); err != nil {
			return err
		}
		n := len(args)
		rows, err := r.conn(ctx).Query(ctx,
			`SELECT `+taskCols+` FROM staff_task WHERE `+where+
				` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
			append(args, limit, offset)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			items = append(items, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *taskRepoPG) Update(ctx context.Context, t *Task) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff_task SET title=$2, description=$3, assignee_id=$4, due_at=$5,
			priority=$6, status=$7, updated_at=NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		t.ID, t.Title, t.Description, t.AssigneeID, t.DueAt, t.Priority, t.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff_task SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
