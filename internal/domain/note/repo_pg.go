package note

import (
	"context"

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

type noteRepoPG struct{ pool *pgxpool.Pool }

func NewNoteRepoPG(pool *pgxpool.Pool) NoteRepository {
	return &noteRepoPG{pool: pool}
}

func (r *noteRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const noteCols = `id, patient_id, author_id, title, body, category,
	created_at, updated_at, deleted_at`

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.PatientID, &n.AuthorID, &n.Title, &n.Body, &n.Category,
		&n.CreatedAt, &n.UpdatedAt, &n.DeletedAt)
	return &n, err
}

func (r *noteRepoPG) Create(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_note (id, patient_id, author_id, title, body, category)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		n.ID, n.PatientID, n.AuthorID, n.Title, n.Body, n.Category)
	return err
}

func (r *noteRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	return scanNote(r.conn(ctx).QueryRow(ctx,
		`SELECT `+noteCols+` FROM clinical_note WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *noteRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error) {
	var items []*Note
	var total int
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT COUNT(*) FROM clinical_note WHERE patient_id = $1 AND deleted_at IS NULL`,
			patientID).Scan(&total); err != nil {
			return err
		}
		rows, err := r.conn(ctx).Query(ctx,
			`SELECT `+noteCols+` FROM clinical_note WHERE patient_id = $1 AND deleted_at IS NULL
			 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			n, err := scanNote(rows)
			if err != nil {
				return err
			}
			items = append(items, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *noteRepoPG) Update(ctx context.Context, n *Note) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_note SET title=$2, body=$3, category=$4, updated_at=NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		n.ID, n.Title, n.Body, n.Category)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *noteRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_note SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
