package billing

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

type invoiceRepoPG struct{ pool *pgxpool.Pool }

func NewInvoiceRepoPG(pool *pgxpool.Pool) InvoiceRepository {
	return &invoiceRepoPG{pool: pool}
}

func (r *invoiceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const invoiceCols = `id, number, patient_id, items, amount_cents, status,
	issued_by, created_at, updated_at, deleted_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var items []byte
	err := row.Scan(&inv.ID, &inv.Number, &inv.PatientID, &items, &inv.AmountCents, &inv.Status,
		&inv.IssuedBy, &inv.CreatedAt, &inv.UpdatedAt, &inv.DeletedAt)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.Items); err != nil {
			return nil, err
		}
	}
	return &inv, nil
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice (id, number, patient_id, items, amount_cents, status, issued_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		inv.ID, inv.Number, inv.PatientID, items, inv.AmountCents, inv.Status, inv.IssuedBy)
	return err
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoice WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *invoiceRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Invoice, int, error) {
	where := `deleted_at IS NULL`
	args := []interface{}{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where += ` AND patient_id = $` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}

	var items []*Invoice
	var total int
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM invoice WHERE `+where, args...).Scan(&total); err != nil {
			return err
		}
		n := len(args)
		rows, err := r.conn(ctx).Query(ctx,
			`SELECT `+invoiceCols+` FROM invoice WHERE `+where+
				` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
			append(args, limit, offset)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			inv, err := scanInvoice(rows)
			if err != nil {
				return err
			}
			items = append(items, inv)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *invoiceRepoPG) Update(ctx context.Context, inv *Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoice SET items=$2, amount_cents=$3, status=$4, updated_at=NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		inv.ID, items, inv.AmountCents, inv.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *invoiceRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoice SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
