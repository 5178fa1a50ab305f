package pharmacy

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const itemCols = `id, name, sku, stock_qty, unit_price_cents, reorder_level,
	expires_at, created_at, updated_at, deleted_at`

func scanItem(row pgx.Row) (*Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.SKU, &i.StockQty, &i.UnitPriceCents, &i.ReorderLevel,
		&i.ExpiresAt, &i.CreatedAt, &i.UpdatedAt, &i.DeletedAt)
	return &i, err
}

func (r *repoPG) CreateItem(ctx context.Context, i *Item) error {
	i.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pharmacy_item (id, name, sku, stock_qty, unit_price_cents, reorder_level, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		i.ID, i.Name, i.SKU, i.StockQty, i.UnitPriceCents, i.ReorderLevel, i.ExpiresAt)
	return err
}

func (r *repoPG) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM pharmacy_item WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repoPG) ListItems(ctx context.Context, q string, lowStock bool, limit, offset int) ([]*Item, int, error) {
	where := `deleted_at IS NULL`
	args := []interface{}{}
	if q != "" {
		args = append(args, "%"+q+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR sku ILIKE $` + n + `)`
	}
	if lowStock {
		where += ` AND stock_qty <= reorder_level`
	}

	var items []*Item
	var total int
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pharmacy_item WHERE `+where, args...).Scan(&total); err != nil {
			return err
		}
		n := len(args)
		rows, err := r.conn(ctx).Query(ctx,
			`SELECT `+itemCols+` FROM pharmacy_item WHERE `+where+
				` ORDER BY name LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
			append(args, limit, offset)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			i, err := scanItem(rows)
			if err != nil {
				return err
			}
			items = append(items, i)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) UpdateItem(ctx context.Context, i *Item) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE pharmacy_item SET name=$2, sku=$3, stock_qty=$4, unit_price_cents=$5,
			reorder_level=$6, expires_at=$7, updated_at=NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		i.ID, i.Name, i.SKU, i.StockQty, i.UnitPriceCents, i.ReorderLevel, i.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) SoftDeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE pharmacy_item SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) RegisterSale(ctx context.Context, s *Sale) error {
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		var stock int
		var price int64
		err := r.conn(ctx).QueryRow(ctx, `
			SELECT stock_qty, unit_price_cents FROM pharmacy_item
			WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, s.ItemID).Scan(&stock, &price)
		if err != nil {
			return err
		}
		if stock < s.Quantity {
			return ErrInsufficientStock
		}

		if _, err := r.conn(ctx).Exec(ctx, `
			UPDATE pharmacy_item SET stock_qty = stock_qty - $2, updated_at = NOW()
			WHERE id = $1`, s.ItemID, s.Quantity); err != nil {
			return err
		}

		s.ID = uuid.New()
		s.UnitPriceCents = price
		s.TotalCents = int64(s.Quantity) * price
		_, err = r.conn(ctx).Exec(ctx, `
			INSERT INTO pharmacy_sale (id, item_id, quantity, unit_price_cents, total_cents, patient_id, sold_by)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			s.ID, s.ItemID, s.Quantity, s.UnitPriceCents, s.TotalCents, s.PatientID, s.SoldBy)
		return err
	})
}

func (r *repoPG) ListSales(ctx context.Context, limit, offset int) ([]*Sale, int, error) {
	var items []*Sale
	var total int
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pharmacy_sale`).Scan(&total); err != nil {
			return err
		}
		rows, err := r.conn(ctx).Query(ctx, `
			SELECT id, item_id, quantity, unit_price_cents, total_cents, patient_id, sold_by, created_at
			FROM pharmacy_sale ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var s Sale
			if err := rows.Scan(&s.ID, &s.ItemID, &s.Quantity, &s.UnitPriceCents, &s.TotalCents,
				&s.PatientID, &s.SoldBy, &s.CreatedAt); err != nil {
				return err
			}
			items = append(items, &s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
