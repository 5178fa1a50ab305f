package attendance

import (
	"context"
	"strconv"
	"time"

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

type attendanceRepoPG struct{ pool *pgxpool.Pool }

func NewAttendanceRepoPG(pool *pgxpool.Pool) AttendanceRepository {
	return &attendanceRepoPG{pool: pool}
}

func (r *attendanceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const attendanceCols = `id, staff_id, work_date, clock_in_at, clock_out_at, created_at`

func (r *attendanceRepoPG) ClockIn(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO attendance (id, staff_id, work_date, clock_in_at)
		VALUES ($1,$2,$3,$4)`,
		rec.ID, rec.StaffID, rec.WorkDate, rec.ClockInAt)
	return err
}

func (r *attendanceRepoPG) ClockOut(ctx context.Context, staffID uuid.UUID, workDate time.Time, at time.Time) (*Record, error) {
	var rec Record
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE attendance SET clock_out_at = $3
		WHERE staff_id = $1 AND work_date = $2 AND clock_out_at IS NULL
		RETURNING `+attendanceCols, staffID, workDate, at).
		Scan(&rec.ID, &rec.StaffID, &rec.WorkDate, &rec.ClockInAt, &rec.ClockOutAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *attendanceRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Record, int, error) {
	where := `TRUE`
	args := []interface{}{}
	if f.StaffID != nil {
		args = append(args, *f.StaffID)
		where += ` AND staff_id = $` + strconv.Itoa(len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += ` AND work_date >= $` + strconv.Itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += ` AND work_date <= $` + strconv.Itoa(len(args))
	}

	var items []*Record
	var total int
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM attendance WHERE `+where, args...).Scan(&total); err != nil {
			return err
		}
		n := len(args)
		rows, err := r.conn(ctx).Query(ctx,
			`SELECT `+attendanceCols+` FROM attendance WHERE `+where+
				` ORDER BY work_date DESC, clock_in_at DESC LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
			append(args, limit, offset)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var rec Record
			if err := rows.Scan(&rec.ID, &rec.StaffID, &rec.WorkDate, &rec.ClockInAt, &rec.ClockOutAt, &rec.CreatedAt); err != nil {
				return err
			}
			items = append(items, &rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
