package auth

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

type refreshTokenRepoPG struct{ pool *pgxpool.Pool }

func NewRefreshTokenRepoPG(pool *pgxpool.Pool) RefreshTokenRepository {
	return &refreshTokenRepoPG{pool: pool}
}

func (r *refreshTokenRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *refreshTokenRepoPG) Create(ctx context.Context, t *RefreshToken) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO refresh_token (id, user_id, role, token_hash, expires_at)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.UserID, t.Role, t.TokenHash, t.ExpiresAt)
	return err
}

func (r *refreshTokenRepoPG) GetByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	var t RefreshToken
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, user_id, role, token_hash, expires_at, revoked_at, created_at
		FROM refresh_token WHERE token_hash = $1`, hash).
		Scan(&t.ID, &t.UserID, &t.Role, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *refreshTokenRepoPG) Revoke(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE refresh_token SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}

func (r *refreshTokenRepoPG) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE refresh_token SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	return err
}
