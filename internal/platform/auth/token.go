package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medcore/medcore/internal/platform/apperror"
)

// Claims are the only claims an access token carries: the caller's id
// (subject) and role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RefreshToken is the persisted, revocable long-lived credential. Only
// the SHA-256 hash of the opaque token is stored.
type RefreshToken struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      string     `json:"role"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, t *RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*RefreshToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// TokenManager mints and verifies HS256 access tokens and manages the
// persisted refresh tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	tokens     RefreshTokenRepository
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, tokens RefreshTokenRepository) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		tokens:     tokens,
	}
}

// MintAccess issues a signed access token carrying userID and role.
func (m *TokenManager) MintAccess(userID uuid.UUID, role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.accessTTL)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyAccess parses and validates an access token.
func (m *TokenManager) VerifyAccess(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, apperror.Unauthorized("token missing identity claims")
	}
	return claims, nil
}

// IssuePair mints an access token and a fresh persisted refresh token.
func (m *TokenManager) IssuePair(ctx context.Context, userID uuid.UUID, role string) (*TokenPair, error) {
	access, expiresAt, err := m.MintAccess(userID, role)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	raw, hash, err := newOpaqueToken()
	if err != nil {
		return nil, apperror.Internal(err)
	}

	rt := &RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(m.refreshTTL),
	}
	if err := m.tokens.Create(ctx, rt); err != nil {
		return nil, apperror.Internal(err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: raw, ExpiresAt: expiresAt}, nil
}

// Rotate exchanges a valid refresh token for a new pair, revoking the
// old token so it is single-use.
func (m *TokenManager) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	rt, err := m.lookup(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := m.tokens.Revoke(ctx, rt.ID); err != nil {
		return nil, apperror.Internal(err)
	}
	return m.IssuePair(ctx, rt.UserID, rt.Role)
}

// Revoke invalidates a refresh token (logout).
func (m *TokenManager) Revoke(ctx context.Context, refreshToken string) error {
	rt, err := m.lookup(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := m.tokens.Revoke(ctx, rt.ID); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// RevokeAllForUser invalidates every refresh token a user holds.
func (m *TokenManager) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	if err := m.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (m *TokenManager) lookup(ctx context.Context, refreshToken string) (*RefreshToken, error) {
	rt, err := m.tokens.GetByHash(ctx, HashToken(refreshToken))
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}
	if rt.RevokedAt != nil {
		return nil, apperror.Unauthorized("refresh token revoked")
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, apperror.Unauthorized("refresh token expired")
	}
	return rt, nil
}

// HashToken returns the hex SHA-256 of an opaque token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newOpaqueToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, HashToken(raw), nil
}
