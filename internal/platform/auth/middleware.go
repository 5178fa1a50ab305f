package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medcore/medcore/internal/platform/apperror"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "user_role"
)

// Skipper decides whether a request bypasses authentication entirely
// (the "public" marker: login, refresh, self-registration, health).
type Skipper func(c echo.Context) bool

// PathSkipper builds a Skipper from exact public paths.
func PathSkipper(paths ...string) Skipper {
	public := make(map[string]bool, len(paths))
	for _, p := range paths {
		public[p] = true
	}
	return func(c echo.Context) bool {
		return public[c.Request().URL.Path]
	}
}

// Middleware resolves the caller's identity from the bearer token and
// stores id and role on the request context. Missing, malformed, or
// signature-invalid tokens fail with unauthorized.
func Middleware(tm *TokenManager, skip Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return apperror.Unauthorized("missing authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return apperror.Unauthorized("invalid authorization format")
			}

			claims, err := tm.VerifyAccess(parts[1])
			if err != nil {
				return err
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return apperror.Unauthorized("invalid subject claim")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, userID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated caller's id, or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	uid, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return uid
}

// RoleFromContext returns the authenticated caller's role, or "".
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}
