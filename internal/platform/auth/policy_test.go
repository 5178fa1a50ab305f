package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medcore/medcore/internal/platform/apperror"
)

func TestPolicyAllows(t *testing.T) {
	p := Policy{
		"widgets:read":  {RoleDoctor, RoleNurse},
		"widgets:admin": {},
	}

	cases := []struct {
		role, action string
		want         bool
	}{
		{RoleDoctor, "widgets:read", true},
		{RoleNurse, "widgets:read", true},
		{RoleFrontDesk, "widgets:read", false},
		{RoleAdmin, "widgets:admin", false},
		{RoleSuperAdmin, "widgets:admin", true},
		{RoleSuperAdmin, "not-even-listed", true},
		{RoleDoctor, "unknown:action", false},
	}
	for _, tc := range cases {
		if got := p.Allows(tc.role, tc.action); got != tc.want {
			t.Errorf("Allows(%s, %s) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func invokeWithRole(t *testing.T, mw echo.MiddlewareFunc, role string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != "" {
		req = req.WithContext(context.WithValue(req.Context(), RoleKey, role))
	}
	c := e.NewContext(req, httptest.NewRecorder())
	return mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
}

func TestRequirePolicy(t *testing.T) {
	p := Policy{"widgets:read": {RoleDoctor}}
	mw := RequirePolicy(p, "widgets:read")

	if err := invokeWithRole(t, mw, ""); apperror.KindOf(err) != apperror.KindUnauthorized {
		t.Errorf("anonymous: expected unauthorized, got %v", err)
	}
	if err := invokeWithRole(t, mw, RoleFrontDesk); apperror.KindOf(err) != apperror.KindForbidden {
		t.Errorf("front-desk: expected forbidden, got %v", err)
	}
	if err := invokeWithRole(t, mw, RoleDoctor); err != nil {
		t.Errorf("doctor: expected pass, got %v", err)
	}
	if err := invokeWithRole(t, mw, RoleSuperAdmin); err != nil {
		t.Errorf("super-admin: expected pass, got %v", err)
	}
}

func TestDefaultPolicyHardDeleteIsSuperAdminOnly(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleDoctor, RoleNurse, RoleFrontDesk, RolePharmacist, RolePatient} {
		if DefaultPolicy.Allows(role, "users:hard-delete") {
			t.Errorf("role %s should not hard-delete users", role)
		}
	}
	if !DefaultPolicy.Allows(RoleSuperAdmin, "users:hard-delete") {
		t.Error("super-admin should hard-delete users")
	}
}
