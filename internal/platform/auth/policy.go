package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/medcore/medcore/internal/platform/apperror"
)

// Roles recognized across the API.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleDoctor     = "doctor"
	RoleNurse      = "nurse"
	RoleFrontDesk  = "front-desk"
	RolePharmacist = "pharmacist"
	RolePatient    = "patient"
)

// Policy is the single capability table: action -> roles permitted to
// perform it. Authorization decisions happen here rather than in
// per-handler role lists scattered through the codebase.
type Policy map[string][]string

// Allows reports whether role may perform action. Super-admins pass
// every check; an action absent from the table is denied to everyone
// else.
func (p Policy) Allows(role, action string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	for _, allowed := range p[action] {
		if allowed == role {
			return true
		}
	}
	return false
}

var clinicalStaff = []string{RoleAdmin, RoleDoctor, RoleNurse}
var allStaff = []string{RoleAdmin, RoleDoctor, RoleNurse, RoleFrontDesk, RolePharmacist}

// DefaultPolicy is the capability table served in production.
var DefaultPolicy = Policy{
	"users:create":      {RoleAdmin},
	"users:read":        {RoleAdmin},
	"users:update":      {RoleAdmin},
	"users:delete":      {RoleAdmin},
	"users:hard-delete": {}, // super-admin only

	"patients:create":  {RoleAdmin, RoleFrontDesk, RoleNurse},
	"patients:read":    allStaff,
	"patients:update":  {RoleAdmin, RoleFrontDesk, RoleNurse},
	"patients:delete":  {RoleAdmin},
	"patients:approve": {RoleAdmin, RoleFrontDesk},

	"appointments:create":     {RoleAdmin, RoleFrontDesk, RolePatient},
	"appointments:read":       append(append([]string{}, allStaff...), RolePatient),
	"appointments:update":     {RoleAdmin, RoleFrontDesk},
	"appointments:delete":     {RoleAdmin, RoleFrontDesk},
	"appointments:transition": {RoleAdmin, RoleDoctor, RoleFrontDesk},

	"invoices:create": {RoleAdmin, RoleFrontDesk},
	"invoices:read":   {RoleAdmin, RoleFrontDesk},
	"invoices:update": {RoleAdmin, RoleFrontDesk},
	"invoices:delete": {RoleAdmin},

	"pharmacy:create": {RoleAdmin, RolePharmacist},
	"pharmacy:read":   {RoleAdmin, RolePharmacist, RoleDoctor, RoleNurse},
	"pharmacy:update": {RoleAdmin, RolePharmacist},
	"pharmacy:delete": {RoleAdmin, RolePharmacist},
	"pharmacy:sell":   {RoleAdmin, RolePharmacist},

	"notes:create": clinicalStaff,
	"notes:read":   clinicalStaff,
	"notes:update": clinicalStaff,
	"notes:delete": {RoleAdmin, RoleDoctor},

	"tasks:create": clinicalStaff,
	"tasks:read":   allStaff,
	"tasks:update": allStaff,
	"tasks:delete": {RoleAdmin},

	"attendance:clock": allStaff,
	"attendance:read":  {RoleAdmin},

	"audit:read": {RoleAdmin},
}

// Require returns middleware enforcing the policy table for action.
// Unauthenticated callers get unauthorized; authenticated callers whose
// role is outside the permitted set get forbidden.
func Require(action string) echo.MiddlewareFunc {
	return RequirePolicy(DefaultPolicy, action)
}

// RequirePolicy is Require with an explicit policy table (used in tests).
func RequirePolicy(p Policy, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == "" {
				return apperror.Unauthorized("authentication required")
			}
			if !p.Allows(role, action) {
				return apperror.Forbidden("role " + role + " may not " + action)
			}
			return next(c)
		}
	}
}
