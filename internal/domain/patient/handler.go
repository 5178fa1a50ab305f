package patient

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/auth"
	"github.com/medcore/medcore/internal/platform/respond"
	"github.com/medcore/medcore/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient endpoints. /patients/register must
// be on the auth middleware's public list.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/register", h.Register)
	api.POST("/patients", h.Create, auth.Require("patients:create"))
	api.GET("/patients", h.List, auth.Require("patients:read"))
	api.GET("/patients/:id", h.Get, auth.Require("patients:read"))
	api.PUT("/patients/:id", h.Update, auth.Require("patients:update"))
	api.POST("/patients/:id/approve", h.Approve, auth.Require("patients:approve"))
	api.DELETE("/patients/:id", h.Delete, auth.Require("patients:delete"))
}

func (h *Handler) Register(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	p, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.Created(c, "registration received", p)
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Create(ctx, in, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.Created(c, "patient created", p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContextDefault(c, 10)
	items, total, err := h.svc.List(c.Request().Context(),
		c.QueryParam("q"), c.QueryParam("status"), pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return respond.OK(c, "patients retrieved", pagination.NewPage(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, "patient retrieved", p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Update(ctx, id, in, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.OK(c, "patient updated", p)
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Approve(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.OK(c, "patient approved", p)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.SoftDelete(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx)); err != nil {
		return err
	}
	return respond.OK(c, "patient deleted", nil)
}
