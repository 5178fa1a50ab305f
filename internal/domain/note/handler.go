package note

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/notes", h.Create, auth.Require("notes:create"))
	api.GET("/notes", h.List, auth.Require("notes:read"))
	api.GET("/notes/:id", h.Get, auth.Require("notes:read"))
	api.PUT("/notes/:id", h.Update, auth.Require("notes:update"))
	api.DELETE("/notes/:id", h.Delete, auth.Require("notes:delete"))
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	n, err := h.svc.Create(ctx, in, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.Created(c, "note created", n)
}

func (h *Handler) List(c echo.Context) error {
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return apperror.Validation("patient_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return respond.OK(c, "notes retrieved", pagination.NewPage(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	n, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, "note retrieved", n)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	n, err := h.svc.Update(ctx, id, in, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.OK(c, "note updated", n)
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
	return respond.OK(c, "note deleted", nil)
}
