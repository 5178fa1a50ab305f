package billing

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
	api.POST("/invoices", h.Create, auth.Require("invoices:create"))
	api.GET("/invoices", h.List, auth.Require("invoices:read"))
	api.GET("/invoices/:id", h.Get, auth.Require("invoices:read"))
	api.POST("/invoices/:id/pay", h.Pay, auth.Require("invoices:update"))
	api.POST("/invoices/:id/void", h.Void, auth.Require("invoices:update"))
	api.DELETE("/invoices/:id", h.Delete, auth.Require("invoices:delete"))
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	inv, err := h.svc.Create(ctx, in, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.Created(c, "invoice created", inv)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f ListFilter
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperror.Validation("invalid patient_id")
		}
		f.PatientID = &id
	}
	f.Status = c.QueryParam("status")

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return respond.OK(c, "invoices retrieved", pagination.NewPage(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	inv, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, "invoice retrieved", inv)
}

func (h *Handler) Pay(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	ctx := c.Request().Context()
	inv, err := h.svc.Pay(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.OK(c, "invoice paid", inv)
}

func (h *Handler) Void(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	ctx := c.Request().Context()
	inv, err := h.svc.Void(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.OK(c, "invoice voided", inv)
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
	return respond.OK(c, "invoice deleted", nil)
}
