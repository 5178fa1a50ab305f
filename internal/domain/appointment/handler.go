package appointment

import (
	"context"

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
	api.POST("/appointments", h.Create, auth.Require("appointments:create"))
	api.GET("/appointments", h.List, auth.Require("appointments:read"))
	api.GET("/appointments/:id", h.Get, auth.Require("appointments:read"))
	api.PUT("/appointments/:id", h.Update, auth.Require("appointments:update"))
	api.DELETE("/appointments/:id", h.Delete, auth.Require("appointments:delete"))

	transition := auth.Require("appointments:transition")
	api.POST("/appointments/:id/approve", h.Approve, transition)
	api.POST("/appointments/:id/cancel", h.Cancel, transition)
	api.POST("/appointments/:id/complete", h.Complete, transition)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	a, err := h.svc.Create(ctx, in, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.Created(c, "appointment booked", a)
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
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperror.Validation("invalid doctor_id")
		}
		f.DoctorID = &id
	}
	f.Status = c.QueryParam("status")

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return respond.OK(c, "appointments retrieved", pagination.NewPage(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, "appointment retrieved", a)
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
	a, err := h.svc.Update(ctx, id, in, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.OK(c, "appointment updated", a)
}

func (h *Handler) Approve(c echo.Context) error {
	return h.runTransition(c, h.svc.Approve, "appointment confirmed")
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.runTransition(c, h.svc.Cancel, "appointment cancelled")
}

func (h *Handler) Complete(c echo.Context) error {
	return h.runTransition(c, h.svc.Complete, "appointment completed")
}

func (h *Handler) runTransition(c echo.Context, op func(context.Context, uuid.UUID, uuid.UUID, string) (*Appointment, error), message string) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	ctx := c.Request().Context()
	a, err := op(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.OK(c, message, a)
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
	return respond.OK(c, "appointment deleted", nil)
}
