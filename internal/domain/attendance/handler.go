package attendance

import (
	"time"

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
	api.POST("/attendance/clock-in", h.ClockIn, auth.Require("attendance:clock"))
	api.POST("/attendance/clock-out", h.ClockOut, auth.Require("attendance:clock"))
	api.GET("/attendance", h.List, auth.Require("attendance:read"))
}

func (h *Handler) ClockIn(c echo.Context) error {
	ctx := c.Request().Context()
	rec, err := h.svc.ClockIn(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.Created(c, "clocked in", rec)
}

func (h *Handler) ClockOut(c echo.Context) error {
	ctx := c.Request().Context()
	rec, err := h.svc.ClockOut(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.OK(c, "clocked out", rec)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f ListFilter
	if v := c.QueryParam("staff_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperror.Validation("invalid staff_id")
		}
		f.StaffID = &id
	}
	if v := c.QueryParam("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			return apperror.Validation("from must be YYYY-MM-DD")
		}
		f.From = &from
	}
	if v := c.QueryParam("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			return apperror.Validation("to must be YYYY-MM-DD")
		}
		f.To = &to
	}

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return respond.OK(c, "attendance retrieved", pagination.NewPage(items, total, pg))
}
