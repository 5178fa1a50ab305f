package user

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
	api.POST("/users", h.Create, auth.Require("users:create"))
	api.GET("/users", h.List, auth.Require("users:read"))
	api.GET("/users/:id", h.Get, auth.Require("users:read"))
	api.PUT("/users/:id", h.Update, auth.Require("users:update"))
	api.POST("/users/:id/deactivate", h.Deactivate, auth.Require("users:update"))
	api.DELETE("/users/:id", h.Delete, auth.Require("users:delete"))
	api.DELETE("/users/:id/hard", h.HardDelete, auth.Require("users:hard-delete"))
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	u, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.Created(c, "user created", u)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return respond.OK(c, "users retrieved", pagination.NewPage(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, "user retrieved", u)
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
	u, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return respond.OK(c, "user updated", u)
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	u, err := h.svc.Deactivate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, "user deactivated", u)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	if err := h.svc.SoftDelete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond.OK(c, "user deleted", nil)
}

func (h *Handler) HardDelete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	if err := h.svc.HardDelete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond.OK(c, "user permanently deleted", nil)
}
