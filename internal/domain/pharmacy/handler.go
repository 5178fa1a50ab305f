package pharmacy

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
	api.POST("/pharmacy/items", h.CreateItem, auth.Require("pharmacy:create"))
	api.GET("/pharmacy/items", h.ListItems, auth.Require("pharmacy:read"))
	api.GET("/pharmacy/items/:id", h.GetItem, auth.Require("pharmacy:read"))
	api.PUT("/pharmacy/items/:id", h.UpdateItem, auth.Require("pharmacy:update"))
	api.DELETE("/pharmacy/items/:id", h.DeleteItem, auth.Require("pharmacy:delete"))
	api.POST("/pharmacy/sales", h.RegisterSale, auth.Require("pharmacy:sell"))
	api.GET("/pharmacy/sales", h.ListSales, auth.Require("pharmacy:read"))
}

func (h *Handler) CreateItem(c echo.Context) error {
	var in ItemInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	i, err := h.svc.CreateItem(ctx, in, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.Created(c, "item created", i)
}

func (h *Handler) ListItems(c echo.Context) error {
	pg := pagination.FromContext(c)
	lowStock := c.QueryParam("low_stock") == "true"
	items, total, err := h.svc.ListItems(c.Request().Context(), c.QueryParam("q"), lowStock, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return respond.OK(c, "items retrieved", pagination.NewPage(items, total, pg))
}

func (h *Handler) GetItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	i, err := h.svc.GetItem(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, "item retrieved", i)
}

func (h *Handler) UpdateItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var in ItemInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	i, err := h.svc.UpdateItem(ctx, id, in, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.OK(c, "item updated", i)
}

func (h *Handler) DeleteItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.DeleteItem(ctx, id, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx)); err != nil {
		return err
	}
	return respond.OK(c, "item deleted", nil)
}

func (h *Handler) RegisterSale(c echo.Context) error {
	var in SaleInput
	if err := c.Bind(&in); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	sale, err := h.svc.RegisterSale(ctx, in, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.Created(c, "sale registered", sale)
}

func (h *Handler) ListSales(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListSales(c.Request().Context(), pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return respond.OK(c, "sales retrieved", pagination.NewPage(items, total, pg))
}
