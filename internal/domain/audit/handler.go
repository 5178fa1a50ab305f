package audit

import (
	"github.com/labstack/echo/v4"

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
	api.GET("/audit-logs", h.List, auth.Require("audit:read"))
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(),
		c.QueryParam("entity_type"), c.QueryParam("entity_id"), pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return respond.OK(c, "audit logs retrieved", pagination.NewPage(items, total, pg))
}
