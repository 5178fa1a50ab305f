package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromContext extracts page/limit from the echo context, clamping to
// page >= 1 and 1 <= limit <= MaxLimit.
func FromContext(c echo.Context) Params {
	return FromContextDefault(c, DefaultLimit)
}

// FromContextDefault is FromContext with a route-specific default limit.
func FromContextDefault(c echo.Context, defaultLimit int) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the SQL offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes one page of a larger result set.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// Page wraps a page of rows together with its meta block.
type Page struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data"`
}

// NewPage builds the {meta, data} page for a list response.
// Pages is ceil(total/limit).
func NewPage(data interface{}, total int, p Params) *Page {
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return &Page{
		Meta: Meta{Total: total, Page: p.Page, Limit: p.Limit, Pages: pages},
		Data: data,
	}
}
