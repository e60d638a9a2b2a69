package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/levelup_storefront/internal/catalog"
	"github.com/Skotchmaster/levelup_storefront/internal/logging"
)

func parseIntDefault(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func (s *Server) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list")

	f := catalog.Filter{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Page:     parseIntDefault(c.QueryParam("page"), 1),
		Size:     parseIntDefault(c.QueryParam("size"), catalog.DefaultPageSize),
	}
	from, limit := catalog.Page(f.Page, f.Size)

	listing, err := s.d.Catalog.List(ctx, f)
	if err != nil {
		l.Error("list_products_failed", "status", 502, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "catalog unavailable")
	}

	page := from/limit + 1
	return c.JSON(http.StatusOK, map[string]any{
		"data": listing.Products,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       listing.Total,
			"total_pages": (listing.Total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(from+limit) < listing.Total,
		},
	})
}

func (s *Server) GetProduct(c echo.Context) error {
	p, err := s.d.Catalog.Get(c.Request().Context(), c.Param("code"))
	if err != nil {
		return s.catalogError(c, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	cats, err := s.d.Catalog.Categories(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_categories_failed", "status", 502, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "catalog unavailable")
	}
	return c.JSON(http.StatusOK, cats)
}
