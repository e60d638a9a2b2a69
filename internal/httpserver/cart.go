package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/levelup_storefront/internal/apiclient"
	"github.com/Skotchmaster/levelup_storefront/internal/cart"
	"github.com/Skotchmaster/levelup_storefront/internal/checkout"
	"github.com/Skotchmaster/levelup_storefront/internal/logging"
)

type cartView struct {
	Items  []cart.LineItem `json:"items"`
	Count  int             `json:"count"`
	Total  float64         `json:"total"`
	Points int             `json:"points"`
}

func viewOf(items []cart.LineItem) cartView {
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartView{
		Items:  items,
		Count:  cart.Count(items),
		Total:  cart.Total(items),
		Points: cart.Points(items),
	}
}

type addToCartRequest struct {
	Product *cart.Product `json:"product"`
	Code    string        `json:"code"`
	Qty     any           `json:"qty"`
}

type setQtyRequest struct {
	Qty any `json:"qty"`
}

func (s *Server) GetCart(c echo.Context) error {
	return c.JSON(http.StatusOK, viewOf(s.carts(c).Load(c.Request().Context())))
}

// AddToCart accepts either a full product snapshot or just its code, in
// which case the product is looked up in the catalog.
func (s *Server) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var product cart.Product
	switch {
	case req.Product != nil && strings.TrimSpace(req.Product.Code) != "":
		product = *req.Product
	case strings.TrimSpace(req.Code) != "" && s.d.Catalog != nil:
		p, err := s.d.Catalog.Get(ctx, strings.TrimSpace(req.Code))
		if err != nil {
			return s.catalogError(c, "add_to_cart_failed", err)
		}
		product = cart.Product{Code: p.Code, Name: p.Name, Price: p.Price, Image: p.Image, Images: p.Images}
	default:
		l.Warn("add_to_cart_failed", "status", 400, "reason", "missing product")
		return echo.NewHTTPError(http.StatusBadRequest, "product or code required")
	}

	res := s.orchestrator(c).AddToCart(ctx, product, cart.ParseQty(req.Qty))
	if !res.OK {
		return c.JSON(http.StatusUnauthorized, res)
	}

	l.Info("add_to_cart_success", "code", product.Code)
	return c.JSON(http.StatusOK, viewOf(res.Items))
}

func (s *Server) SetQty(c echo.Context) error {
	ctx := c.Request().Context()

	var req setQtyRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("set_qty_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.JSON(http.StatusOK, viewOf(s.orchestrator(c).SetQty(ctx, c.Param("code"), req.Qty)))
}

func (s *Server) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, viewOf(s.orchestrator(c).RemoveFromCart(ctx, c.Param("code"))))
}

func (s *Server) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, viewOf(s.orchestrator(c).ClearCart(ctx)))
}

func (s *Server) Checkout(c echo.Context) error {
	res := s.orchestrator(c).Checkout(c.Request().Context())
	return c.JSON(checkoutStatus(res), res)
}

func checkoutStatus(res checkout.Result) int {
	switch {
	case res.OK:
		return http.StatusOK
	case res.Reason == checkout.ReasonAuth:
		return http.StatusUnauthorized
	case res.Reason == checkout.ReasonEmpty:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) catalogError(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context())
	var se *apiclient.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		l.Warn(event, "status", 404, "reason", "product not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	l.Error(event, "status", 502, "reason", "catalog unavailable", "error", err)
	return echo.NewHTTPError(http.StatusBadGateway, "catalog unavailable")
}
