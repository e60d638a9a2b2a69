// Package httpserver is the storefront's HTTP surface: the cart, session,
// checkout, catalog and admin endpoints a browser UI calls, plus an event
// stream replacing the browser's in-window notifications.
package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/levelup_storefront/internal/apiclient"
	"github.com/Skotchmaster/levelup_storefront/internal/cart"
	"github.com/Skotchmaster/levelup_storefront/internal/catalog"
	"github.com/Skotchmaster/levelup_storefront/internal/checkout"
	"github.com/Skotchmaster/levelup_storefront/internal/events"
	"github.com/Skotchmaster/levelup_storefront/internal/session"
	"github.com/Skotchmaster/levelup_storefront/internal/storage"
)

const loginRedirect = checkout.LoginRedirect

// AdminAPI is the user administration part of the remote API.
type AdminAPI interface {
	ListUsers(ctx context.Context, token string) ([]apiclient.User, error)
	CreateUser(ctx context.Context, token string, in apiclient.UserInput) (*apiclient.User, error)
	UpdateUser(ctx context.Context, token string, id int64, in apiclient.UserInput) (*apiclient.User, error)
	ChangeRole(ctx context.Context, token string, id int64, roleID int) error
	DeleteUser(ctx context.Context, token string, id int64) error
}

type Deps struct {
	Store        storage.Store
	Remote       session.Remote
	Admin        AdminAPI
	Catalog      *catalog.Service
	Bus          *events.Bus
	CookieSecure bool
	// CSRF, when set, guards every device-scoped route.
	CSRF *CSRFConfig
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	d *Deps
}

func (s *Server) carts(c echo.Context) *cart.Store {
	return cart.NewStore(storage.Scoped(s.d.Store, deviceID(c)), s.d.Bus)
}

func (s *Server) sessions(c echo.Context) *session.Store {
	return session.NewStore(storage.Scoped(s.d.Store, deviceID(c)), s.d.Remote, s.d.Bus)
}

func (s *Server) orchestrator(c echo.Context) *checkout.Orchestrator {
	return checkout.New(s.carts(c), s.sessions(c), s.d.Bus, deviceID(c))
}

func Register(e *echo.Echo, d *Deps) *Server {
	s := &Server{d: d}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", s.Ready)

	api := e.Group("", DeviceScope(d.CookieSecure))
	if d.CSRF != nil {
		api.Use(CSRF(*d.CSRF))
	}

	api.GET("/cart", s.GetCart)
	api.POST("/cart", s.AddToCart)
	api.PATCH("/cart/:code", s.SetQty)
	api.DELETE("/cart/:code", s.RemoveFromCart)
	api.DELETE("/cart", s.ClearCart)
	api.POST("/checkout", s.Checkout)

	api.GET("/session", s.GetSession)
	api.POST("/session/login", s.Login)
	api.POST("/session/register", s.Register)
	api.POST("/session/logout", s.Logout)
	api.POST("/session/refresh", s.Refresh)

	api.GET("/products", s.ListProducts)
	api.GET("/products/:code", s.GetProduct)
	api.GET("/categories", s.ListCategories)

	api.GET("/events", s.Events)

	admin := api.Group("/admin/users", s.RequireAdmin)
	admin.GET("", s.ListUsers)
	admin.POST("", s.CreateUser)
	admin.PUT("/:id", s.UpdateUser)
	admin.PUT("/:id/role/:roleID", s.ChangeRole)
	admin.DELETE("/:id", s.DeleteUser)

	return s
}

func (s *Server) Ready(c echo.Context) error {
	if s.d.Ready == nil {
		return c.NoContent(http.StatusOK)
	}
	if err := s.d.Ready(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	}
	return c.NoContent(http.StatusOK)
}
