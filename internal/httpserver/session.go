package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/levelup_storefront/internal/logging"
	"github.com/Skotchmaster/levelup_storefront/internal/session"
)

type sessionView struct {
	Authenticated bool `json:"authenticated"`
	Session       any  `json:"session"`
}

type sessionResult struct {
	session.Result
	sessionView
}

func viewSession(sess *session.Session) sessionView {
	return sessionView{Authenticated: sess.IsAuthenticated(), Session: sess.Redacted()}
}

// resultStatus maps a session result to a status code: field errors are
// 422, an unreachable API 502, anything else the given failure status.
func resultStatus(res session.Result, failure int) int {
	switch {
	case res.OK:
		return http.StatusOK
	case len(res.Fields) > 0:
		return http.StatusUnprocessableEntity
	case res.Msg == session.MsgNoConnection:
		return http.StatusBadGateway
	default:
		return failure
	}
}

func (s *Server) respondSession(c echo.Context, store *session.Store, res session.Result, failure int) error {
	body := sessionResult{Result: res, sessionView: viewSession(store.Current(c.Request().Context()))}
	return c.JSON(resultStatus(res, failure), body)
}

func (s *Server) GetSession(c echo.Context) error {
	return c.JSON(http.StatusOK, viewSession(s.sessions(c).Current(c.Request().Context())))
}

func (s *Server) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var in session.LoginInput
	if err := c.Bind(&in); err != nil {
		logging.FromContext(ctx).Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	store := s.sessions(c)
	return s.respondSession(c, store, store.Login(ctx, in), http.StatusUnauthorized)
}

func (s *Server) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var in session.RegisterInput
	if err := c.Bind(&in); err != nil {
		logging.FromContext(ctx).Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	store := s.sessions(c)
	return s.respondSession(c, store, store.Register(ctx, in), http.StatusBadRequest)
}

func (s *Server) Logout(c echo.Context) error {
	store := s.sessions(c)
	store.Logout(c.Request().Context())
	return s.respondSession(c, store, session.Result{OK: true}, http.StatusOK)
}

func (s *Server) Refresh(c echo.Context) error {
	store := s.sessions(c)
	return s.respondSession(c, store, store.Refresh(c.Request().Context()), http.StatusUnauthorized)
}
