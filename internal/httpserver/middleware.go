package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/levelup_storefront/internal/logging"
)

const (
	DeviceCookie = "device_id"
	deviceKey    = "device_id"
	deviceTTL    = 365 * 24 * time.Hour
)

func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", c.Request().Method,
				"path", c.Path(),
				"url", c.Request().URL.Path,
				"remote_ip", c.RealIP(),
				"user_agent", c.Request().UserAgent(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}

			req := c.Request().WithContext(logging.IntoContext(c.Request().Context(), l))
			c.SetRequest(req)

			start := time.Now()
			err := next(c)
			dur := time.Since(start)
			status := c.Response().Status

			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
				status = c.Response().Status
			}

			switch {
			case err != nil || status >= 500:
				l.Error("request completed", "status", status, "duration_ms", dur.Milliseconds(), "error", errStr(err))
			case status >= 400:
				l.Warn("request completed", "status", status, "duration_ms", dur.Milliseconds())
			default:
				l.Info("request completed", "status", status, "duration_ms", dur.Milliseconds(), "bytes", c.Response().Size)
			}
			return nil
		}
	}
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}

func deviceCookie(value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     DeviceCookie,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(deviceTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// DeviceScope identifies the browser by its device_id cookie, issuing a new
// one when it is missing or not a uuid. Everything stored for the request is
// scoped by that id.
func DeviceScope(secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if ck, err := c.Cookie(DeviceCookie); err == nil {
				if parsed, err := uuid.Parse(ck.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				c.SetCookie(deviceCookie(id, secure))
			}
			c.Set(deviceKey, id)

			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("device", id)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			return next(c)
		}
	}
}

func deviceID(c echo.Context) string {
	id, _ := c.Get(deviceKey).(string)
	return id
}

// RequireAdmin lets the request through only when the device's session has
// the admin role.
func (s *Server) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "require_admin")

		sess := s.sessions(c).Current(ctx)
		if !sess.IsAuthenticated() {
			l.Warn("admin_rejected", "status", http.StatusUnauthorized, "reason", "no session")
			return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "reason": "auth", "redirect": loginRedirect})
		}
		if !sess.IsAdmin() {
			l.Warn("admin_rejected", "status", http.StatusForbidden, "reason", "not admin", "role", sess.Role.String())
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}
