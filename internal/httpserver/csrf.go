package httpserver

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/levelup_storefront/internal/logging"
)

// CSRFConfig configures the double-submit check guarding every state
// changing request made with the device cookie.
type CSRFConfig struct {
	CookieName string
	HeaderName string
	Secure     bool
	MaxAge     time.Duration

	// AllowedOrigins are the UI origins allowed besides the server's own.
	AllowedOrigins []string
	SkipPaths      []string
}

func DefaultCSRFConfig() CSRFConfig {
	return CSRFConfig{
		CookieName: "XSRF-TOKEN",
		HeaderName: "X-CSRF-Token",
		MaxAge:     24 * time.Hour,
	}
}

func CSRF(cfg CSRFConfig) echo.MiddlewareFunc {
	def := DefaultCSRFConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := skip[req.URL.Path]; ok {
				return next(c)
			}

			token := ""
			if ck, err := req.Cookie(cfg.CookieName); err == nil {
				token = ck.Value
			}
			if token == "" {
				var err error
				if token, err = newCSRFToken(32); err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF token")
				}
			}
			c.SetCookie(&http.Cookie{
				Name:     cfg.CookieName,
				Value:    token,
				Path:     "/",
				Secure:   cfg.Secure,
				HttpOnly: false,
				MaxAge:   int(cfg.MaxAge.Seconds()),
				SameSite: http.SameSiteLaxMode,
			})

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				c.Response().Header().Set(cfg.HeaderName, token)
				return next(c)
			}

			l := logging.FromContext(req.Context())
			if !originAllowed(req, allowed) {
				l.Warn("csrf_rejected", "status", 403, "reason", "origin", "origin", req.Header.Get("Origin"))
				return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
			}
			provided := req.Header.Get(cfg.HeaderName)
			if provided == "" || subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
				l.Warn("csrf_rejected", "status", 403, "reason", "token")
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}
			return next(c)
		}
	}
}

func newCSRFToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// originAllowed accepts the server's own origin and the configured UI
// origins, judged by Origin or, failing that, Referer.
func originAllowed(r *http.Request, allowed map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if _, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]; ok {
		return true
	}
	return strings.EqualFold(u.Scheme, schemeOf(r)) && strings.EqualFold(u.Host, r.Host)
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
