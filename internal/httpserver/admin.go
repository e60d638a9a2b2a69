package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/levelup_storefront/internal/apiclient"
	"github.com/Skotchmaster/levelup_storefront/internal/logging"
	"github.com/Skotchmaster/levelup_storefront/internal/session"
	"github.com/Skotchmaster/levelup_storefront/internal/validation"
)

type createUserForm struct {
	Name     string `json:"name"     validate:"min=4"          msg:"Nombre: mínimo 4 caracteres."`
	Email    string `json:"correo"   validate:"required,email" msg:"Email no válido."`
	Address  string `json:"address"  validate:"min=4"          msg:"Dirección: mínimo 4 caracteres."`
	Password string `json:"password" validate:"min=4"          msg:"Clave: mínimo 4 caracteres."`
}

type updateUserForm struct {
	Name    string `json:"name"    validate:"min=4"          msg:"Nombre: mínimo 4 caracteres."`
	Email   string `json:"correo"  validate:"required,email" msg:"Email no válido."`
	Address string `json:"address" validate:"min=4"          msg:"Dirección: mínimo 4 caracteres."`
}

func (s *Server) adminToken(c echo.Context) string {
	if sess := s.sessions(c).Current(c.Request().Context()); sess != nil {
		return sess.Token
	}
	return ""
}

func (s *Server) adminError(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context())

	if errors.Is(err, apiclient.ErrUnauthorized) {
		l.Warn(event, "status", 401, "reason", "token rejected", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, session.MsgSessionExpired)
	}
	var se *apiclient.StatusError
	if errors.As(err, &se) {
		l.Warn(event, "status", se.Code, "error", err)
		msg := se.Message
		if msg == "" {
			msg = http.StatusText(se.Code)
		}
		return echo.NewHTTPError(se.Code, msg)
	}
	l.Error(event, "status", 502, "error", err)
	return echo.NewHTTPError(http.StatusBadGateway, session.MsgNoConnection)
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

func rejectForm(c echo.Context, event string, errs []validation.FieldError) error {
	logging.FromContext(c.Request().Context()).Warn(event, "status", 422, "reason", "validation", "fields", len(errs))
	return c.JSON(http.StatusUnprocessableEntity, session.Result{OK: false, Msg: errs[0].Message, Fields: validation.ToMap(errs)})
}

func (s *Server) ListUsers(c echo.Context) error {
	users, err := s.d.Admin.ListUsers(c.Request().Context(), s.adminToken(c))
	if err != nil {
		return s.adminError(c, "list_users_failed", err)
	}
	if users == nil {
		users = []apiclient.User{}
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()

	var form createUserForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Address = strings.TrimSpace(form.Address)
	if errs := validation.Check(form); errs != nil {
		return rejectForm(c, "create_user_failed", errs)
	}

	user, err := s.d.Admin.CreateUser(ctx, s.adminToken(c), apiclient.UserInput{
		Name:     form.Name,
		Email:    form.Email,
		Address:  form.Address,
		Password: form.Password,
	})
	if err != nil {
		return s.adminError(c, "create_user_failed", err)
	}
	logging.FromContext(ctx).Info("create_user_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (s *Server) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var form updateUserForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Address = strings.TrimSpace(form.Address)
	if errs := validation.Check(form); errs != nil {
		return rejectForm(c, "update_user_failed", errs)
	}

	user, err := s.d.Admin.UpdateUser(ctx, s.adminToken(c), id, apiclient.UserInput{
		Name:    form.Name,
		Email:   form.Email,
		Address: form.Address,
	})
	if err != nil {
		return s.adminError(c, "update_user_failed", err)
	}
	return c.JSON(http.StatusOK, user)
}

// ChangeRole takes the legacy numeric role id (1 user, 2 admin).
func (s *Server) ChangeRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	roleID, err := strconv.Atoi(c.Param("roleID"))
	if err != nil || (roleID != session.RoleUser.LegacyID() && roleID != session.RoleAdmin.LegacyID()) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}

	if err := s.d.Admin.ChangeRole(c.Request().Context(), s.adminToken(c), id, roleID); err != nil {
		return s.adminError(c, "change_role_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.d.Admin.DeleteUser(c.Request().Context(), s.adminToken(c), id); err != nil {
		return s.adminError(c, "delete_user_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
