package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Skotchmaster/levelup_storefront/internal/apiclient"
	"github.com/Skotchmaster/levelup_storefront/internal/events"
	"github.com/Skotchmaster/levelup_storefront/internal/logging"
	"github.com/Skotchmaster/levelup_storefront/internal/storage"
	"github.com/Skotchmaster/levelup_storefront/internal/validation"
)

const (
	MsgBadCredentials = "Correo o contraseña incorrectos"
	MsgNoConnection   = "No se pudo conectar con el servidor"
	MsgRegisterFailed = "No se pudo completar el registro."
	MsgLoginRequired  = "Debes iniciar sesión."
	MsgPointsFailed   = "No se pudieron asignar los puntos."
	MsgSessionExpired = "Tu sesión expiró, vuelve a iniciar sesión."
)

// Remote is the slice of the LevelUp API the session store needs.
type Remote interface {
	Login(ctx context.Context, email, password string) (*apiclient.AuthResponse, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (*apiclient.AuthResponse, error)
	AddPoints(ctx context.Context, token string, points int) (*apiclient.PointsResponse, error)
	Me(ctx context.Context, token string) (*apiclient.AuthResponse, error)
}

// Result reports the outcome of a user action. Failures are values; Msg is
// meant to be shown to the user as is.
type Result struct {
	OK     bool              `json:"ok"`
	Msg    string            `json:"msg,omitempty"`
	Fields validation.Errors `json:"fields,omitempty"`
}

func fail(msg string) Result { return Result{OK: false, Msg: msg} }

type LoginInput struct {
	Email    string `json:"correo"   validate:"required,email"  msg:"Email no válido."`
	Password string `json:"password" validate:"min=6,max=64"    msg:"Clave: 6–64."`
}

type RegisterInput struct {
	Name     string `json:"name"     validate:"min=4,max=60"    msg:"Nombre: 4–60."`
	Email    string `json:"correo"   validate:"required,email"  msg:"Email no válido."`
	Password string `json:"password" validate:"min=6,max=64"    msg:"Clave: 6–64."`
	Address  string `json:"address"  validate:"min=10"          msg:"Dirección: mínimo 10 caracteres."`
}

func rejected(errs []validation.FieldError) Result {
	return Result{OK: false, Msg: errs[0].Message, Fields: validation.ToMap(errs)}
}

type Store struct {
	bucket *storage.Bucket
	remote Remote
	bus    *events.Bus
}

func NewStore(bucket *storage.Bucket, remote Remote, bus *events.Bus) *Store {
	return &Store{bucket: bucket, remote: remote, bus: bus}
}

// Current returns the stored session, or nil when the device is anonymous
// or the stored record is unreadable.
func (s *Store) Current(ctx context.Context) *Session {
	raw, err := s.bucket.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.FromContext(ctx).Warn("session_load_failed", "scope", s.bucket.Scope(), "error", err)
		}
		return nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.Token == "" {
		return nil
	}
	return &sess
}

// Set stores sess, or clears the stored session when sess carries no token,
// then broadcasts the new value. Storage failures are logged, not returned.
func (s *Store) Set(ctx context.Context, sess *Session) {
	l := logging.FromContext(ctx).With("svc", "session.set", "scope", s.bucket.Scope())

	if !sess.IsAuthenticated() {
		sess = nil
		if err := s.bucket.Delete(ctx, Key); err != nil {
			l.Error("session_clear_failed", "error", err)
		}
	} else {
		data, err := json.Marshal(sess)
		if err == nil {
			err = s.bucket.Set(ctx, Key, string(data))
		}
		if err != nil {
			l.Error("session_persist_failed", "error", err)
		}
	}

	s.bus.Publish(ctx, events.TopicSession, s.bucket.Scope(), sess)
}

func (s *Store) Logout(ctx context.Context) {
	s.Set(ctx, nil)
}

func (s *Store) Login(ctx context.Context, in LoginInput) Result {
	l := logging.FromContext(ctx).With("svc", "session.login")

	in.Email = strings.TrimSpace(in.Email)
	if errs := validation.Check(in); errs != nil {
		l.Warn("login_rejected", "reason", "validation", "fields", len(errs))
		return rejected(errs)
	}

	resp, err := s.remote.Login(ctx, in.Email, in.Password)
	if err != nil {
		if isRemoteRefusal(err) {
			l.Warn("login_failed", "reason", "refused", "error", err)
			return fail(MsgBadCredentials)
		}
		l.Error("login_failed", "reason", "transport", "error", err)
		return fail(MsgNoConnection)
	}
	if resp.Token == "" {
		l.Warn("login_failed", "reason", "missing token")
		return fail(MsgBadCredentials)
	}

	sess := fromAuthResponse(resp, in.Email)
	s.Set(ctx, sess)
	l.Info("login_success", "role", sess.Role.String())
	return Result{OK: true}
}

// Register creates the account remotely. When the API answers with a token
// the device is logged in exactly as Login does; otherwise the account
// exists but the user still has to log in.
func (s *Store) Register(ctx context.Context, in RegisterInput) Result {
	l := logging.FromContext(ctx).With("svc", "session.register")

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	if errs := validation.Check(in); errs != nil {
		l.Warn("register_rejected", "reason", "validation", "fields", len(errs))
		return rejected(errs)
	}

	resp, err := s.remote.Register(ctx, apiclient.RegisterRequest{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Address:  in.Address,
	})
	if err != nil {
		var se *apiclient.StatusError
		if errors.As(err, &se) {
			l.Warn("register_failed", "status", se.Code, "error", err)
			if se.Message != "" {
				return fail(se.Message)
			}
			return fail(MsgRegisterFailed)
		}
		if errors.Is(err, apiclient.ErrMalformedResponse) {
			l.Warn("register_failed", "reason", "malformed response", "error", err)
			return fail(MsgRegisterFailed)
		}
		l.Error("register_failed", "reason", "transport", "error", err)
		return fail(MsgNoConnection)
	}

	if resp.Token == "" {
		l.Info("register_success", "logged_in", false)
		return Result{OK: true}
	}

	if resp.Name == "" {
		resp.Name = in.Name
	}
	if resp.Address == "" {
		resp.Address = in.Address
	}
	s.Set(ctx, fromAuthResponse(resp, in.Email))
	l.Info("register_success", "logged_in", true)
	return Result{OK: true}
}

// AwardPoints adds points to the logged-in user's balance. Nothing is sent
// for zero or negative amounts.
func (s *Store) AwardPoints(ctx context.Context, points int) Result {
	l := logging.FromContext(ctx).With("svc", "session.award_points", "points", points)

	cur := s.Current(ctx)
	if !cur.IsAuthenticated() {
		l.Warn("award_points_rejected", "reason", "no session")
		return fail(MsgLoginRequired)
	}
	if points <= 0 {
		return Result{OK: true}
	}

	resp, err := s.remote.AddPoints(ctx, cur.Token, points)
	if err != nil {
		var se *apiclient.StatusError
		if errors.As(err, &se) || errors.Is(err, apiclient.ErrMalformedResponse) {
			l.Warn("award_points_failed", "error", err)
			return fail(MsgPointsFailed)
		}
		l.Error("award_points_failed", "reason", "transport", "error", err)
		return fail(MsgNoConnection)
	}

	if resp != nil && resp.Points != nil {
		cur.Points = *resp.Points
		s.Set(ctx, cur)
	}
	l.Info("award_points_success")
	return Result{OK: true}
}

// Refresh reloads the profile and balance from the API. A rejected token
// ends the session.
func (s *Store) Refresh(ctx context.Context) Result {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	cur := s.Current(ctx)
	if !cur.IsAuthenticated() {
		return fail(MsgLoginRequired)
	}

	resp, err := s.remote.Me(ctx, cur.Token)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			l.Warn("refresh_failed", "reason", "token rejected")
			s.Set(ctx, nil)
			return fail(MsgSessionExpired)
		}
		l.Error("refresh_failed", "error", err)
		return fail(MsgNoConnection)
	}

	if resp.Name != "" {
		cur.Name = resp.Name
	}
	if resp.Address != "" {
		cur.Address = resp.Address
	}
	if resp.Email != "" {
		cur.Email = resp.Email
	}
	if resp.Points != nil {
		cur.Points = *resp.Points
	}
	if resp.Role != "" {
		cur.Role = ParseRole(string(resp.Role))
	}
	if resp.Token != "" {
		cur.Token = resp.Token
	}
	s.Set(ctx, cur)
	return Result{OK: true}
}

func isRemoteRefusal(err error) bool {
	var se *apiclient.StatusError
	return errors.As(err, &se) || errors.Is(err, apiclient.ErrMalformedResponse)
}

// fromAuthResponse builds a session from an auth response. Role and email
// come from the body when present and from the token's claims otherwise;
// email falls back to what the user typed.
func fromAuthResponse(resp *apiclient.AuthResponse, email string) *Session {
	claims := DecodeClaims(resp.Token)

	role := ParseRole(string(resp.Role))
	if resp.Role == "" && claims != nil {
		role = ParseRole(claims.Role)
	}

	switch {
	case resp.Email != "":
		email = resp.Email
	case claims != nil && claims.Email != "":
		email = claims.Email
	}
	sess := &Session{
		Email:   email,
		Token:   resp.Token,
		Name:    resp.Name,
		Address: resp.Address,
		Role:    role,
	}
	if resp.Points != nil {
		sess.Points = *resp.Points
	}
	return sess
}
