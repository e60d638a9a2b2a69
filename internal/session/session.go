// Package session owns the authenticated identity of a device: the cached
// bearer token and profile returned by the LevelUp API.
package session

import (
	"bytes"
	"encoding/json"
	"strings"
)

const Key = "lv_user_session"

type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleAdmin
)

func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return RoleAdmin
	case "USER":
		return RoleUser
	default:
		return RoleGuest
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleUser:
		return "USER"
	default:
		return ""
	}
}

// LegacyID is the numeric role code older screens compare against:
// 1 for users, 2 for admins, 0 when there is none.
func (r Role) LegacyID() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	if r == RoleGuest {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = RoleGuest
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

type Session struct {
	Email   string
	Token   string
	Name    string
	Address string
	Role    Role
	Points  int
}

// stored is the persisted shape. role_id and the duplicated correo/email
// exist for older readers of the record and are derived on write.
type stored struct {
	Correo  string `json:"correo,omitempty"`
	Email   string `json:"email,omitempty"`
	Token   string `json:"token,omitempty"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Role    Role   `json:"role"`
	RoleID  *int   `json:"role_id"`
	Points  int    `json:"puntos_clientes"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	w := stored{
		Correo:  s.Email,
		Email:   s.Email,
		Token:   s.Token,
		Name:    s.Name,
		Address: s.Address,
		Role:    s.Role,
		Points:  s.Points,
	}
	if id := s.Role.LegacyID(); id != 0 {
		w.RoleID = &id
	}
	return json.Marshal(w)
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var w stored
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	email := w.Correo
	if email == "" {
		email = w.Email
	}
	role := w.Role
	if role == RoleGuest && w.RoleID != nil {
		switch *w.RoleID {
		case 2:
			role = RoleAdmin
		case 1:
			role = RoleUser
		}
	}
	*s = Session{
		Email:   email,
		Token:   w.Token,
		Name:    w.Name,
		Address: w.Address,
		Role:    role,
		Points:  w.Points,
	}
	return nil
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != ""
}

func (s *Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.Role == RoleAdmin
}

// Redacted drops the bearer token so the session can be broadcast outside
// the process.
func (s *Session) Redacted() any {
	if s == nil {
		return nil
	}
	c := *s
	c.Token = ""
	return c
}
