package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// UserRole accepts the role either as a bare name ("ADMIN") or as the
// nested object the admin endpoints return ({"nombre": "ADMIN"}).
type UserRole string

func (r *UserRole) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = UserRole(s)
		return nil
	}
	var obj struct {
		Nombre string `json:"nombre"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = UserRole(obj.Nombre)
	return nil
}

type User struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"correo"`
	Address string   `json:"address"`
	Role    UserRole `json:"role"`
	Points  int      `json:"puntos_clientes"`
}

// UserInput is the create/update payload. Password is only sent on create.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"correo"`
	Address  string `json:"address"`
	Password string `json:"password,omitempty"`
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var out []User
	if err := c.do(ctx, http.MethodGet, "/admin/users", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, token string, in UserInput) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPost, "/admin/users", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, token string, id int64, in UserInput) (*User, error) {
	in.Password = ""
	var out User
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/users/%d", id), token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangeRole(ctx context.Context, token string, id int64, roleID int) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/users/%d/role/%d", id, roleID), token, nil, nil)
}

func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/users/%d", id), token, nil, nil)
}
