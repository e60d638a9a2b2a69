package apiclient

import (
	"context"
	"net/http"
)

type AuthResponse struct {
	Token   string   `json:"token"`
	Email   string   `json:"correo,omitempty"`
	Name    string   `json:"name,omitempty"`
	Address string   `json:"address,omitempty"`
	Role    UserRole `json:"role,omitempty"`
	Points  *int     `json:"puntos_clientes,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"correo"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

type PointsRequest struct {
	Points int `json:"puntos"`
}

// PointsResponse carries the balance after an award when the API reports it.
type PointsResponse struct {
	Points *int `json:"puntos_clientes,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddPoints(ctx context.Context, token string, points int) (*PointsResponse, error) {
	var out PointsResponse
	if err := c.do(ctx, http.MethodPut, "/auth/puntos", token, PointsRequest{Points: points}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context, token string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
