package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 0)
}

func TestClient_Login(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ana@levelup.cl", req.Email)
		assert.Equal(t, "secret1", req.Password)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"t.k.n","name":"Ana","role":"USER","puntos_clientes":40}`))
	})

	resp, err := c.Login(context.Background(), "ana@levelup.cl", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "t.k.n", resp.Token)
	assert.Equal(t, "Ana", resp.Name)
	assert.Equal(t, UserRole("USER"), resp.Role)
	require.NotNil(t, resp.Points)
	assert.Equal(t, 40, *resp.Points)
}

func TestClient_LoginRoleObject(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"t.k.n","role":{"id":2,"nombre":"ADMIN"}}`))
	})

	resp, err := c.Login(context.Background(), "ana@levelup.cl", "secret1")
	require.NoError(t, err)
	assert.Equal(t, UserRole("ADMIN"), resp.Role)
}

func TestClient_StatusErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		body         string
		unauthorized bool
		message      string
	}{
		{name: "unauthorized with message", status: http.StatusUnauthorized, body: `{"message":"credenciales"}`, unauthorized: true, message: "credenciales"},
		{name: "forbidden", status: http.StatusForbidden, body: ``, unauthorized: true},
		{name: "server error with error field", status: http.StatusInternalServerError, body: `{"error":"boom"}`, message: "boom"},
		{name: "bad request with html", status: http.StatusBadRequest, body: `<html>nope</html>`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Login(context.Background(), "a@b.cl", "secret1")
			require.Error(t, err)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.Code)
			assert.Equal(t, tt.message, se.Message)
			assert.Equal(t, tt.unauthorized, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":`))
	})

	_, err := c.Login(context.Background(), "a@b.cl", "secret1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 0).Login(context.Background(), "a@b.cl", "secret1")
	require.Error(t, err)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestClient_AddPointsSendsBearer(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/auth/puntos", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req PointsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 30, req.Points)
		w.WriteHeader(http.StatusOK)
	})

	resp, err := c.AddPoints(context.Background(), "tok", 30)
	require.NoError(t, err)
	assert.Nil(t, resp.Points)
}

func TestClient_Products(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products":
			_, _ = w.Write([]byte(`[{"code":"A1","name":"Catan","price":29990,"categoria":"juegos-mesa","images":["a.png"]}]`))
		case "/api/products/A1":
			_, _ = w.Write([]byte(`{"code":"A1","name":"Catan","price":29990}`))
		default:
			http.NotFound(w, r)
		}
	})

	list, err := c.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "juegos-mesa", list[0].Category)
	assert.Equal(t, []string{"a.png"}, list[0].Images)

	p, err := c.Product(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, 29990.0, p.Price)

	_, err = c.Product(context.Background(), "missing")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestClient_AdminUsers(t *testing.T) {
	t.Parallel()

	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":1,"name":"Ana","correo":"ana@levelup.cl","role":{"nombre":"ADMIN"}},{"id":2,"name":"Beto","role":"USER"}]`))
		case r.Method == http.MethodPut && r.URL.Path == "/admin/users/2":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, hasPassword := body["password"]
			assert.False(t, hasPassword)
			_, _ = w.Write([]byte(`{"id":2,"name":"Beto B","role":"USER"}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	users, err := c.ListUsers(ctx, "admin-token")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, UserRole("ADMIN"), users[0].Role)
	assert.Equal(t, UserRole("USER"), users[1].Role)

	u, err := c.UpdateUser(ctx, "admin-token", 2, UserInput{Name: "Beto B", Password: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "Beto B", u.Name)

	require.NoError(t, c.ChangeRole(ctx, "admin-token", 2, 2))
	require.NoError(t, c.DeleteUser(ctx, "admin-token", 2))

	assert.Equal(t, []string{
		"GET /admin/users",
		"PUT /admin/users/2",
		"PUT /admin/users/2/role/2",
		"DELETE /admin/users/2",
	}, calls)
}
