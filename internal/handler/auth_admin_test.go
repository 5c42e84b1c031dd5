package handler_test

import (
	"net/http"
	"testing"

	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient(t)

	out := c.register("alice", "Alice@Example.com", "correct-horse-1")
	assert.Equal(t, "alice", out.User.Username)
	assert.Equal(t, "alice@example.com", out.User.Email)
	assert.Equal(t, "USER", out.User.Role)
	assert.NotEmpty(t, out.Token.AccessToken)

	rec := c.login("alice", "correct-horse-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.login("alice", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", errorOf(t, rec))

	rec = c.login("nobody", "whatever-123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RegisterConflictsAndValidation(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient(t)
	c.register("alice", "alice@example.com", "correct-horse-1")

	cases := []struct {
		name string
		body map[string]string
		code int
		msg  string
	}{
		{name: "same handle", body: map[string]string{"username": "alice", "email": "other@example.com", "password": "correct-horse-1"}, code: http.StatusConflict, msg: "username already exists"},
		{name: "same email", body: map[string]string{"username": "alice2", "email": "ALICE@example.com", "password": "correct-horse-1"}, code: http.StatusConflict, msg: "email already exists"},
		{name: "short password", body: map[string]string{"username": "carol", "email": "carol@example.com", "password": "short"}, code: http.StatusBadRequest},
		{name: "bad email", body: map[string]string{"username": "carol", "email": "carol", "password": "correct-horse-1"}, code: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.newClient(t).do(http.MethodPost, "/auth/register", tc.body)
			assert.Equal(t, tc.code, rec.Code)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, errorOf(t, rec))
			}
		})
	}
}

func TestAdminOrders_ForbiddenForUsers(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient(t)
	c.register("alice", "alice@example.com", "correct-horse-1")

	rec := c.do(http.MethodGet, "/admin/orders", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "orders")

	rec = app.newClient(t).do(http.MethodGet, "/admin/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOrders_ListsEverything(t *testing.T) {
	app := newTestApp(t)
	app.seedAdmin(t)

	alice := app.newClient(t)
	alice.addToCart(1)
	alice.addToCart(1)
	alice.addToCart(2)
	alice.register("alice", "alice@example.com", "correct-horse-1")
	require.Equal(t, http.StatusOK, alice.do(http.MethodPost, "/checkout", map[string]string{"reference": "r1"}).Code)

	admin := app.newClient(t)
	require.Equal(t, http.StatusOK, admin.login("admin", "admin-pass-123").Code)

	rec := admin.do(http.MethodGet, "/admin/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out usecase.AdminDashboardOutput
	decode(t, rec, &out)
	assert.Len(t, out.Users, 2)
	require.Len(t, out.Orders, 1)

	o := out.Orders[0]
	assert.Equal(t, "alice", o.Username)
	assert.Equal(t, "alice@example.com", o.Email)
	assert.Equal(t, "25.00", o.Total)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Solar Panels", o.Items[0].Name)
	assert.Equal(t, "10.00", o.Items[0].Subtotal)
}
