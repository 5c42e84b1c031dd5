package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/token"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	receipts []model.Receipt
}

func (d *fakeDispatcher) Dispatch(r model.Receipt) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receipts = append(d.receipts, r)
	return true
}

func (d *fakeDispatcher) all() []model.Receipt {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Receipt(nil), d.receipts...)
}

type uuidGen struct{}

func (uuidGen) NewID() string { return uuid.NewString() }

type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now() }

type testApp struct {
	e          *echo.Echo
	gdb        *gorm.DB
	userRepo   repository.UserRepository
	dispatcher *fakeDispatcher
	hasher     *auth.BcryptPasswordHasher
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gdb, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Hour,
		SessionTTL:     time.Hour,
	}

	userRepo := infraRepo.NewUserGormRepository(gdb)
	orderRepo := infraRepo.NewOrderGormRepository(gdb)
	catalog, err := infraRepo.NewCatalogRepository(infraRepo.DefaultProducts())
	require.NoError(t, err)
	carts := infraRepo.NewCartMemoryStore(time.Hour, time.Second)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	dispatcher := &fakeDispatcher{}

	hasher := auth.NewBcryptPasswordHasher(4)
	issuer := token.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	productUC := usecase.NewProductUsecase(catalog)
	cartUC := usecase.NewCartUsecase(carts, catalog, m, nil)
	checkoutUC := usecase.NewCheckoutUsecase(userRepo, carts, orderRepo, dispatcher, uuidGen{}, sysClock{}, m, nil)
	orderUC := usecase.NewOrderUsecase(orderRepo)
	adminUC := usecase.NewAdminOrderUsecase(userRepo, orderRepo, nil)
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, issuer, sysClock{})
	loginUC := auth.NewLoginUsecase(userRepo, auth.NewBcryptPasswordVerifier(), issuer, sysClock{})

	e := server.New(server.Deps{
		Config:   cfg,
		UserRepo: userRepo,
		Handlers: server.Handlers{
			Product:    handler.NewProductHandler(productUC),
			Cart:       handler.NewCartHandler(cartUC),
			Order:      handler.NewOrderHandler(checkoutUC, orderUC),
			AdminOrder: handler.NewAdminOrderHandler(adminUC),
			Auth:       handler.NewAuthHandler(registerUC, loginUC),
		},
		Metrics:  m,
		Gatherer: reg,
	})

	return &testApp{e: e, gdb: gdb, userRepo: userRepo, dispatcher: dispatcher, hasher: hasher}
}

// ブラウザ1つ分（sid cookieとtokenを持ち回る）
type client struct {
	t     *testing.T
	app   *testApp
	sid   string
	token string
}

func (a *testApp) newClient(t *testing.T) *client {
	return &client{t: t, app: a}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.sid != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: c.sid})
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.app.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookieName {
			c.sid = ck.Value
		}
	}
	return rec
}

func (c *client) register(username, email, password string) auth.AuthOutput {
	c.t.Helper()

	rec := c.do(http.MethodPost, "/auth/register", map[string]string{
		"username": username, "email": email, "password": password,
	})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())

	var out auth.AuthOutput
	decode(c.t, rec, &out)
	c.token = out.Token.AccessToken
	return out
}

func (c *client) login(username, password string) *httptest.ResponseRecorder {
	c.t.Helper()

	rec := c.do(http.MethodPost, "/auth/login", map[string]string{
		"username": username, "password": password,
	})
	if rec.Code == http.StatusOK {
		var out auth.AuthOutput
		decode(c.t, rec, &out)
		c.token = out.Token.AccessToken
	}
	return rec
}

func (c *client) addToCart(productID int64) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(http.MethodPost, "/cart", map[string]int64{"product_id": productID})
}

func (a *testApp) seedAdmin(t *testing.T) {
	t.Helper()
	created, err := auth.EnsureAdmin(context.Background(), a.userRepo, a.hasher, time.Now(), auth.AdminSeed{
		Username: "admin", Email: "admin@example.com", Password: "admin-pass-123",
	})
	require.NoError(t, err)
	require.True(t, created)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var r handler.ErrorResponse
	decode(t, rec, &r)
	return r.Error
}
