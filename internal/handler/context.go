package handler

import (
	"storefront/internal/config"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

func getUsernameFromContext(c echo.Context) (string, bool) {
	name, ok := c.Get(middleware.CtxUsernameKey).(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func getSessionIDFromContext(c echo.Context) string {
	sid, _ := c.Get(middleware.CtxSessionIDKey).(string)
	return sid
}

// カートを使うルート共通のセッション
func sessionMiddleware(cfg config.Config) echo.MiddlewareFunc {
	return middleware.Session(middleware.SessionConfig{
		TTL:    cfg.SessionTTL,
		Secure: cfg.CookieSecure,
	})
}
