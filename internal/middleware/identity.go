package middleware

// identity.go holds the context keys JWTAuth populates and the helpers that
// read them back.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/plant-disease-monitor/internal/service"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
)

// Caller returns the authenticated identity, or zero Claims on public routes.
func Caller(c echo.Context) service.Claims {
	id, _ := c.Get(ctxUserID).(string)
	email, _ := c.Get(ctxEmail).(string)
	return service.Claims{ID: id, Email: email}
}

// userID is the rate-limit key component for the caller; "anon" when no
// token has been verified yet.
func userID(c echo.Context) string {
	if id := Caller(c).ID; id != "" {
		return id
	}
	return "anon"
}
