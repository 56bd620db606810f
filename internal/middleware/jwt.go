package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/plant-disease-monitor/internal/service"
)

// Authenticator verifies an Authorization header value.  *service.AuthService
// satisfies it.
type Authenticator interface {
	Authenticate(header string) (service.Claims, error)
}

// JWTAuth returns an Echo middleware that requires a valid Bearer token.  A
// missing token is answered with a bare 401, any other verification failure
// with a bare 403.  On success the caller's id and email are stored under
// "user_id" and "email" for handlers to read through Caller.
func JWTAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := auth.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if errors.Is(err, service.ErrMissingToken) {
					return c.NoContent(http.StatusUnauthorized)
				}
				return c.NoContent(http.StatusForbidden)
			}
			c.Set(ctxUserID, claims.ID)
			c.Set(ctxEmail, claims.Email)
			return next(c)
		}
	}
}
