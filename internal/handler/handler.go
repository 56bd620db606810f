package handler // handler translates HTTP requests into service calls and service errors into status codes

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/plant-disease-monitor/internal/model"
	"github.com/iliyamo/plant-disease-monitor/internal/service"
)

// dbTimeout bounds each request's store work.
const dbTimeout = 5 * time.Second

// AuthAPI is implemented by *service.AuthService.
type AuthAPI interface {
	Register(ctx context.Context, name, email, password string) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	Me(ctx context.Context, id string) (model.PublicUser, error)
}

// DetectionAPI is implemented by *service.DetectionService.
type DetectionAPI interface {
	Create(ctx context.Context, callerID string, in service.DetectionInput) (model.Detection, error)
	List(ctx context.Context, callerID string) ([]model.Detection, error)
}

// ContactAPI is implemented by *service.ContactService.
type ContactAPI interface {
	Create(ctx context.Context, name, email, message string) (model.ContactMessage, error)
	List(ctx context.Context, caller service.Claims) ([]model.ContactMessage, error)
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// validationMessage returns the human part of a wrapped ErrValidation.
func validationMessage(err error) string {
	if msg, ok := strings.CutPrefix(err.Error(), service.ErrValidation.Error()+": "); ok && msg != "" {
		return msg
	}
	return "Please provide all required fields"
}

// authStatus maps token and access errors to the bare status protected
// routes answer with.
func authStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrMissingToken):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, true
	}
	return 0, false
}
