package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/middleware"
	"github.com/iliyamo/plant-disease-monitor/internal/model"
	"github.com/iliyamo/plant-disease-monitor/internal/service"
)

// AuthRecorder counts register/login outcomes.  *metrics.Metrics satisfies it.
type AuthRecorder interface {
	AuthAttempt(operation, outcome string)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth    AuthAPI
	Metrics AuthRecorder
	Log     logrus.FieldLogger
}

func NewAuthHandler(a AuthAPI, m AuthRecorder, log logrus.FieldLogger) *AuthHandler {
	if a == nil {
		panic("nil auth service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: a, Metrics: m, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResp struct {
	Success bool             `json:"success"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

type loginResp struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// Register: create user and return a session token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		h.record("register", "invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Auth.Register(ctx, req.Name, req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrValidation):
		h.record("register", "invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": validationMessage(err)})
	case errors.Is(err, service.ErrDuplicateUser):
		h.record("register", "duplicate")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": service.ErrDuplicateUser.Error()})
	default:
		h.record("register", "error")
		h.Log.WithError(err).Error("registration failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error"})
	}

	h.record("register", "success")
	return c.JSON(http.StatusCreated, registerResp{Success: true, Token: res.Token, User: res.User})
}

// Login: verify credentials and return a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		h.record("login", "invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.record("login", "invalid_credentials")
			return c.JSON(http.StatusBadRequest, echo.Map{"message": service.ErrInvalidCredentials.Error()})
		}
		h.record("login", "error")
		h.Log.WithError(err).Error("login failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}

	h.record("login", "success")
	return c.JSON(http.StatusOK, loginResp{Token: res.Token, User: res.User})
}

// Me returns the authenticated caller's public profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Auth.Me(ctx, middleware.Caller(c).ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		h.Log.WithError(err).Error("load profile failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) record(op, outcome string) {
	if h.Metrics != nil {
		h.Metrics.AuthAttempt(op, outcome)
	}
}
