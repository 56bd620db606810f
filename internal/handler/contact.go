package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/middleware"
	"github.com/iliyamo/plant-disease-monitor/internal/service"
)

// ContactHandler serves the public contact form and the authenticated inbox.
type ContactHandler struct {
	Contacts ContactAPI
	Log      logrus.FieldLogger
}

func NewContactHandler(s ContactAPI, log logrus.FieldLogger) *ContactHandler {
	if s == nil {
		panic("nil contact service passed to NewContactHandler")
	}
	return &ContactHandler{Contacts: s, Log: log}
}

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Create stores a contact-form submission.
func (h *ContactHandler) Create(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	m, err := h.Contacts.Create(ctx, req.Name, req.Email, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": validationMessage(err)})
		}
		h.Log.WithError(err).Error("contact submission failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error", "error": err.Error()})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Message sent successfully",
		"data":    m,
	})
}

// List returns every submission newest first.
func (h *ContactHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	out, err := h.Contacts.List(ctx, middleware.Caller(c))
	if err != nil {
		if code, ok := authStatus(err); ok {
			return c.NoContent(code)
		}
		h.Log.WithError(err).Error("list contacts failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, out)
}
