package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/middleware"
	"github.com/iliyamo/plant-disease-monitor/internal/service"
)

// DetectionHandler serves the caller's detection history.
type DetectionHandler struct {
	Detections DetectionAPI
	Log        logrus.FieldLogger
}

func NewDetectionHandler(s DetectionAPI, log logrus.FieldLogger) *DetectionHandler {
	if s == nil {
		panic("nil detection service passed to NewDetectionHandler")
	}
	return &DetectionHandler{Detections: s, Log: log}
}

// Client-supplied userId and timestamp are not bound: the owner is the
// token subject and the time is assigned by the server.
type detectionReq struct {
	ImageURL   string   `json:"imageUrl"`
	Disease    string   `json:"disease"`
	Confidence *float64 `json:"confidence"`
	Location   *string  `json:"location"`
	Notes      *string  `json:"notes"`
}

// List returns the caller's detections newest first.
func (h *DetectionHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	out, err := h.Detections.List(ctx, middleware.Caller(c).ID)
	if err != nil {
		if code, ok := authStatus(err); ok {
			return c.NoContent(code)
		}
		h.Log.WithError(err).Error("list detections failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, out)
}

// Create records a detection for the caller.
func (h *DetectionHandler) Create(c echo.Context) error {
	var req detectionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	d, err := h.Detections.Create(ctx, middleware.Caller(c).ID, service.DetectionInput{
		ImageURL:   req.ImageURL,
		Disease:    req.Disease,
		Confidence: req.Confidence,
		Location:   req.Location,
		Notes:      req.Notes,
	})
	if err != nil {
		if code, ok := authStatus(err); ok {
			return c.NoContent(code)
		}
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": validationMessage(err)})
		}
		h.Log.WithError(err).Error("create detection failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error", "error": err.Error()})
	}
	return c.JSON(http.StatusCreated, d)
}
