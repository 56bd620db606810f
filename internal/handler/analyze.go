package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/analyzer"
)

// Analyzer is implemented by *analyzer.Client.
type Analyzer interface {
	Analyze(ctx context.Context, image string) (analyzer.Verdict, error)
}

// AnalyzeHandler proxies leaf images to the disease model.
type AnalyzeHandler struct {
	Analyzer Analyzer
	Log      logrus.FieldLogger
}

func NewAnalyzeHandler(a Analyzer, log logrus.FieldLogger) *AnalyzeHandler {
	return &AnalyzeHandler{Analyzer: a, Log: log}
}

// imageBase64 holds a data URL; imageUrl is accepted for already uploaded images.
type analyzeReq struct {
	ImageBase64 string `json:"imageBase64"`
	ImageURL    string `json:"imageUrl"`
}

// Analyze returns the model's verdict for one image.  Model calls are not
// bound by dbTimeout; the client carries its own timeout.
func (h *AnalyzeHandler) Analyze(c echo.Context) error {
	var req analyzeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	image := strings.TrimSpace(req.ImageBase64)
	if image == "" {
		image = strings.TrimSpace(req.ImageURL)
	}
	if image == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Image is required"})
	}

	v, err := h.Analyzer.Analyze(c.Request().Context(), image)
	if err != nil {
		status, msg := analyzeFailure(err)
		if status >= 500 {
			h.Log.WithError(err).Error("image analysis failed")
		}
		return c.JSON(status, echo.Map{"error": msg})
	}
	return c.JSON(http.StatusOK, v)
}

func analyzeFailure(err error) (int, string) {
	switch {
	case errors.Is(err, analyzer.ErrRateLimited):
		return http.StatusTooManyRequests, analyzer.ErrRateLimited.Error()
	case errors.Is(err, analyzer.ErrCreditsExhausted):
		return http.StatusPaymentRequired, analyzer.ErrCreditsExhausted.Error()
	case errors.Is(err, analyzer.ErrNotConfigured):
		return http.StatusInternalServerError, analyzer.ErrNotConfigured.Error()
	case errors.Is(err, analyzer.ErrUnparseable):
		return http.StatusInternalServerError, analyzer.ErrUnparseable.Error()
	default:
		return http.StatusInternalServerError, analyzer.ErrUpstream.Error()
	}
}
