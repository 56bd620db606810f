package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/middleware"
	"github.com/iliyamo/plant-disease-monitor/internal/storage"
)

// Presigner is implemented by *storage.Presigner.
type Presigner interface {
	PresignUpload(ctx context.Context, userID, contentType string) (storage.Upload, error)
}

// UploadHandler issues presigned image upload URLs.
type UploadHandler struct {
	Storage Presigner
	Log     logrus.FieldLogger
}

func NewUploadHandler(p Presigner, log logrus.FieldLogger) *UploadHandler {
	return &UploadHandler{Storage: p, Log: log}
}

type uploadReq struct {
	ContentType string `json:"contentType"`
}

// Create presigns a PUT for a new image owned by the caller.
func (h *UploadHandler) Create(c echo.Context) error {
	var req uploadReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	up, err := h.Storage.PresignUpload(c.Request().Context(), middleware.Caller(c).ID, req.ContentType)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, up)
	case errors.Is(err, storage.ErrUnsupportedType):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contentType must be image/jpeg, image/png or image/webp"})
	case errors.Is(err, storage.ErrDisabled):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": storage.ErrDisabled.Error()})
	default:
		h.Log.WithError(err).Error("presign upload failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create upload"})
	}
}
