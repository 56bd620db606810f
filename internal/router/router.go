package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/config"
	"github.com/iliyamo/plant-disease-monitor/internal/handler"
	"github.com/iliyamo/plant-disease-monitor/internal/metrics"
	"github.com/iliyamo/plant-disease-monitor/internal/middleware"
)

// Handlers groups the endpoint implementations mounted under /api.
type Handlers struct {
	Auth       *handler.AuthHandler
	Contacts   *handler.ContactHandler
	Detections *handler.DetectionHandler
	Analyze    *handler.AnalyzeHandler
	Uploads    *handler.UploadHandler
}

// Use installs the global middleware chain: request metrics outermost so
// they observe the final status, then error logging, panic recovery and
// the CORS policy.
func Use(e *echo.Echo, cfg config.Config, m *metrics.Metrics, log logrus.FieldLogger) {
	e.Use(m.Middleware())
	e.Use(middleware.ErrorLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", m.Handler())
}

// analyzeBodyLimit caps /api/analyze bodies, which carry base64 images.
const analyzeBodyLimit = "10M"

// RegisterAPI mounts the JSON API under /api.  On protected routes the
// limiter runs after auth so per-user key strategies see the caller.
func RegisterAPI(e *echo.Echo, h Handlers, auth middleware.Authenticator, limiter echo.MiddlewareFunc) {
	api := e.Group("/api")

	var public []echo.MiddlewareFunc
	if limiter != nil {
		public = append(public, limiter)
	}
	protected := append([]echo.MiddlewareFunc{middleware.JWTAuth(auth)}, public...)

	api.POST("/register", h.Auth.Register, public...)
	api.POST("/login", h.Auth.Login, public...)
	api.POST("/contact", h.Contacts.Create, public...)

	api.GET("/me", h.Auth.Me, protected...)
	api.GET("/contacts", h.Contacts.List, protected...)
	api.GET("/detections", h.Detections.List, protected...)
	api.POST("/detections", h.Detections.Create, protected...)
	api.POST("/analyze", h.Analyze.Analyze, append(protected, echomw.BodyLimit(analyzeBodyLimit))...)
	api.POST("/uploads", h.Uploads.Create, protected...)
}
