package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ErrorLogger logs every 4xx and 5xx response.  Request bodies are never
// logged since they carry passwords.
func ErrorLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			if status < 400 {
				return nil
			}
			req := c.Request()
			fields := logrus.Fields{
				"status_code":   status,
				"method":        req.Method,
				"path":          req.URL.Path,
				"route":         c.Path(),
				"ip":            c.RealIP(),
				"user_agent":    req.UserAgent(),
				"duration_ms":   time.Since(start).Milliseconds(),
				"response_size": c.Response().Size,
			}
			if id := Caller(c).ID; id != "" {
				fields["user_id"] = id
			}
			entry := log.WithFields(fields)
			if status >= 500 {
				if err != nil {
					entry = entry.WithError(err)
				}
				entry.Error("server error response")
			} else {
				entry.Warn("client error response")
			}
			return nil
		}
	}
}
