package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/config"
)

// New creates the process-wide structured logger.  The returned entry
// carries the service and environment fields on every line.
func New(cfg config.LogConfig, env string) *logrus.Entry {
	return newWithOutput(cfg, env, os.Stdout)
}

func newWithOutput(cfg config.LogConfig, env string, out io.Writer) *logrus.Entry {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warn("Invalid log level, defaulting to info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "ts",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "msg",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}
	logger.SetOutput(out)

	return logger.WithFields(logrus.Fields{
		"service":     "plant-disease-monitor",
		"version":     version(),
		"environment": env,
	})
}

func version() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return "dev"
}
