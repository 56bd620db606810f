package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/analyzer"
	"github.com/iliyamo/plant-disease-monitor/internal/config"
	"github.com/iliyamo/plant-disease-monitor/internal/database"
	"github.com/iliyamo/plant-disease-monitor/internal/handler"
	"github.com/iliyamo/plant-disease-monitor/internal/logging"
	"github.com/iliyamo/plant-disease-monitor/internal/metrics"
	"github.com/iliyamo/plant-disease-monitor/internal/middleware"
	"github.com/iliyamo/plant-disease-monitor/internal/queue"
	"github.com/iliyamo/plant-disease-monitor/internal/repository"
	"github.com/iliyamo/plant-disease-monitor/internal/router"
	"github.com/iliyamo/plant-disease-monitor/internal/service"
	"github.com/iliyamo/plant-disease-monitor/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	log := logging.New(cfg.Log, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("failed to apply migrations")
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.WithField("addr", cfg.Redis.Address()).Warn("redis unreachable, rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	m := metrics.New()

	pub := queue.NewPublisher(cfg.RabbitURL, log.WithField("component", "publisher"))
	defer pub.Close()
	if pub.Enabled() {
		go func() {
			err := queue.StartActivityConsumer(ctx, cfg.RabbitURL, cfg.ActivityLogDir, log.WithField("component", "activity"))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("activity consumer stopped")
			}
		}()
	} else {
		log.Info("RABBITMQ_URL not set, event publishing disabled")
	}

	uploads, err := storage.New(ctx, cfg.S3)
	if err != nil {
		log.WithError(err).Fatal("failed to configure image uploads")
	}
	ai := analyzer.New(cfg.AI, log.WithField("component", "analyzer"))

	// A nil *queue.Publisher must not reach the services as a non-nil interface.
	var events service.EventPublisher
	if pub.Enabled() {
		events = pub
	}

	authSvc := service.NewAuthService(repository.NewUserRepo(db), service.AuthConfig{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	}, log)
	detectionSvc := service.NewDetectionService(repository.NewDetectionRepo(db), events, m, cfg.StrictConfidence, log)
	contactSvc := service.NewContactService(repository.NewContactRepo(db), events, m, cfg.ContactAdmins, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 90 * time.Second
	e.Server.IdleTimeout = 120 * time.Second

	router.Use(e, cfg, m, log)
	router.RegisterRoutes(e, db, m)
	router.RegisterAPI(e, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc, m, log),
		Contacts:   handler.NewContactHandler(contactSvc, log),
		Detections: handler.NewDetectionHandler(detectionSvc, log),
		Analyze:    handler.NewAnalyzeHandler(ai, log),
		Uploads:    handler.NewUploadHandler(uploads, log),
	}, authSvc, middleware.NewTokenBucket(cfg.RateLimit, rdb, log.WithField("component", "ratelimit")))

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.WithError(err).Fatal("server failed")
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
