package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/eshikshan/config"
	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/internal/service"
	"github.com/ds124wfegd/eshikshan/internal/transport"
	"github.com/ds124wfegd/eshikshan/internal/worker"
	"github.com/ds124wfegd/eshikshan/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ConfigureLogging sets the JSON formatter and the level from config.
func ConfigureLogging(cfg *config.LogConfig) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, falling back to info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// NewServer wires every component from cfg and serves until SIGINT or SIGTERM.
func NewServer(cfg *config.Config) error {
	ConfigureLogging(&cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := openDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Initialize services
	notificationService := service.NewNotificationService(
		deps.notifications,
		deps.cache,
		deps.mailer,
		deps.broadcaster,
		cfg.Email.Timeout,
		cfg.Notifications.PageSize,
	)
	ownershipService := service.NewOwnershipService(deps.postings)
	applicationService := service.NewLifecycleService(entity.KindApplication, ownershipService, deps.submissions, notificationService, deps.events, cfg.Events.PublishTimeout)
	registrationService := service.NewLifecycleService(entity.KindRegistration, ownershipService, deps.submissions, notificationService, deps.events, cfg.Events.PublishTimeout)

	// Background work
	if cfg.Notifications.Retention > 0 && cfg.Notifications.SweepInterval > 0 {
		retentionWorker := worker.NewNotificationRetentionWorker(notificationService, cfg.Notifications.Retention, cfg.Notifications.SweepInterval)
		go retentionWorker.Start(ctx)
	}
	if deps.relay != nil {
		go deps.relay.Run(ctx)
	}

	// Initialize handlers
	applicationHandler := transport.NewApplicationHandler(applicationService)
	registrationHandler := transport.NewRegistrationHandler(registrationService)
	notificationHandler := transport.NewNotificationHandler(notificationService, deps.hub, cfg.CORS.AllowedOrigins)

	if cfg.Server.Env == "production" || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	router := transport.InitRoutes(applicationHandler, registrationHandler, notificationHandler, jwtManager, cfg.Server.RequestTimeout)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: false,
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		ExposedHeaders:   []string{"X-Request-ID"},
	}).Handler(router)

	srv := new(Server)
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Run(cfg, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":    cfg.Server.Port,
		"storage": cfg.Storage.Driver,
		"events":  cfg.Events.Driver,
		"version": cfg.Server.AppVersion,
	}).Info("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-quit:
	case err := <-serverErr:
		logrus.Errorf("error occured while running http server: %s", err.Error())
		return err
	}

	logrus.Print("App Shutting Down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
		return err
	}
	return nil
}
