package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/thorsignia/backend/internal/config"
	"github.com/thorsignia/backend/internal/database"
	"github.com/thorsignia/backend/internal/handler"
	"github.com/thorsignia/backend/internal/logging"
	"github.com/thorsignia/backend/internal/notify"
	"github.com/thorsignia/backend/internal/repository"
	"github.com/thorsignia/backend/internal/service"
	"github.com/thorsignia/backend/internal/storage"
	"github.com/thorsignia/backend/internal/telemetry"
)

const serviceName = "thorsignia-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.Options{})
		logging.Fatal("invalid configuration", "error", err)
	}
	logger := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	logger.Info("starting server",
		"environment", cfg.Environment(),
		"read_only_host", cfg.ReadOnlyHost,
		"has_database_url", cfg.DatabaseURL != "",
		"restricted", cfg.Restricted(),
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	// The store is resolved before the listener binds.
	dbOpts := cfg.DatabaseOptions()
	dbOpts.Logger = logger
	db, err := database.Open(ctx, dbOpts)
	if err != nil {
		logging.Fatal("failed to open database", "error", err)
	}
	defer db.Close()

	contactRepo := repository.NewSQLContactRepository(db)
	contactService := service.NewContactService(contactRepo, service.Options{
		Mailer:            newMailer(cfg, logger),
		Backup:            newBackup(cfg, logger),
		EmailFrom:         cfg.EmailFrom,
		EmailTo:           cfg.EmailTo,
		SideEffectTimeout: cfg.SideEffectTimeout,
		Logger:            logger,
	})

	h := handler.New(db, handler.Options{
		Environment: cfg.Environment(),
		ReadOnly:    cfg.ReadOnlyHost,
		Restricted:  cfg.Restricted(),
		CORSOrigin:  cfg.CORSOrigin,
		Logger:      logger,
		Stats:       contactService,
	})
	contactHandler := handler.NewContactHandler(contactService, cfg.Restricted(), logger)

	var limiter *handler.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = handler.NewRateLimiter(ctx, cfg.RateLimitPerMinute)
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Routes(h, contactHandler, limiter, cfg.StaticDir),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	go func() {
		logger.Info("server listening", "addr", server.Addr, "database_type", db.Kind())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

// newMailer picks SMTP when credentials exist. Without them, production
// reports every notification as failed and development delivers to an
// in-process mailbox.
func newMailer(cfg *config.Config, logger *slog.Logger) notify.Mailer {
	if cfg.EmailConfigured() {
		m, err := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Secure:   cfg.EmailSecure,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
		})
		if err == nil {
			logger.Info("email notifications enabled", "host", cfg.EmailHost, "port", cfg.EmailPort)
			return m
		}
		logger.Error("invalid smtp configuration", "error", err)
	}
	if cfg.Hosted() {
		logger.Warn("email credentials missing; notifications disabled")
		return notify.Disabled{}
	}
	logger.Info("email credentials missing; using local test mailbox")
	return notify.NewMailbox(logger, 50)
}

func newBackup(cfg *config.Config, logger *slog.Logger) storage.SubmissionLog {
	if cfg.ReadOnlyHost {
		logger.Info("read-only host; submission backups disabled")
		return storage.Disabled{}
	}
	return storage.NewJSONFileLog(cfg.BackupPath)
}
