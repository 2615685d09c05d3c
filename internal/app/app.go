// Package app assembles the application: configuration, database, keys,
// services and the HTTP server, plus its run/shutdown lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/q360hq/q360/internal/http"
	"github.com/q360hq/q360/internal/service"
	"github.com/q360hq/q360/internal/store"
	"github.com/q360hq/q360/internal/store/drivers/sqlite"
	"github.com/q360hq/q360/pkg/cryptox"
	"github.com/q360hq/q360/pkg/jwtx"
	"github.com/q360hq/q360/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	keyManager *jwtx.KeyManager

	tokenService        *service.TokenService
	userService         *service.UserService
	mfaService          *service.MFAService
	departmentService   *service.DepartmentService
	evaluationService   *service.EvaluationService
	ideaService         *service.IdeaService
	notificationService *service.NotificationService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "q360",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		NumKeys:  cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize signing keys: %w", err)
	}
	app.keyManager = keyManager

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("q360 starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down q360...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("q360 stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) mailer() service.Mailer {
	if app.cfg.SMTPAddr == "" {
		app.logger.Warn("SMTP_ADDR not set, emails go to the log")
		return service.LogMailer{}
	}
	return &service.SMTPMailer{
		Addr:    app.cfg.SMTPAddr,
		From:    app.cfg.SMTPFrom,
		BaseURL: app.cfg.PublicURL,
	}
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:      app.db,
		Keys:       app.keyManager,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.userService = &service.UserService{
		Store:  app.db,
		Mailer: app.mailer(),
	}
	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
	}
	app.departmentService = &service.DepartmentService{Store: app.db}
	app.evaluationService = &service.EvaluationService{Store: app.db}
	app.ideaService = &service.IdeaService{Store: app.db}
	app.notificationService = &service.NotificationService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.MFAService = app.mfaService
	router.DepartmentService = app.departmentService
	router.EvaluationService = app.evaluationService
	router.IdeaService = app.ideaService
	router.NotificationService = app.notificationService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
