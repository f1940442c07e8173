package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httpapi "github.com/wastedesk/admingate/internal/gateway/http"
	"github.com/wastedesk/admingate/internal/gateway/identity"
	"github.com/wastedesk/admingate/internal/gateway/metrics"
	"github.com/wastedesk/admingate/internal/gateway/session"
	"github.com/wastedesk/admingate/internal/gateway/store"
	"github.com/wastedesk/admingate/internal/gateway/store/drivers/sqlite"
	"github.com/wastedesk/admingate/pkg/cryptox"
	"github.com/wastedesk/admingate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the admin gateway with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	sealer   *cryptox.Sealer
	identity *identity.Client
	registry *session.Registry

	housekeeper     *session.Housekeeper
	housekeeperStop context.CancelFunc
	housekeeperDone sync.WaitGroup

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "admin-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.BackendBaseURL == "" {
		return nil, errors.New("ADMINGATE_BACKEND_URL is required")
	}
	backend, err := url.Parse(cfg.BackendBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}

	if err := app.initSealer(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.initSessions()
	app.initHTTP(backend)

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.startHousekeeping()

	app.logger.Info("admin gateway starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down admin gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopHousekeeping()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("admin gateway stopped")
	return nil
}

// initSealer loads the credential sealing key, or mints an ephemeral one.
// With an ephemeral key every stored session dies on restart, which is fine
// for dev and wrong for anything else.
func (app *Application) initSealer() error {
	if app.cfg.SealKey != "" {
		sealer, err := cryptox.NewSealerFromBase64(app.cfg.SealKey)
		if err != nil {
			return fmt.Errorf("invalid ADMINGATE_SEAL_KEY: %w", err)
		}
		app.sealer = sealer
		return nil
	}

	key := make([]byte, cryptox.SealerKeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate ephemeral seal key: %w", err)
	}
	sealer, err := cryptox.NewSealer(key)
	if err != nil {
		return err
	}
	app.sealer = sealer
	app.logger.Warn("no seal key configured, using an ephemeral key; sessions will not survive restart")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initSessions wires the backend client, the session registry, and the
// expired-session housekeeper.
func (app *Application) initSessions() {
	app.identity = identity.NewClient(app.cfg.BackendBaseURL)
	app.identity.Observe = metrics.ObserveIdentityRequest

	app.registry = session.NewRegistry(session.RegistryConfig{
		Sessions:     app.db.Sessions(),
		Sealer:       app.sealer,
		API:          app.identity,
		AllowedRoles: app.cfg.AllowedRoles,
		SessionTTL:   app.cfg.SessionTTL,
		ManagerTTL:   app.cfg.ManagerTTL,
	})
	app.registry.ObserveHandshake = metrics.ObserveHandshake

	app.housekeeper = session.NewHousekeeper(
		app.db.Sessions(),
		app.cfg.HousekeepingInterval,
		app.logger,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP(backend *url.URL) {
	handler := httpapi.NewHandler(httpapi.HandlerConfig{
		Log:           app.logger,
		Registry:      app.registry,
		Store:         app.db,
		Proxy:         httpapi.NewBackendProxy(backend, app.registry, app.logger),
		SecureCookies: app.cfg.SecureCookies,
	})

	router := httpapi.NewRouter(handler, app.logger)
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (app *Application) startHousekeeping() {
	ctx, cancel := context.WithCancel(context.Background())
	app.housekeeperStop = cancel

	app.housekeeperDone.Add(1)
	go func() {
		defer app.housekeeperDone.Done()
		app.housekeeper.Run(ctx)
	}()
}

func (app *Application) stopHousekeeping() {
	if app.housekeeperStop != nil {
		app.housekeeperStop()
		app.housekeeperDone.Wait()
	}
}
