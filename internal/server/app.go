// Package server initializes and runs the GophAuth server: the JSON API, the
// gRPC health endpoint and the maintenance scheduler.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/scheduler"
	"github.com/dmitrijs2005/gophauth/internal/server/services"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	handler   http.Handler
	grpc      *gs.GRPCServer
	scheduler *scheduler.Scheduler
}

// NewApp validates the configuration, migrates the database and wires every
// component. Configuration errors are returned as common.ErrConfiguration.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(c.SigningKey)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	sender, err := mailer.New(ctx, c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	st := services.NewSQLStorage(db, rm)
	opts := []services.Option{services.WithLogger(logger)}

	accounts := services.NewAccountStore(st, opts...)
	refresh := services.NewRefreshTokenService(st, opts...)
	codes := services.NewVerificationService(st, sender, opts...)
	sessions := services.NewSessionService(accounts, issuer, refresh, codes, opts...)
	cleanup := services.NewCleanupService(st, c.CleanupRetention, opts...)

	handler := httpapi.NewRouter(
		httpapi.NewHandler(sessions, logger, c.Production),
		issuer,
		logger,
		httpapi.RouterConfig{
			AllowedOrigins: c.AllowedOrigins,
			InternalAPIKey: c.InternalAPIKey,
			DB:             db,
		},
	)

	sch := scheduler.New(logger)
	if err := sch.Add(ctx, "purge-stale-codes", c.CleanupSchedule, cleanup.Purge); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		handler:   handler,
		grpc:      gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db),
		scheduler: sch,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "HTTP shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.scheduler.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
