// Package server initializes and runs the refkeeper server: it opens the
// database, applies migrations, wires the services and runs the HTTP and
// gRPC listeners until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/refkeeper/internal/logging"
	"github.com/dmitrijs2005/refkeeper/internal/server/auth"
	"github.com/dmitrijs2005/refkeeper/internal/server/config"
	"github.com/dmitrijs2005/refkeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/refkeeper/internal/server/notify"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/refkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/refkeeper/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	notifier   notify.Notifier
	httpServer *httpserver.HTTPServer
	grpcServer *gs.GRPCServer
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewLogger(c.LogLevel, c.LogFormat, os.Stdout)
	ctx := context.Background()

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	notifier, err := newNotifier(c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("notifier init error: %w", err)
	}

	issuer := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	credentials := services.NewCredentialStore(db, rm, c.BcryptCost)
	ledger := services.NewReferralLedger(db, rm)
	accounts := services.NewAccountService(db, rm, credentials, ledger, issuer, notifier, logger, c)

	handler := httpserver.NewHandler(accounts, ledger, db, logger.With("module", "http_handler"))
	router := httpserver.NewRouter(handler, issuer, httpserver.RouterOptions{
		AllowedOrigins: c.AllowedOrigins,
		RequestTimeout: c.RequestTimeout,
	}, logger.With("module", "http"))

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		notifier:   notifier,
		httpServer: httpserver.NewHTTPServer(c.EndpointAddrHTTP, router, c.ShutdownTimeout, logger),
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger),
	}, nil
}

// newNotifier publishes to RabbitMQ when a broker URL is configured and
// otherwise only logs reset requests.
func newNotifier(c *config.Config, l logging.Logger) (notify.Notifier, error) {
	if c.AMQPURL == "" {
		return notify.NewLogNotifier(l), nil
	}
	n, err := notify.NewAMQPNotifier(c.AMQPURL, c.ResetQueueName, l)
	if err != nil {
		return nil, err
	}
	return n, nil
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.grpcServer.SetServing(true)
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a listener fails,
// then releases the database and notifier.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.notifier.Close(); err != nil {
		app.logger.Warn(ctx, "notifier close failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
