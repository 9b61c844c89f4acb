// Package server initializes and runs the subscribers API server.
// It opens the database pool, applies migrations, seeds the admin account,
// wires services into the HTTP router and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/subscribers/internal/cryptox"
	"github.com/dmitrijs2005/subscribers/internal/logging"
	"github.com/dmitrijs2005/subscribers/internal/server/auth"
	"github.com/dmitrijs2005/subscribers/internal/server/bootstrap"
	"github.com/dmitrijs2005/subscribers/internal/server/config"
	"github.com/dmitrijs2005/subscribers/internal/server/httpapi"
	"github.com/dmitrijs2005/subscribers/internal/server/metrics"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/subscribers/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const refreshTokenPurgeInterval = time.Hour

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	accountService *services.AccountService
	server         *httpapi.Server
	syncLogger     func() error
}

// NewApp connects to the database, migrates it and builds the service graph.
// The returned App owns the pool; Run closes it on exit.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, syncFn, err := newLogger(c.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := cryptox.NewPasswordHasher(c.PasswordHashAlgorithm, c.BcryptCost)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := bootstrap.EnsureAdmin(ctx, db, rm, hasher, c, logger); err != nil {
		db.Close()
		return nil, err
	}

	tokens := auth.NewTokenManager([]byte(c.SecretKey), c.AccessTokenValidityDuration)

	as := services.NewAccountService(db, rm, hasher, tokens, c, logger)
	ds := services.NewDashboardService(db, rm)
	ps := services.NewPlanService(db, rm)

	router := httpapi.NewRouter(httpapi.Deps{
		Accounts:    as,
		Dashboard:   ds,
		Plans:       ps,
		Tokens:      tokens,
		DB:          db,
		Metrics:     metrics.New(db),
		RateLimiter: httpapi.NewRateLimiter(c.AuthRateLimitRPS, c.AuthRateLimitBurst),
		Logger:      logger,
	})

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		accountService: as,
		server:         httpapi.NewServer(c.EndpointAddrHTTP, router, logger),
		syncLogger:     syncFn,
	}, nil
}

func newLogger(format string) (logging.Logger, func() error, error) {
	switch strings.ToLower(format) {
	case "", "slog":
		return logging.NewJSONSlogLogger(os.Stdout, slog.LevelInfo), func() error { return nil }, nil
	case "zap":
		l, err := logging.NewProductionZapLogger()
		if err != nil {
			return nil, nil, err
		}
		return l, l.Sync, nil
	}
	return nil, nil, fmt.Errorf("unknown log format %q", format)
}

// openDB configures the pool and waits until the database answers a ping,
// retrying with a linear backoff.
func openDB(ctx context.Context, c *config.Config, logger logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(c.DBMaxOpenConns)
	db.SetMaxIdleConns(c.DBMaxIdleConns)

	attempts := c.DBConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 1; ; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if i >= attempts {
			break
		}

		logger.Warn(ctx, "database not reachable, retrying", "attempt", i, "error", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(c.DBConnectBackoff * time.Duration(i)):
		}
	}

	db.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
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
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) purgeRefreshTokens(ctx context.Context) {
	ticker := time.NewTicker(refreshTokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.accountService.PurgeExpiredRefreshTokens(ctx); err != nil {
				app.logger.Error(ctx, err.Error())
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeRefreshTokens(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "closing database", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	_ = app.syncLogger()
}
