// Package app assembles the server: stores, rule engine, services, HTTP
// transport and the optional PostgreSQL seed source.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/docstore/internal/adapter/postgres"
	"github.com/heartmarshall/docstore/internal/auth"
	"github.com/heartmarshall/docstore/internal/config"
	"github.com/heartmarshall/docstore/internal/query"
	"github.com/heartmarshall/docstore/internal/rules"
	authsvc "github.com/heartmarshall/docstore/internal/service/auth"
	"github.com/heartmarshall/docstore/internal/service/jsonstore"
	"github.com/heartmarshall/docstore/internal/service/records"
	"github.com/heartmarshall/docstore/internal/service/util"
	"github.com/heartmarshall/docstore/internal/store"
	"github.com/heartmarshall/docstore/internal/transport/middleware"
	"github.com/heartmarshall/docstore/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, initializes
// the logger and serves until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return Serve(ctx, cfg, NewLogger(cfg.Log))
}

// Serve builds the application from cfg and serves until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}

// App is a fully wired server.
type App struct {
	cfg *config.Config
	log *slog.Logger

	pool    *pgxpool.Pool
	limiter *middleware.RateLimiter
	rules   *rules.Engine
	handler http.Handler

	// Public and Protected are exposed for inspection and export.
	Public    *store.Store
	Protected *store.Store
	JSONStore *jsonstore.Service
}

// New wires every component. With a database configured it connects,
// migrates and reads seed data from it in addition to the seed file.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: logger}

	if cfg.Database.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("app.New: %w", err)
		}
		a.pool = pool

		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app.New: %w", err)
		}
		logger.Info("database ready", slog.Int("migrations_applied", applied))
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.PasswordHashCost)

	data, err := LoadSeed(ctx, cfg, a.pool, hasher)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	logger.Info("seed loaded", slog.Int("records", data.Count()))

	a.Public = store.New(store.WithSeed(data.Public))
	a.Protected = store.New(store.WithSeed(data.Protected))
	a.JSONStore = jsonstore.NewService(logger, jsonstore.WithSeed(data.JSONStore))

	var rs *rules.RuleSet
	if cfg.Store.RulesPath != "" {
		rs, err = rules.LoadFile(cfg.Store.RulesPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app.New: %w", err)
		}
		logger.Info("rules loaded", slog.String("path", cfg.Store.RulesPath), slog.Int("collections", len(rs.Collections())))
	}
	a.rules = rules.NewEngine(rs, a.Public.Get)

	queryEngine := query.NewEngine(query.Sources{
		Records:            a.Public,
		Identities:         a.Protected,
		IdentityCollection: cfg.Store.UsersCollection,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTL)
	authService := authsvc.NewService(logger, a.Protected, tokens, hasher, cfg.Auth, cfg.Store)
	recordService := records.NewService(logger, a.Public, a.rules, queryEngine)
	utilService := util.NewService(logger, cfg.Util)

	handlers := rest.Handlers{
		Health:    rest.NewHealthHandler(a.dbPinger(), Version),
		Data:      rest.NewDataHandler(recordService, cfg.Store.DefaultPageSize, logger),
		Users:     rest.NewUsersHandler(authService, logger),
		Util:      rest.NewUtilHandler(utilService, logger),
		JSONStore: rest.NewJSONStoreHandler(a.JSONStore, logger),
	}

	a.limiter = middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)

	a.handler = rest.NewRouter(handlers, cfg.Server.MaxBodyBytes,
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
		middleware.When(cfg.RateLimit.RequestsPerMinute > 0, a.limiter.Limit(cfg.RateLimit.RequestsPerMinute)),
		middleware.Throttle(utilService, util.Throttle, cfg.Util.ThrottleMin, cfg.Util.ThrottleMax),
		middleware.Admin(),
		middleware.Auth(authService, logger),
		middleware.Loaders(queryEngine.NewLoader),
	)

	return a, nil
}

// dbPinger returns the pool as a pinger, or a nil interface without one.
func (a *App) dbPinger() interface{ Ping(context.Context) error } {
	if a.pool == nil {
		return nil
	}
	return a.pool
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP and, when enabled, watches the rules file. It returns
// after ctx is cancelled and the server has shut down.
func (a *App) Run(ctx context.Context) error {
	addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("http server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if a.cfg.Store.WatchRules {
		watcher := rules.NewWatcher(a.cfg.Store.RulesPath, a.rules, a.log)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	err := g.Wait()
	a.log.Info("application stopped", slog.Duration("uptime", time.Since(start)))
	return err
}

// Close releases the database pool and background workers.
func (a *App) Close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
