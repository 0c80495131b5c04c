// Package app wires the client together from configuration: token store,
// session, HTTP client, API modules, cache and hooks.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"zurura-client/internal/api"
	"zurura-client/internal/auth"
	"zurura-client/internal/config"
	"zurura-client/internal/database"
	"zurura-client/internal/event"
	"zurura-client/internal/hooks"
	"zurura-client/internal/httpclient"
	"zurura-client/internal/middleware"
	"zurura-client/internal/query"
	"zurura-client/internal/session"
	"zurura-client/internal/tokenstore"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   tokenstore.Store
	Bus     *event.InMemoryBus
	Session *session.Session
	Metrics *prometheus.Registry
	Client  *httpclient.Client
	API     *api.API
	Auth    *auth.Service
	Cache   *query.Client
	Hooks   *hooks.Hooks

	expired      atomic.Bool
	cleanupFuncs []func()
}

type options struct {
	store      tokenstore.Store
	httpClient *http.Client
}

type Option func(*options)

// WithStore replaces the store selected by ZURURA_TOKEN_STORE.
func WithStore(store tokenstore.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger}

	store := o.store
	if store == nil {
		opened, cleanup, err := openStore(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open token store: %w", err)
		}
		store = opened
		a.addCleanup(cleanup)
	}
	a.Store = store

	a.Bus = event.NewBus(logger)
	events, unsubscribe := a.Bus.Subscribe()
	a.addCleanup(unsubscribe)
	go logEvents(logger, events)

	a.Session = session.New(ctx, store, session.WithBus(a.Bus), session.WithLogger(logger))
	a.Cache = query.NewClient(query.WithStaleTime(cfg.QueryStaleTime), query.WithLogger(logger))

	a.Metrics = prometheus.NewRegistry()
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	clientOpts := []httpclient.Option{
		httpclient.WithLogger(logger),
		httpclient.WithTimeout(cfg.RequestTimeout),
		httpclient.WithTokenSource(a.Session),
		httpclient.WithSessionExpiry(a.Session, a.onSessionExpired),
		httpclient.WithMiddleware(
			middleware.RequestID(),
			middleware.Logging(logger),
			middleware.NewMetrics(a.Metrics).Middleware(),
			limiter.Middleware(),
		),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, httpclient.WithHTTPClient(o.httpClient))
	}

	client, err := httpclient.New(cfg.APIURL, clientOpts...)
	if err != nil {
		a.runCleanups()
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	a.Client = client

	a.API = api.New(client)
	a.Auth = auth.NewService(a.API.Auth, a.Session, logger)
	a.Hooks = hooks.New(hooks.Deps{
		API:      a.API,
		Auth:     a.Auth,
		Session:  a.Session,
		Cache:    a.Cache,
		Bus:      a.Bus,
		PageSize: cfg.RoutesPageSize,
		Logger:   logger,
	})

	return a, nil
}

// SessionExpired reports whether a request was rejected with 401 because
// the stored session is no longer valid.
func (a *App) SessionExpired() bool {
	return a.expired.Load()
}

func (a *App) onSessionExpired() {
	a.expired.Store(true)
	a.Cache.Clear()
	a.Logger.Warn("session expired; cached data dropped")
}

// Close releases the store and writes the metrics file if one is configured.
func (a *App) Close() error {
	a.runCleanups()

	if a.Config.MetricsFile == "" || a.Metrics == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.Config.MetricsFile, a.Metrics); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

func (a *App) addCleanup(fn func()) {
	if fn != nil {
		a.cleanupFuncs = append(a.cleanupFuncs, fn)
	}
}

func (a *App) runCleanups() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (tokenstore.Store, func(), error) {
	switch cfg.TokenStore {
	case config.StoreMemory:
		return tokenstore.NewMemoryStore(), nil, nil

	case config.StoreNone:
		return tokenstore.NopStore{}, nil, nil

	case config.StoreFile:
		store, err := tokenstore.NewFileStore(cfg.TokenStorePath, cfg.TokenSecret, tokenstore.WithFileLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case config.StorePostgres:
		logger.Debug("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		return tokenstore.NewPostgresStore(db.Pool, cfg.TokenNamespace, logger), db.Close, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store := tokenstore.NewRedisStore(rdb, cfg.TokenNamespace, tokenstore.WithRedisLogger(logger))
		return store, func() { _ = rdb.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

func logEvents(logger *slog.Logger, events <-chan event.Event) {
	for e := range events {
		logger.Debug("event", "type", e.Type, "user_id", e.UserID, "id", e.ID)
	}
}
