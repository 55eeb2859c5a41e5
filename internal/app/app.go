// Package app wires configuration, storage, Redis, the routing engine and the
// HTTP surface into a runnable service.
package app

import (
	"context"
	"strconv"

	"github.com/gorilla/mux"

	"legal-router/internal/common/logging"
	"legal-router/internal/config"
	"legal-router/internal/handlers"
	"legal-router/internal/locks"
	"legal-router/internal/middleware"
	"legal-router/internal/ratelimit"
	"legal-router/internal/redis"
	"legal-router/internal/routing"
	"legal-router/internal/server"
	"legal-router/internal/storage"
	"legal-router/internal/workload"
)

type App struct {
	cfg       *config.Config
	store     storage.Store
	redis     *redis.Client
	engine    *routing.Engine
	workloads *workload.Cache
	handlers  *handlers.Handlers
	server    *server.Server
	logger    logging.Logger
}

// New builds the application. The data provider is injected so deployments
// can adapt the marketplace backend; tests and standalone runs pass the
// in-memory implementation.
func New(cfg *config.Config, provider routing.DataProvider) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "app"})

	store, err := storage.NewStore(cfg)
	if err != nil {
		return nil, err
	}

	// Without Redis the round-robin cursor lives in the database and the
	// per-rule lock is process-local, which is only safe single-instance.
	var (
		cursors     routing.RoundRobinStore = store
		locker      routing.RuleLocker
		redisClient *redis.Client
		rateBackend ratelimit.Backend = ratelimit.NewLocalBackend()
	)
	if cfg.RedisAddress != "" {
		db, _ := strconv.Atoi(cfg.RedisDB)
		poolSize, _ := strconv.Atoi(cfg.RedisPoolSize)
		redisClient, err = redis.NewClient(&redis.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       db,
			PoolSize: poolSize,
		})
		if err != nil {
			store.Close()
			return nil, err
		}

		cursors = redis.NewCursorStore(redisClient)
		rateBackend = ratelimit.NewRedisBackend(redisClient)
		locker, err = locks.NewRedsyncLocker(redisClient)
		if err != nil {
			redisClient.Close()
			store.Close()
			return nil, err
		}
		logger.Info("redis connected", logging.String("address", cfg.RedisAddress))
	} else {
		logger.Warn("redis not configured, using in-process cursors and locks")
	}

	engine := routing.NewEngine(store, cursors, provider, routing.EngineOptions{Locker: locker})

	workloads, err := workload.NewCache(engine, cfg.WorkloadTTL(), cfg.WorkloadRefreshSchedule, nil)
	if err != nil {
		if redisClient != nil {
			redisClient.Close()
		}
		store.Close()
		return nil, err
	}

	checks := map[string]func() error{
		"storage": store.Health,
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}

	h := handlers.New(engine, store, workloads, checks)

	limit, window := cfg.RateLimit()
	limiter := ratelimit.NewLimiter(rateBackend, &ratelimit.Config{
		DefaultLimit:  limit,
		DefaultWindow: window,
		Enabled:       cfg.RateLimitEnabled,
	})

	a := &App{
		cfg:       cfg,
		store:     store,
		redis:     redisClient,
		engine:    engine,
		workloads: workloads,
		handlers:  h,
		logger:    logger,
	}
	a.server = server.New(a.router(limiter), cfg.Port)
	return a, nil
}

// Engine exposes the routing engine, mainly for tests.
func (a *App) Engine() *routing.Engine {
	return a.engine
}

// Start begins background refresh and HTTP serving. Fatal listen errors are
// reported on the returned channel.
func (a *App) Start() <-chan error {
	a.workloads.Start()
	a.logger.Info("server starting", logging.String("port", a.cfg.Port))
	return a.server.Start()
}

// Shutdown stops the server and releases resources in reverse wiring order.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.workloads.Stop()
	if a.redis != nil {
		a.redis.Close()
	}
	if closeErr := a.store.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (a *App) router(limiter *ratelimit.Limiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogging)

	r.HandleFunc("/health", a.handlers.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(limiter.HTTPMiddleware(ratelimit.IPBasedKey))

	api.HandleFunc("/assign", a.handlers.AutoAssign).Methods("POST")
	api.HandleFunc("/reassign", a.handlers.Reassign).Methods("POST")
	api.HandleFunc("/workload", a.handlers.Workload).Methods("GET")

	api.HandleFunc("/rules", a.handlers.ListRules).Methods("GET")
	api.HandleFunc("/rules", a.handlers.CreateRule).Methods("POST")
	api.HandleFunc("/rules/test", a.handlers.TestRule).Methods("POST")
	api.HandleFunc("/rules/{id}", a.handlers.GetRule).Methods("GET")
	api.HandleFunc("/rules/{id}", a.handlers.UpdateRule).Methods("PUT")
	api.HandleFunc("/rules/{id}", a.handlers.DeleteRule).Methods("DELETE")
	api.HandleFunc("/rules/{id}/toggle", a.handlers.ToggleRule).Methods("POST")

	return r
}
