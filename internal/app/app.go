package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/repository/task/gormrepo"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository
	service    handlers.Service
	shutdowns  []func() // run in reverse order on shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Flushing logs")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}

	a.service = service.NewTaskService(a.repository)
	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, handlers.ServiceName),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	return a, nil
}

func (a *App) initRepository(ctx context.Context) error {
	opts := gormrepo.Options{
		MaxConnections:     a.config.Database.MaxConnections,
		MinConnections:     a.config.Database.MinConnections,
		IdleTimeout:        a.config.Database.IdleTimeout,
		SlowQueryThreshold: a.config.Database.SlowQueryThreshold,
	}

	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		storage, err := gormrepo.OpenPostgres(ctx, a.config.Database.URL, opts)
		if err != nil {
			return fmt.Errorf("open postgres repository: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)

		if a.config.Database.AutoMigrate {
			if err := storage.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate postgres: %w", err)
			}
		}
		a.repository = storage

	case config.RepositorySQLite:
		storage, err := gormrepo.OpenSQLite(ctx, a.config.Repository.SQLitePath, opts)
		if err != nil {
			return fmt.Errorf("open sqlite repository: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)

		// nothing else creates the sqlite schema
		if err := storage.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
		a.repository = storage

	case config.RepositoryInMemory:
		a.repository = inmemory.NewTaskStorage()

	default:
		return fmt.Errorf("unknown repository type %q", a.config.Repository.Type)
	}

	logger.Info("App: Repository ready", zap.String("type", a.config.Repository.Type))
	return nil
}

func (a *App) initRouter() {
	taskHandler := handlers.NewTaskHandler(a.service)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	if a.config.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(a.config.Server.RequestTimeout))
	}
	if a.config.HTTP.RateLimit > 0 {
		r.Use(middleware.RateLimit(a.config.HTTP.RateLimit))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", taskHandler.HealthCheck)
	r.Route("/api", taskHandler.RegisterRoutes)

	a.router = r
}

// Handler exposes the instrumented router without a listener.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Start serves in the background. A listener failure is sent on the
// returned channel, which is closed once the server stops.
func (a *App) Start() <-chan error {
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		logger.Info("App: Server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	return errCh
}

// Stop drains in-flight requests within ctx, then releases everything Init acquired.
func (a *App) Stop(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if err != nil {
		logger.Error("App: Server shutdown", err)
	}
	a.Shutdown()
	return err
}

// Shutdown releases everything Init acquired.
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
