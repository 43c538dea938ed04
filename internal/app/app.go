package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"taskboard/internal/config"
	"taskboard/internal/handlers"
	"taskboard/internal/logger"
	"taskboard/internal/repository/task/inmemory"
	"taskboard/internal/repository/task/postgres"
	"taskboard/internal/repository/task/sqlite"
	"taskboard/internal/service"
	"taskboard/internal/store"
	"taskboard/internal/worker"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	store     *store.Client
	cache     service.TaskCache
	service   *service.TaskService
	worker    *worker.RefreshWorker
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init собирает логгер, клиент хранилища, кэш и сервис. logToFile нужен терминальным режимам.
func (a *App) Init(ctx context.Context, logToFile bool) error {
	if err := a.initLogger(logToFile); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	client, err := store.New(a.config.Store.URL,
		store.WithTimeout(a.config.Store.Timeout),
		store.WithMaxRetries(a.config.Store.MaxRetries),
	)
	if err != nil {
		return fmt.Errorf("клиент хранилища: %w", err)
	}
	a.store = client

	cache, err := NewCache(ctx, a.config.Cache)
	if err != nil {
		return fmt.Errorf("инициализация кэша: %w", err)
	}
	a.cache = cache
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Закрытие кэша...")
		cache.Close()
	})

	a.service = service.NewTaskService(a.store, a.cache)

	interval := a.config.Worker.Interval
	a.worker = worker.NewRefreshWorker(a.service, &interval)

	logger.Info("Приложение инициализировано",
		zap.String("store", a.config.Store.URL),
		zap.String("cache", a.config.Cache.Type))
	return nil
}

func (a *App) initLogger(logToFile bool) error {
	if !logToFile {
		return logger.Init(a.config.Logging.Development)
	}

	path := a.config.Logging.File
	if path == "" {
		logger.Disable()
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Disable()
		return fmt.Errorf("каталог логов: %w", err)
	}
	if err := logger.InitFile(path); err != nil {
		logger.Disable()
		return fmt.Errorf("файл логов %s: %w", path, err)
	}
	return nil
}

// NewCache выбирает бэкенд кэша по конфигу
func NewCache(ctx context.Context, cfg config.CacheConfig) (service.TaskCache, error) {
	switch cfg.Type {
	case config.CacheInMemory:
		return inmemory.NewTaskStorage(), nil

	case config.CacheSQLite:
		return sqlite.New(ctx, cfg.Path)

	case config.CachePostgres:
		storage, err := postgres.New(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(ctx); err != nil {
			storage.Close()
			return nil, err
		}
		return storage, nil

	default:
		return nil, fmt.Errorf("неизвестный тип кэша %q", cfg.Type)
	}
}

func (a *App) Service() *service.TaskService {
	return a.service
}

func (a *App) Handler() http.Handler {
	router := handlers.NewRouter(handlers.NewTaskHandler(a.service), handlers.RouterOptions{
		RateLimit:      a.config.Server.RateLimit,
		AllowedOrigins: a.config.Server.AllowedOrigins,
	})
	return otelhttp.NewHandler(router, "taskboard")
}

// Serve запускает веб-доску и фоновое обновление до отмены ctx
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP: Сервер запущен", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("HTTP: Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if a.config.Worker.Enabled {
		g.Go(func() error {
			// первый проход до первого тика
			if _, err := a.worker.Check(gctx); err != nil {
				logger.Warn("Worker: Первичное обновление не удалось", zap.Error(err))
			}
			a.worker.Start(gctx)
			return nil
		})
	}

	return g.Wait()
}

func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
