package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/infrastructure/cache"
	"github.com/erp/costing/internal/infrastructure/config"
	"github.com/erp/costing/internal/infrastructure/event"
	"github.com/erp/costing/internal/infrastructure/logger"
	"github.com/erp/costing/internal/infrastructure/migration"
	"github.com/erp/costing/internal/infrastructure/persistence"
	"github.com/erp/costing/internal/infrastructure/scheduler"
	"github.com/erp/costing/internal/infrastructure/strategy"
	"github.com/erp/costing/internal/infrastructure/telemetry"
	"github.com/erp/costing/internal/interfaces/http/handler"
	"github.com/erp/costing/internal/interfaces/http/middleware"
	"github.com/erp/costing/internal/interfaces/http/router"
	"github.com/erp/costing/migrations"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const meterName = "github.com/erp/costing"

//	@title			Costing Engine API
//	@version		1.0
//	@description	Batch-level inventory costing: receipts, FIFO/LIFO/average/specific consumption, previews and cost reports

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		ExportInterval:    cfg.Telemetry.ExportInterval,
	}

	// The log bridge comes first so the logger can tee into it
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg)
	if err != nil {
		panic("Failed to initialize log export: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Sampling:   cfg.Log.Sampling,
		Bridge:     logsProvider.Core(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)),
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting costing engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.Bool("log_export", logsProvider.IsEnabled()),
	)

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter(meterName)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:        log,
		LogLevel:      cfg.Log.DBLevel,
		SlowThreshold: cfg.Log.SlowSQL,
		Tracing: telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		},
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := migrateUp(cfg.Database.DSN(), log); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}

	poolMetrics, err := telemetry.RegisterPoolMetrics(meter, sqlDB)
	if err != nil {
		log.Fatal("Failed to register pool metrics", zap.Error(err))
	}
	costingMetrics, err := telemetry.NewCostingMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create costing metrics", zap.Error(err))
	}

	// Preview cache and the pingers reported by /health
	checks := map[string]handler.Pinger{"database": db}
	previewCache, closeCache, err := newPreviewCache(ctx, cfg, log, checks)
	if err != nil {
		log.Fatal("Failed to initialize preview cache", zap.Error(err))
	}
	defer closeCache()

	// Event bus
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewMetricsHandler(costingMetrics))
	bus.Subscribe(event.NewAuditLogHandler(log))
	if previewCache != nil {
		bus.Subscribe(event.NewPreviewInvalidationHandler(previewCache))
	}

	// Application services
	registry, err := strategy.NewRegistryWithDefaults()
	if err != nil {
		log.Fatal("Failed to register costing strategies", zap.Error(err))
	}
	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	costingService := appcosting.NewService(scope, repos, registry, appcosting.ServiceConfig{
		DefaultMethod: cfg.Costing.DefaultMethod,
		MaxRetries:    cfg.Costing.MaxRetries,
		RetryBackoff:  cfg.Costing.RetryBackoff,
	}, log.Named("costing"))
	costingService.SetEventPublisher(bus)
	if previewCache != nil {
		costingService.SetPreviewCache(previewCache)
	}
	catalogService := appcosting.NewCatalogService(scope, repos, log.Named("catalog"))

	// Batch maintenance
	maintenance, err := scheduler.NewMaintenanceScheduler(scheduler.Config{
		Enabled:       cfg.Maintenance.Enabled,
		Interval:      cfg.Maintenance.Interval,
		JobTimeout:    cfg.Maintenance.JobTimeout,
		RetryAttempts: cfg.Maintenance.RetryAttempts,
		RetryDelay:    cfg.Maintenance.RetryDelay,
		RunOnStart:    cfg.Maintenance.RunOnStart,
	}, costingService, cfg.Maintenance.ExpiryWindow, log.Named("maintenance"))
	if err != nil {
		log.Fatal("Failed to create maintenance scheduler", zap.Error(err))
	}
	if err := maintenance.Start(ctx); err != nil {
		log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
	}

	// HTTP
	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine, err := router.NewEngine(router.EngineConfig{
		Mode:           ginMode(cfg.App.Env),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           middleware.DefaultCORSConfig(),
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Metrics: httpMetrics,
	}, log)
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, checks)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(router.CostingRoutes(
			handler.NewCostingHandler(costingService),
			handler.NewCatalogHandler(catalogService),
			systemHandler,
		)).
		Setup()
	engine.GET("/health", systemHandler.Health)
	engine.GET("/info", systemHandler.Info)
	router.MountSwagger(engine, middleware.SwaggerConfig{
		Enabled:    cfg.Swagger.Enabled,
		AllowedIPs: cfg.Swagger.AllowedIPs,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := maintenance.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping maintenance scheduler", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := poolMetrics.Unregister(); err != nil {
		log.Warn("Error unregistering pool metrics", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing traces", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing logs", zap.Error(err))
	}
}

// migrateUp applies the embedded migrations on a dedicated connection,
// which the migrator closes when done
func migrateUp(dsn string, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migration.Source{FS: migrations.FS}, log.Named("migrate"))
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

// newPreviewCache builds the configured preview cache. A nil cache means
// previews are computed on every request.
func newPreviewCache(ctx context.Context, cfg *config.Config, log *zap.Logger, checks map[string]handler.Pinger) (appcosting.PreviewCache, func(), error) {
	if !cfg.Costing.PreviewCacheEnabled {
		log.Info("Cost preview cache disabled")
		return nil, func() {}, nil
	}

	if cfg.Redis.Enabled {
		c, err := cache.NewRedisPreviewCache(ctx, cache.RedisOptions{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
			OpTimeout:   cfg.Redis.OpTimeout,
			TTL:         cfg.Costing.PreviewCacheTTL,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		checks["redis"] = c
		log.Info("Cost preview cache backed by redis", zap.String("addr", cfg.Redis.Addr()))
		return c, func() {
			if err := c.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}, nil
	}

	c := cache.NewInMemoryPreviewCache(cfg.Costing.PreviewCacheTTL)
	log.Info("Cost preview cache in memory", zap.Duration("ttl", cfg.Costing.PreviewCacheTTL))
	return c, func() { _ = c.Close() }, nil
}

func ginMode(env string) string {
	switch env {
	case "production", "prod":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
