package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apptracking "github.com/storefront/backend/internal/application/tracking"
	"github.com/storefront/backend/internal/domain/tracking"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/pixel"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Conversion Tracking API
//	@version		1.0
//	@description	Server-driven conversion tracking for storefronts: pixel script loading, event normalization, deduplication and fan-out to advertising platforms.

//	@contact.name	API Support
//	@contact.url	https://github.com/storefront/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting tracking backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	trackingMetrics, err := telemetry.NewTrackingMetrics(meterProvider.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to register tracking metrics", zap.Error(err))
	}

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:       log,
		LogLevel:     logger.MapGormLogLevel(cfg.Log.Level),
		TraceEnabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
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

	// Pixel configurations live in the admin database
	configRepo := persistence.NewGormPixelConfigRepository(db.DB)
	if err := configRepo.Migrate(); err != nil {
		log.Fatal("Failed to migrate pixel config schema", zap.Error(err))
	}

	// Session dedup markers prefer Redis so remounts routed to another
	// instance keep their markers
	sessionFactory := cache.NewSessionStoreFactory(cfg.Redis, cfg.Pixel.SessionTTL,
		cache.WithLogger(log))
	sessions, err := sessionFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create session store", zap.Error(err))
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Error("Error closing session store", zap.Error(err))
		}
	}()

	// Pixel loading and dispatch
	bootstrapper := pixel.NewHTTPBootstrapper(cfg.Pixel.FetchTimeout)
	loader := pixel.NewLoader(bootstrapper, log,
		pixel.WithMaxAttempts(cfg.Pixel.MaxAttempts),
		pixel.WithRetryBaseDelay(cfg.Pixel.RetryBaseDelay),
	)
	adapters := pixel.NewAdapters(loader, log)

	tracker := apptracking.NewTracker(loader, adapters, sessions, log,
		apptracking.WithDedupWindow(cfg.Pixel.DedupWindow),
		apptracking.WithMetrics(trackingMetrics),
	)

	// Kick off the initial pixel loads and keep configs fresh. Re-requesting
	// an already-settled platform is a no-op, so the refresh loop only picks
	// up configs enabled since the last pass.
	refreshCtx, stopRefresh := context.WithCancel(ctx)
	defer stopRefresh()
	loadEnabledPixels(refreshCtx, tracker, configRepo, log)
	go func() {
		ticker := time.NewTicker(cfg.Pixel.ConfigRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-ticker.C:
				loadEnabledPixels(refreshCtx, tracker, configRepo, log)
			}
		}
	}()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(middleware.SessionID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-Session-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler()).
		Register(handler.NewTrackingHandler(tracker)).
		Register(handler.NewPixelsHandler(tracker, configRepo))
	r.Setup()

	// Create HTTP server with config
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stopRefresh()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight pixel loads settle so queued events drain before exit
	if err := tracker.WaitSettled(shutdownCtx, cfg.Pixel.LoadTimeout); err != nil {
		log.Warn("Pixel loads did not settle before shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// loadEnabledPixels reads enabled configs and requests loads for them
func loadEnabledPixels(ctx context.Context, tracker *apptracking.Tracker, repo tracking.PixelConfigRepository, log *zap.Logger) {
	configs, err := repo.FindEnabled(ctx)
	if err != nil {
		log.Error("Failed to read pixel configs", zap.Error(err))
		return
	}
	if len(configs) == 0 {
		log.Info("No enabled pixel configs")
		return
	}
	tracker.LoadPixels(ctx, configs)
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
