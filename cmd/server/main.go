package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	labelingapp "github.com/erp/labelprint/internal/application/labeling"
	"github.com/erp/labelprint/internal/domain/labeling"
	"github.com/erp/labelprint/internal/infrastructure/barcode"
	"github.com/erp/labelprint/internal/infrastructure/cache"
	"github.com/erp/labelprint/internal/infrastructure/config"
	"github.com/erp/labelprint/internal/infrastructure/logger"
	"github.com/erp/labelprint/internal/infrastructure/persistence"
	"github.com/erp/labelprint/internal/infrastructure/printing"
	"github.com/erp/labelprint/internal/infrastructure/scheduler"
	"github.com/erp/labelprint/internal/infrastructure/storage"
	"github.com/erp/labelprint/internal/infrastructure/telemetry"
	"github.com/erp/labelprint/internal/interfaces/http/handler"
	"github.com/erp/labelprint/internal/interfaces/http/middleware"
	"github.com/erp/labelprint/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.App.Env, cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting label print service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	mp, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if lp.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, lp, log.Level())
		log = telemetry.NewBridgedLogger(log.Core(), otelCore,
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	middleware.SetupValidator()

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)

	// Job history is optional; without a database jobs are not recorded
	var jobRepo labeling.LabelJobRepository
	if cfg.Database.Enabled {
		db, err := persistence.NewDatabase(&cfg.Database,
			persistence.WithLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
			if err := telemetry.RegisterGormTracing(db.DB, cfg.Database.DBName, log); err != nil {
				log.Warn("Failed to register GORM tracing", zap.Error(err))
			}
		}
		if cfg.Telemetry.DBMetricsEnabled {
			dbMetrics, err := telemetry.RegisterDBMetrics(ctx, db.DB, mp, telemetry.DefaultDBMetricsConfig(), log)
			if err != nil {
				log.Warn("Failed to register database metrics", zap.Error(err))
			} else if dbMetrics != nil {
				defer dbMetrics.Stop()
			}
		}
		jobRepo = persistence.NewGormLabelJobRepository(db.DB)
		systemHandler.AddCheck("database", db.Ping)
		log.Info("Database connected successfully")
	}

	idempotency := cache.NewIdempotencyStore(ctx, cfg.Redis, log)
	defer func() {
		if err := idempotency.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	engine := printing.NewTemplateEngine()
	labelRenderer, err := printing.NewLabelRenderer(engine)
	if err != nil {
		log.Fatal("Failed to parse label templates", zap.Error(err))
	}
	documentBuilder, err := printing.NewDocumentBuilder(engine)
	if err != nil {
		log.Fatal("Failed to parse document templates", zap.Error(err))
	}

	opts := []labelingapp.Option{
		labelingapp.WithLogger(log),
		labelingapp.WithIdempotencyStore(idempotency),
		labelingapp.WithDefaults(defaultsFromConfig(cfg.Labels, log)),
	}
	if jobRepo != nil {
		opts = append(opts, labelingapp.WithJobRepository(jobRepo))
	}
	if mp.IsEnabled() {
		labelMetrics, err := telemetry.NewLabelMetrics(mp.Meter("labeling"))
		if err != nil {
			log.Warn("Label metrics disabled", zap.Error(err))
		} else {
			opts = append(opts, labelingapp.WithMetrics(labelMetrics))
		}
	}

	// PDF output: render with headless Chrome and keep the file in storage
	var pdfStorage printing.PDFStorage
	if cfg.Printing.Enabled {
		pdfStorage, err = newPDFStorage(ctx, &cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize PDF storage", zap.Error(err))
		}

		pdfRenderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.Timeout,
			RemoteURL:      cfg.Printing.RemoteURL,
			NoSandbox:      cfg.Printing.NoSandbox,
			Logger:         log,
		})
		if err != nil {
			log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
		}
		defer func() {
			if err := pdfRenderer.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()

		surfaceOpts := []printing.PDFPrintSurfaceOption{
			printing.WithRenderTimeout(cfg.Printing.Timeout),
			printing.WithSurfaceLogger(log),
		}
		if jobRepo != nil {
			surfaceOpts = append(surfaceOpts, printing.WithJobRepository(jobRepo))
		}
		opts = append(opts, labelingapp.WithPrintSurface(
			printing.NewPDFPrintSurface(pdfRenderer, pdfStorage, surfaceOpts...)))
		log.Info("PDF print surface enabled", zap.String("storage", cfg.Storage.Driver))
	}

	formatter := labeling.NewFormatter(barcode.NewEncoder(barcode.WithLogger(log)))
	labelService := labelingapp.NewLabelService(formatter, labelRenderer, documentBuilder, opts...)

	var retention *scheduler.RetentionScheduler
	if pdfStorage != nil && cfg.Storage.RetentionDays > 0 {
		retentionCfg := scheduler.DefaultRetentionConfig()
		retentionCfg.MaxAge = time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour
		retentionCfg.Schedule = cfg.Storage.RetentionSchedule
		retention, err = scheduler.NewRetentionScheduler(retentionCfg, pdfStorage, log)
		if err != nil {
			log.Fatal("Failed to initialize retention scheduler", zap.Error(err))
		}
		retention.Start(ctx)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(logger.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(log))
	r.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	r.Use(middleware.TracingAttributeInjector())
	r.Use(middleware.SpanErrorMarker())
	if mp.IsEnabled() {
		r.Use(middleware.HTTPMetrics(mp.Meter("http.server"), log))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	r.Use(middleware.CORSWithConfig(corsCfg))
	r.Use(middleware.Secure())
	r.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var printLimit gin.HandlerFunc
	if cfg.HTTP.PrintRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.PrintRateLimit, cfg.HTTP.PrintRateWindow)
		defer limiter.Stop()
		printLimit = middleware.RateLimit(limiter)
	}

	labelHandler := handler.NewLabelHandler(labelService, pdfStorage)

	api := router.NewRouter(r, router.WithAPIVersion("v1"))
	api.Register(handler.LabelRoutes(labelHandler, systemHandler, printLimit))
	api.Setup()

	r.GET("/health", systemHandler.Health)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// Documents already accepted still reach the print surface
	if err := labelService.Wait(shutdownCtx); err != nil {
		log.Warn("Print dispatches still running at shutdown", zap.Error(err))
	}
	if retention != nil {
		if err := retention.Stop(shutdownCtx); err != nil {
			log.Warn("Retention scheduler did not stop cleanly", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// defaultsFromConfig maps the labels config section onto service defaults.
// An unknown default format falls back to the built-in one.
func defaultsFromConfig(lc config.LabelsConfig, log *zap.Logger) labelingapp.Defaults {
	d := labelingapp.DefaultDefaults()
	if lc.DefaultFormat != "" {
		id := labeling.FormatID(strings.ToUpper(strings.TrimSpace(lc.DefaultFormat)))
		if _, err := labeling.FormatByID(id); err != nil {
			log.Warn("Unknown default label format, using built-in default",
				zap.String("format", lc.DefaultFormat),
				zap.String("fallback", string(d.FormatID)))
		} else {
			d.FormatID = id
		}
	}
	if lc.CurrencySymbol != "" {
		d.CurrencySymbol = lc.CurrencySymbol
	}
	d.StoreName = lc.StoreName
	if lc.IdempotencyTTL > 0 {
		d.IdempotencyTTL = lc.IdempotencyTTL
	}
	if lc.MaxLabels > 0 {
		d.MaxLabels = lc.MaxLabels
	}
	return d
}

// newPDFStorage builds the storage backend selected by cfg.Driver
func newPDFStorage(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (printing.PDFStorage, error) {
	if cfg.Driver == config.StorageDriverS3 {
		s3, err := storage.NewS3PDFStorage(cfg,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.PresignExpiration))
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s3, nil
	}

	return printing.NewFileSystemStorage(&printing.FileSystemStorageConfig{
		BasePath: cfg.BasePath,
		BaseURL:  cfg.BaseURL,
		Logger:   log,
	})
}
