package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcontribution "github.com/hazina/backend/internal/application/contribution"
	apppayment "github.com/hazina/backend/internal/application/payment"
	"github.com/hazina/backend/internal/infrastructure/auth"
	"github.com/hazina/backend/internal/infrastructure/cache"
	"github.com/hazina/backend/internal/infrastructure/config"
	"github.com/hazina/backend/internal/infrastructure/logger"
	"github.com/hazina/backend/internal/infrastructure/metrics"
	"github.com/hazina/backend/internal/infrastructure/payment"
	"github.com/hazina/backend/internal/infrastructure/persistence"
	"github.com/hazina/backend/internal/infrastructure/storage"
	"github.com/hazina/backend/internal/infrastructure/telemetry"
	"github.com/hazina/backend/internal/interfaces/http/handler"
	"github.com/hazina/backend/internal/interfaces/http/middleware"
	"github.com/hazina/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting Hazina backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	logs, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = logs.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	profiler.LinkTraces(tracer)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.SQLLevel), cfg.Log.SlowThreshold)
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithPlugins(telemetry.GormPlugins(cfg.Telemetry, cfg.Database)...),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == "sqlite" {
		// SQL migrations target postgres; the sqlite dev store is built from the models.
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	summaries, err := cache.NewSummaryCache(ctx, cfg.Redis, cfg.Report, log)
	if err != nil {
		log.Fatal("Failed to initialize summary cache", zap.Error(err))
	}
	defer func() {
		_ = summaries.Close()
	}()

	var archive appcontribution.ReportArchive
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize report archive", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Report archive bucket not ready", zap.String("bucket", s3.Bucket()), zap.Error(err))
		}
		archive = s3
	}

	mpesa := payment.NewMpesaAdapter(payment.MpesaConfigFromApp(cfg.Mpesa), payment.WithLogger(log))
	if !cfg.Mpesa.Configured() {
		log.Warn("M-Pesa credentials missing, STK push requests will be refused")
	}

	registry := metrics.NewRegistry()
	timeout := cfg.Database.QueryTimeout

	members := persistence.NewGormMemberRepository(db.DB, timeout)
	methods := persistence.NewGormPaymentMethodRepository(db.DB, timeout)
	ledger := persistence.NewGormLedgerStore(db.DB, timeout)
	transactions := persistence.NewGormMobileMoneyRepository(db.DB, timeout)

	submissions := appcontribution.NewSubmissionService(appcontribution.SubmissionServiceConfig{
		Members:        members,
		PaymentMethods: methods,
		Store:          ledger,
		Cache:          summaries,
		Metrics:        registry,
		Logger:         log,
	})
	approvals := appcontribution.NewApprovalResolver(appcontribution.ApprovalResolverConfig{
		Members: members,
		Store:   ledger,
		Cache:   summaries,
		Metrics: registry,
		Logger:  log,
	})
	reports := appcontribution.NewReportingAggregator(appcontribution.ReportingAggregatorConfig{
		Members: members,
		Store:   ledger,
		Cache:   summaries,
		Archive: archive,
		Metrics: registry,
		Logger:  log,
	})
	paymentMethods := appcontribution.NewPaymentMethodService(members, methods, log)
	bridge := apppayment.NewGatewayBridge(apppayment.GatewayBridgeConfig{
		Gateway:      mpesa,
		Transactions: transactions,
		Members:      members,
		Summaries:    summaries,
		Metrics:      registry,
		Logger:       log,
	})

	callbackLimiter := middleware.NewRateLimiter(cfg.HTTP.CallbackRateLimit, cfg.HTTP.CallbackBurst)
	stopSweep := make(chan struct{})
	go callbackLimiter.Run(time.Minute, stopSweep)
	defer close(stopSweep)

	engine, err := router.NewEngine(router.Options{
		Logger:           log,
		HTTP:             cfg.HTTP,
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   tracer.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		Tokens:           auth.NewJWTService(cfg.JWT),
		Metrics:          registry,
		CallbackLimiter:  callbackLimiter,
	}, router.Handlers{
		System:         handler.NewSystemHandler(cfg.App.Name, telemetry.Version, db),
		Contributions:  handler.NewContributionHandler(submissions, approvals, reports, appcontribution.NewMembership(members)),
		PaymentMethods: handler.NewPaymentMethodHandler(paymentMethods),
		Payments:       handler.NewPaymentHandler(bridge),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Failed to stop profiler", zap.Error(err))
	}
	if err := logs.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
