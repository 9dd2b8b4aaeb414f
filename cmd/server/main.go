package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/zenithcrm/backend/internal/application/billing"
	commissionapp "github.com/zenithcrm/backend/internal/application/commission"
	eventapp "github.com/zenithcrm/backend/internal/application/event"
	settlementapp "github.com/zenithcrm/backend/internal/application/settlement"
	"github.com/zenithcrm/backend/internal/domain/commission"
	"github.com/zenithcrm/backend/internal/infrastructure/config"
	"github.com/zenithcrm/backend/internal/infrastructure/event"
	"github.com/zenithcrm/backend/internal/infrastructure/logger"
	"github.com/zenithcrm/backend/internal/infrastructure/persistence"
	"github.com/zenithcrm/backend/internal/infrastructure/scheduler"
	"github.com/zenithcrm/backend/internal/infrastructure/telemetry"
	"github.com/zenithcrm/backend/internal/interfaces/http/handler"
	"github.com/zenithcrm/backend/internal/interfaces/http/middleware"
	"github.com/zenithcrm/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

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
		Service:    cfg.Telemetry.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ZenithCRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracer provider (no-op when telemetry is disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
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
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register database query tracing
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:          cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:         "postgresql",
		WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Initialize repositories
	scheduleRepo := persistence.NewGormPaymentScheduleRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	commissionRepo := persistence.NewGormCommissionRepository(db.DB)
	refundRepo := persistence.NewGormRefundRepository(db.DB)
	bookingPaymentRepo := persistence.NewGormBookingPaymentRepository(db.DB)
	bankTxnRepo := persistence.NewGormBankTransactionRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	agentDirectory := persistence.NewGormAgentDirectory(db.DB)

	// Initialize event bus with the audit trail subscriber
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(eventapp.NewAuditLogHandler(logger.Named(log, "audit")))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	ledgerService := settlementapp.NewLedgerService(ledgerRepo)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, scheduleRepo, eventBus)
	scheduleService := billingapp.NewScheduleService(scheduleRepo, invoiceService, eventBus)
	billingTxScope := persistence.NewGormBillingTransactionScope(db.DB)
	paymentService := billingapp.NewPaymentRecorderService(billingTxScope, paymentRepo, eventBus)
	commissionService := commissionapp.NewCommissionService(
		commissionRepo, agentDirectory, commission.NewLeastLoadedStrategy(), ledgerService, eventBus,
	)
	refundService := settlementapp.NewRefundService(refundRepo, ledgerService, eventBus)
	bookingPaymentService := settlementapp.NewBookingPaymentService(bookingPaymentRepo, ledgerService, eventBus)
	reconciliationService := settlementapp.NewReconciliationService(bankTxnRepo, paymentRepo, bookingPaymentRepo, eventBus)

	// Initialize billing cycle scheduler (overdue sweep + bank matching passes)
	billingScheduler := scheduler.NewBillingCycleScheduler(
		invoiceService,
		reconciliationService,
		log,
		scheduler.BillingCycleSchedulerConfig{
			Enabled:            cfg.Scheduler.Enabled,
			SweepInterval:      cfg.Scheduler.SweepInterval,
			SweepBatchSize:     cfg.Scheduler.SweepBatchSize,
			AutoMatchInterval:  cfg.Scheduler.AutoMatchInterval,
			AutoMatchBatchSize: cfg.Scheduler.AutoMatchBatchSize,
			JobTimeout:         cfg.Scheduler.JobTimeout,
		},
	)
	if err := billingScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start billing cycle scheduler", zap.Error(err))
	}
	defer func() {
		if err := billingScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping billing cycle scheduler", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	commissionHandler := handler.NewCommissionHandler(commissionService)
	refundHandler := handler.NewRefundHandler(refundService)
	bookingPaymentHandler := handler.NewBookingPaymentHandler(bookingPaymentService)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. Tracing - OpenTelemetry spans with error marking
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, "/api/v1/system/ping"))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Tracing
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Billing domain (payment schedules, invoices, payments)
	billingRoutes := router.NewDomainGroup("billing", "/billing")

	// Payment schedule routes
	billingRoutes.POST("/schedules", scheduleHandler.Create)
	billingRoutes.GET("/schedules", scheduleHandler.List)
	billingRoutes.GET("/schedules/deal/:dealId", scheduleHandler.ListByDeal)
	billingRoutes.GET("/schedules/:id", scheduleHandler.GetByID)
	billingRoutes.GET("/schedules/:id/reminders", scheduleHandler.UpcomingReminders)
	billingRoutes.POST("/schedules/:id/activate", scheduleHandler.Activate)
	billingRoutes.POST("/schedules/:id/complete-milestone", scheduleHandler.CompleteMilestone)
	billingRoutes.POST("/schedules/:id/cancel", scheduleHandler.Cancel)

	// Invoice routes
	billingRoutes.POST("/invoices", invoiceHandler.Generate)
	billingRoutes.GET("/invoices", invoiceHandler.List)
	billingRoutes.GET("/invoices/number/:number", invoiceHandler.GetByNumber)
	billingRoutes.POST("/invoices/sweep", invoiceHandler.Sweep)
	billingRoutes.GET("/invoices/:id", invoiceHandler.GetByID)
	billingRoutes.POST("/invoices/:id/issue", invoiceHandler.Issue)
	billingRoutes.POST("/invoices/:id/cancel", invoiceHandler.Cancel)
	billingRoutes.POST("/invoices/:id/delivery", invoiceHandler.MarkDelivered)

	// Payment routes
	billingRoutes.POST("/payments", paymentHandler.Record)
	billingRoutes.GET("/payments", paymentHandler.List)
	billingRoutes.GET("/payments/invoice/:invoiceId", paymentHandler.ListByInvoice)
	billingRoutes.GET("/payments/:id", paymentHandler.GetByID)

	// Commission domain
	commissionRoutes := router.NewDomainGroup("commission", "/commissions")
	commissionRoutes.POST("", commissionHandler.Calculate)
	commissionRoutes.GET("", commissionHandler.List)
	commissionRoutes.POST("/deal-closed", commissionHandler.DealClosed)
	commissionRoutes.POST("/assign-agent", commissionHandler.AssignAgent)
	commissionRoutes.GET("/deal/:dealId", commissionHandler.ListByDeal)
	commissionRoutes.GET("/:id", commissionHandler.GetByID)
	commissionRoutes.POST("/:id/splits", commissionHandler.CreateSplits)
	commissionRoutes.POST("/:id/approve", commissionHandler.Approve)
	commissionRoutes.POST("/:id/mark-paid", commissionHandler.MarkPaid)
	commissionRoutes.POST("/:id/cancel", commissionHandler.Cancel)

	// Settlement domain (refunds, booking payments, reconciliation, ledger)
	settlementRoutes := router.NewDomainGroup("settlement", "/settlement")

	// Refund routes
	settlementRoutes.POST("/refunds", refundHandler.Request)
	settlementRoutes.GET("/refunds", refundHandler.List)
	settlementRoutes.GET("/refunds/:id", refundHandler.GetByID)
	settlementRoutes.POST("/refunds/:id/approve", refundHandler.Approve)
	settlementRoutes.POST("/refunds/:id/process", refundHandler.Process)
	settlementRoutes.POST("/refunds/:id/reject", refundHandler.Reject)

	// Booking payment routes
	settlementRoutes.POST("/booking-payments", bookingPaymentHandler.Record)
	settlementRoutes.GET("/booking-payments/unreconciled", bookingPaymentHandler.ListUnreconciled)
	settlementRoutes.GET("/booking-payments/deal/:dealId", bookingPaymentHandler.ListByDeal)
	settlementRoutes.GET("/booking-payments/:id", bookingPaymentHandler.GetByID)

	// Bank transaction reconciliation routes
	settlementRoutes.POST("/bank-transactions", reconciliationHandler.Ingest)
	settlementRoutes.GET("/bank-transactions", reconciliationHandler.List)
	settlementRoutes.POST("/bank-transactions/auto-match", reconciliationHandler.AutoMatch)
	settlementRoutes.GET("/bank-transactions/:id", reconciliationHandler.GetByID)
	settlementRoutes.POST("/bank-transactions/:id/match", reconciliationHandler.MatchManually)

	// Ledger routes
	settlementRoutes.POST("/ledger/entries", ledgerHandler.AppendAdjustment)
	settlementRoutes.GET("/ledger/entries", ledgerHandler.ListEntries)
	settlementRoutes.GET("/ledger/:type/:scopeId", ledgerHandler.GetStatement)
	settlementRoutes.GET("/ledger/:type/:scopeId/verify", ledgerHandler.VerifyScope)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/scheduler/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, billingScheduler.GetStatus())
	})

	// Register all domain groups
	r.Register(billingRoutes).
		Register(commissionRoutes).
		Register(settlementRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
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
