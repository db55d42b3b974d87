package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogapp "github.com/tradecore/backoffice/internal/application/catalog"
	financeapp "github.com/tradecore/backoffice/internal/application/finance"
	inventoryapp "github.com/tradecore/backoffice/internal/application/inventory"
	partnerapp "github.com/tradecore/backoffice/internal/application/partner"
	postingapp "github.com/tradecore/backoffice/internal/application/posting"
	tradeapp "github.com/tradecore/backoffice/internal/application/trade"
	treasuryapp "github.com/tradecore/backoffice/internal/application/treasury"
	"github.com/tradecore/backoffice/internal/infrastructure/cache"
	"github.com/tradecore/backoffice/internal/infrastructure/config"
	"github.com/tradecore/backoffice/internal/infrastructure/logger"
	"github.com/tradecore/backoffice/internal/infrastructure/persistence"
	"github.com/tradecore/backoffice/internal/infrastructure/scheduler"
	"github.com/tradecore/backoffice/internal/interfaces/http/handler"
	"github.com/tradecore/backoffice/internal/interfaces/http/middleware"
	"github.com/tradecore/backoffice/internal/interfaces/http/router"
)

const (
	version     = "1.0.0"
	maxBodySize = 10 << 20
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
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting backoffice",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

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

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	partnerRepo := persistence.NewGormPartnerRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	returnRepo := persistence.NewGormReturnRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	treasuryTxRepo := persistence.NewGormTreasuryTransactionRepository(db.DB)
	stockMovementRepo := persistence.NewGormStockMovementRepository(db.DB)

	// Transaction scopes
	postingScope := persistence.NewGormPostingScope(db.DB)
	financeScope := persistence.NewGormFinanceScope(db.DB)
	treasuryScope := persistence.NewGormTreasuryScope(db.DB)
	documentScope := persistence.NewGormDocumentScope(db.DB)

	// Initialize application services
	productService := catalogapp.NewProductService(productRepo)
	productImportService := catalogapp.NewProductImportService(productService, log)
	partnerService := partnerapp.NewService(partnerRepo, warehouseRepo, invoiceRepo, returnRepo, paymentRepo, treasuryTxRepo)
	treasuryService := treasuryapp.NewService(treasuryScope, log)
	documentService := tradeapp.NewDocumentService(documentScope, log)
	postingService := postingapp.NewService(postingScope, log)
	installmentService := financeapp.NewInstallmentService(financeScope, log)
	commissionService := financeapp.NewCommissionService(financeScope, log)
	equityService := financeapp.NewEquityService(financeScope, log)
	inventoryQueryService := inventoryapp.NewQueryService(stockMovementRepo, productRepo)

	// Idempotency store for posting retries; falls back to the in-process
	// store when Redis is disabled or unreachable
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Daily sweep that flips pending installments past their due date
	overdueScheduler := scheduler.NewOverdueScheduler(
		scheduler.DefaultOverdueSchedulerConfig(), installmentService, log)
	overdueScheduler.Start()
	defer overdueScheduler.Stop()

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService, productImportService)
	partnerHandler := handler.NewPartnerHandler(partnerService)
	treasuryHandler := handler.NewTreasuryHandler(treasuryService)
	documentHandler := handler.NewDocumentHandler(documentService)
	postingHandler := handler.NewPostingHandler(postingService, idempotencyStore, cfg.Posting.IdempotencyTTL, log)
	financeHandler := handler.NewFinanceHandler(installmentService, commissionService, equityService)
	inventoryHandler := handler.NewInventoryHandler(inventoryQueryService)
	systemHandler := handler.NewSystemHandler(db, version)

	// Setup gin engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
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

	engine.Use(middleware.BodyLimit(maxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Catalog domain (products)
	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	catalogRoutes.POST("/products", productHandler.Create)
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	catalogRoutes.GET("/products/code/:code", productHandler.GetByCode)
	catalogRoutes.POST("/products/import", productHandler.Import)

	// Partner domain (partners, warehouses)
	partnerRoutes := router.NewDomainGroup("partner", "/partner")
	partnerRoutes.POST("/partners", partnerHandler.CreatePartner)
	partnerRoutes.GET("/partners", partnerHandler.ListPartners)
	partnerRoutes.GET("/partners/:id", partnerHandler.GetPartner)
	partnerRoutes.POST("/partners/:id/recalculate-balance", partnerHandler.RecalculateBalance)
	partnerRoutes.POST("/warehouses", partnerHandler.CreateWarehouse)
	partnerRoutes.GET("/warehouses", partnerHandler.ListWarehouses)

	// Treasury domain (accounts, transactions, balances)
	treasuryRoutes := router.NewDomainGroup("treasury", "/treasury")
	treasuryRoutes.POST("/treasuries", treasuryHandler.Create)
	treasuryRoutes.POST("/treasuries/:id/transactions", treasuryHandler.RecordTransaction)
	treasuryRoutes.GET("/treasuries/:id/transactions", treasuryHandler.ListTransactions)
	treasuryRoutes.GET("/treasuries/:id/balance", treasuryHandler.Balance)

	// Trade domain (invoices, returns, adjustments, transfers, posting)
	tradeRoutes := router.NewDomainGroup("trade", "/trade")
	tradeRoutes.POST("/invoices", documentHandler.CreateInvoice)
	tradeRoutes.GET("/invoices", documentHandler.ListInvoices)
	tradeRoutes.GET("/invoices/:id", documentHandler.GetInvoice)
	tradeRoutes.DELETE("/invoices/:id", documentHandler.DeleteInvoice)
	tradeRoutes.POST("/invoices/:id/post", postingHandler.PostInvoice)
	tradeRoutes.POST("/returns", documentHandler.CreateReturn)
	tradeRoutes.GET("/returns", documentHandler.ListReturns)
	tradeRoutes.GET("/returns/:id", documentHandler.GetReturn)
	tradeRoutes.DELETE("/returns/:id", documentHandler.DeleteReturn)
	tradeRoutes.POST("/returns/:id/post", postingHandler.PostReturn)
	tradeRoutes.POST("/adjustments", documentHandler.CreateAdjustment)
	tradeRoutes.GET("/adjustments/:id", documentHandler.GetAdjustment)
	tradeRoutes.DELETE("/adjustments/:id", documentHandler.DeleteAdjustment)
	tradeRoutes.POST("/adjustments/:id/post", postingHandler.PostAdjustment)
	tradeRoutes.POST("/transfers", documentHandler.CreateTransfer)
	tradeRoutes.GET("/transfers/:id", documentHandler.GetTransfer)
	tradeRoutes.DELETE("/transfers/:id", documentHandler.DeleteTransfer)
	tradeRoutes.POST("/transfers/:id/post", postingHandler.PostTransfer)

	// Finance domain (installments, payments, commissions, equity)
	financeRoutes := router.NewDomainGroup("finance", "/finance")
	financeRoutes.POST("/invoices/:id/installments", financeHandler.GenerateSchedule)
	financeRoutes.GET("/invoices/:id/installments", financeHandler.ListSchedule)
	financeRoutes.POST("/invoices/:id/payments", financeHandler.ApplyPayment)
	financeRoutes.POST("/invoices/:id/commission", financeHandler.PayCommission)
	financeRoutes.POST("/installments/mark-overdue", financeHandler.MarkOverdue)
	financeRoutes.POST("/equity/periods", financeHandler.OpenPeriod)
	financeRoutes.POST("/equity/periods/close", financeHandler.ClosePeriod)
	financeRoutes.POST("/equity/capital-injections", financeHandler.InjectCapital)
	financeRoutes.POST("/equity/drawings", financeHandler.RecordDrawing)

	// Inventory domain (stock queries)
	inventoryRoutes := router.NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.GET("/stock-card", inventoryHandler.StockCard)
	inventoryRoutes.GET("/stock", inventoryHandler.CurrentStock)
	inventoryRoutes.GET("/avg-cost", inventoryHandler.AvgCost)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/health", systemHandler.Health)
	systemRoutes.GET("/ready", systemHandler.Ready)
	systemRoutes.GET("/db-stats", systemHandler.DBStats)

	// Register all domain groups
	r.Register(catalogRoutes).
		Register(partnerRoutes).
		Register(treasuryRoutes).
		Register(tradeRoutes).
		Register(financeRoutes).
		Register(inventoryRoutes).
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
