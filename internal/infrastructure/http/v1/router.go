package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"aurum/internal/core/numerator"
	"aurum/internal/domain/auth"
	"aurum/internal/domain/catalogs/counterparty"
	"aurum/internal/domain/catalogs/item"
	"aurum/internal/domain/documents/bill"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/domain/registers/itemstock"
	"aurum/internal/domain/registers/metalstock"
	"aurum/internal/domain/reports"
	"aurum/internal/domain/valuation"
	"aurum/internal/infrastructure/http/v1/handlers"
	"aurum/internal/infrastructure/http/v1/middleware"
	"aurum/internal/infrastructure/storage/postgres"
	"aurum/internal/infrastructure/storage/postgres/catalog_repo"
	"aurum/internal/infrastructure/storage/postgres/document_repo"
	"aurum/internal/infrastructure/storage/postgres/register_repo"
	"aurum/internal/infrastructure/storage/postgres/report_repo"
	"aurum/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool
	Pool *postgres.Pool

	// TxManager manages transactions over Pool
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Numerator for document number generation
	Numerator numerator.Generator

	// PaymentPolicy guards bill payments against overpayment
	PaymentPolicy valuation.PaymentPolicy

	// Auditor records entity changes
	Auditor *postgres.AuditService

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool

	// IdempotencyTTL bounds replay retention (default 10m)
	IdempotencyTTL time.Duration
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	healthHandler.RegisterRoutes(router.Group("/health"))

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		if cfg.IdempotencyEnabled {
			ttl := cfg.IdempotencyTTL
			if ttl <= 0 {
				ttl = 10 * time.Minute
			}
			store := postgres.NewIdempotencyStore(cfg.Pool, cfg.TxManager, ttl)
			protected.Use(middleware.Idempotency(store))
		}

		registerCatalogRoutes(protected, cfg)
		registerDocumentRoutes(protected, cfg)
		registerRegisterRoutes(protected, cfg)
		registerReportRoutes(protected, cfg)
		registerPurityRoutes(protected)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints (no JWT required)
	publicAuth := rg.Group("/auth")

	// Protected auth endpoints (JWT required)
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalogs")
	baseHandler := handlers.NewBaseHandler()

	// --- ITEMS ---
	{
		repo := catalog_repo.NewItemRepo(cfg.TxManager)
		service := item.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewItemHandler(baseHandler, service)

		group := catalogs.Group("/items")
		RegisterCatalogRoutes(group, handler)
		group.GET("/by-barcode/:barcode", handler.FindByBarcode)
	}

	// --- COUNTERPARTIES ---
	{
		repo := catalog_repo.NewCounterpartyRepo(cfg.TxManager)
		service := counterparty.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewCounterpartyHandler(baseHandler, service)

		group := catalogs.Group("/counterparties")
		RegisterCatalogRoutes(group, handler)
		group.GET("/by-phone/:phone", handler.FindByPhone)
	}
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	docs := rg.Group("/documents")
	baseHandler := handlers.NewBaseHandler()

	publisher := postgres.NewOutboxPublisher(cfg.TxManager)

	// --- BILLS ---
	{
		repo := document_repo.NewBillRepo(cfg.TxManager)
		service := bill.NewService(repo, cfg.TxManager, publisher, cfg.Numerator, cfg.PaymentPolicy, cfg.Auditor)
		handler := handlers.NewBillHandler(baseHandler, service)

		group := docs.Group("/bills")
		RegisterDocumentRoutes(group, handler)
		group.POST("/:id/payments", middleware.RequireRole(auth.RoleManager, auth.RoleSales), handler.AddPayment)
		group.GET("/:id/payments", handler.GetPayments)
	}

	// --- PURCHASE INVOICES ---
	{
		repo := document_repo.NewPurchaseRepo(cfg.TxManager)
		service := purchase.NewService(repo, cfg.TxManager, publisher, cfg.Numerator, cfg.Auditor)
		handler := handlers.NewPurchaseHandler(baseHandler, service)

		RegisterDocumentRoutes(docs.Group("/purchase-invoices"), handler)
	}
}

// registerRegisterRoutes registers stock register endpoints.
func registerRegisterRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	registers := rg.Group("/registers")
	baseHandler := handlers.NewBaseHandler()

	metalService := metalstock.NewService(register_repo.NewMetalStockRepo(cfg.TxManager))
	itemService := itemstock.NewService(register_repo.NewItemStockRepo(cfg.TxManager))
	handler := handlers.NewStockHandler(baseHandler, metalService, itemService)

	metal := registers.Group("/metal-stock")
	metal.GET("/balances", handler.MetalBalances)
	metal.GET("/balances/:metalType/:fineness", handler.MetalBalance)
	metal.GET("/movements/by-source", handler.MetalMovementsBySource)
	metal.GET("/movements/:metalType/:fineness", handler.MetalMovements)

	items := registers.Group("/item-stock")
	items.GET("/balances", handler.ItemBalances)
	items.GET("/balances/:itemCode", handler.ItemBalance)
	items.GET("/movements/:itemCode", handler.ItemMovements)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	group := rg.Group("/reports")
	baseHandler := handlers.NewBaseHandler()

	service := reports.NewService(report_repo.NewReportRepo(cfg.TxManager))
	handler := handlers.NewReportsHandler(baseHandler, service)

	group.GET("/metal-stock", handler.MetalStock)
	group.GET("/metal-turnover", handler.MetalTurnover)
	group.GET("/item-stock", handler.ItemStock)
	group.GET("/sales-summary", handler.SalesSummary)
	group.GET("/document-journal", handler.DocumentJournal)
}

// registerPurityRoutes registers purity conversion endpoints.
func registerPurityRoutes(rg *gin.RouterGroup) {
	handler := handlers.NewPurityHandler(handlers.NewBaseHandler())
	handler.RegisterRoutes(rg.Group("/purity"))
}
