package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/handler"
	"github.com/adelangokeh992-cell/erp-pro/internal/middleware"
	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/internal/rbac"
	"github.com/adelangokeh992-cell/erp-pro/internal/tenant"
	"github.com/adelangokeh992-cell/erp-pro/pkg/config"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/jwtutil"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"
	"github.com/adelangokeh992-cell/erp-pro/pkg/password"
	"github.com/adelangokeh992-cell/erp-pro/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting ERP backend...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	seedSuperAdmin(cfg, log)

	// Handlers need access to licensing and cron configuration
	handler.Init(cfg)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Credential and licensing endpoints get a per-IP rate limit since they
	// sit in front of authentication
	publicLimiter := middleware.NewRateLimiter(rate.Limit(5), 10)

	auth := e.Group("/api/auth")
	auth.POST("/login", handler.Login, publicLimiter.Middleware)
	auth.POST("/logout", handler.Logout)

	licenses := e.Group("/api/licenses")
	licenses.Use(publicLimiter.Middleware)
	licenses.POST("/activate", handler.ActivateLicense)
	licenses.POST("/check", handler.CheckLicense)
	// requires the X-Cron-Secret header, not a JWT
	licenses.POST("/suspend-expired", handler.SuspendExpired)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	api.GET("/auth/me", handler.Me)
	api.POST("/auth/change-password", handler.ChangePassword)

	// Offline sync - tenant scope comes from the JWT
	sync := api.Group("/sync")
	sync.Use(middleware.RequireTenant)
	sync.POST("/upload", handler.SyncUpload)
	sync.POST("/download", handler.SyncDownload)

	// Tenant administration - super admin only
	tenants := api.Group("/tenants")
	tenants.Use(middleware.RequireSuperAdmin)
	tenants.GET("", handler.ListTenants)
	tenants.GET("/stats", handler.TenantStats)
	tenants.POST("", handler.CreateTenant)
	tenants.GET("/:id", handler.GetTenant)
	tenants.PATCH("/:id", handler.UpdateTenant)
	tenants.POST("/:id/extend", handler.ExtendSubscription)
	tenants.DELETE("/:id", handler.DeleteTenant)

	// Tenant-scoped business resources
	scoped := api.Group("")
	scoped.Use(middleware.RequireTenant)

	scoped.GET("/dashboard", handler.Dashboard, middleware.RequirePermission("dashboard"))
	scoped.GET("/tenant/settings", handler.GetTenantSettings)

	users := scoped.Group("/users", middleware.RequirePermission("users"))
	users.GET("", handler.ListUsers)
	users.POST("", handler.CreateUser)
	users.PATCH("/:id", handler.UpdateUser)
	users.DELETE("/:id", handler.DeleteUser)

	products := scoped.Group("/products", middleware.RequirePermission("products"))
	products.GET("", handler.ListProducts)
	products.POST("", handler.CreateProduct)
	products.GET("/:id", handler.GetProduct)
	products.PATCH("/:id", handler.UpdateProduct)
	products.POST("/:id/adjust-stock", handler.AdjustStock)
	products.DELETE("/:id", handler.DeleteProduct)

	customers := scoped.Group("/customers", middleware.RequirePermission("customers"))
	customers.GET("", handler.ListCustomers)
	customers.POST("", handler.CreateCustomer)
	customers.GET("/:id", handler.GetCustomer)
	customers.PATCH("/:id", handler.UpdateCustomer)
	customers.DELETE("/:id", handler.DeleteCustomer)

	suppliers := scoped.Group("/suppliers", middleware.RequirePermission("suppliers"))
	suppliers.GET("", handler.ListSuppliers)
	suppliers.POST("", handler.CreateSupplier)
	suppliers.GET("/:id", handler.GetSupplier)
	suppliers.PATCH("/:id", handler.UpdateSupplier)
	suppliers.DELETE("/:id", handler.DeleteSupplier)

	invoices := scoped.Group("/invoices", middleware.RequirePermission("invoices"))
	invoices.GET("", handler.ListInvoices)
	invoices.POST("", handler.CreateInvoice)
	invoices.GET("/:id", handler.GetInvoice)
	invoices.PATCH("/:id/status", handler.UpdateInvoiceStatus)
	invoices.DELETE("/:id", handler.DeleteInvoice)

	purchases := scoped.Group("/purchases", middleware.RequirePermission("purchases"))
	purchases.GET("", handler.ListPurchases)
	purchases.POST("", handler.CreatePurchase)
	purchases.GET("/:id", handler.GetPurchase)
	purchases.DELETE("/:id", handler.DeletePurchase)

	warehouses := scoped.Group("/warehouses", middleware.RequirePermission("warehouses"))
	warehouses.GET("", handler.ListWarehouses)
	warehouses.POST("", handler.CreateWarehouse)
	warehouses.GET("/:id", handler.GetWarehouse)
	warehouses.PATCH("/:id", handler.UpdateWarehouse)
	warehouses.DELETE("/:id", handler.DeleteWarehouse)

	accounting := scoped.Group("/accounting", middleware.RequirePermission("accounting"))
	accounting.GET("/accounts", handler.ListAccounts)
	accounting.POST("/accounts", handler.CreateAccount)
	accounting.PATCH("/accounts/:id", handler.UpdateAccount)
	accounting.GET("/journal-entries", handler.ListJournalEntries)
	accounting.POST("/journal-entries", handler.CreateJournalEntry)
	accounting.GET("/expenses", handler.ListExpenses)
	accounting.POST("/expenses", handler.CreateExpense)
	accounting.DELETE("/expenses/:id", handler.DeleteExpense)

	// Background expiry sweep
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tenant.StartExpirySweep(ctx, cfg.Sweep, tenant.NewDirectory(database.GetDB()), log)

	// Start server
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}

// seedSuperAdmin creates the first cross-tenant administrator when the
// bootstrap credentials are configured and no super_admin exists yet
func seedSuperAdmin(cfg *config.Config, log *zap.Logger) {
	if cfg.Bootstrap.AdminUsername == "" || cfg.Bootstrap.AdminPassword == "" {
		return
	}

	db := database.GetDB()
	var count int64
	db.Model(&model.User{}).Where("role = ?", rbac.RoleSuperAdmin).Count(&count)
	if count > 0 {
		return
	}

	hashed, err := password.Hash(cfg.Bootstrap.AdminPassword)
	if err != nil {
		log.Error("Failed to hash bootstrap password", zap.Error(err))
		return
	}
	admin := model.User{
		Username:     cfg.Bootstrap.AdminUsername,
		PasswordHash: hashed,
		Role:         rbac.RoleSuperAdmin,
		Status:       model.UserStatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Error("Failed to seed super admin", zap.Error(err))
		return
	}
	log.Info("Super admin account seeded", zap.String("username", admin.Username))
}
