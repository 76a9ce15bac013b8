package http

import (
	"github.com/gin-gonic/gin"

	"github.com/svvaap/bookhive/internal/auth"
	"github.com/svvaap/bookhive/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Apply CSRF protection if auth is enabled
	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Apply session middleware if enabled
	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	// Attach the user's cart and entitlement subscriptions on first contact
	if cfg.Scope != nil && cfg.Carts != nil && cfg.Entitlements != nil {
		attacher := newUserAttacher(cfg.Scope, cfg.Carts, cfg.Entitlements)
		router.Use(attacher.Middleware())
	}

	// Register auth routes if auth service is available
	var authMW *auth.Middleware
	if cfg.AuthMiddleware != nil {
		authMW = cfg.AuthMiddleware
	}
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
		authController.RegisterRoutes(router)

		// API token management endpoints
		tokenController := auth.NewAPITokenController(cfg.AuthService)
		router.POST("/api/auth/token", tokenController.GenerateToken)
		router.DELETE("/api/auth/token", tokenController.RevokeToken)
	}

	// Create controllers
	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Catalog, cfg.Entitlements)
	cartController := NewCartController(cfg.Carts, cfg.Catalog, cfg.Entitlements)
	checkoutController := NewCheckoutController(cfg.Orchestrator, cfg.Catalog)
	ordersController := NewOrdersController(cfg.Ledger)
	publishController := NewPublishController(cfg.Remote, cfg.TaskClient, cfg.StagingDir)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Metrics endpoint
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Catalog endpoints
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/:id", booksController.GetBook)
	router.GET("/api/books/:id/content", booksController.GetBookContent)

	// Cart endpoints
	router.GET("/api/cart", cartController.GetCart)
	router.POST("/api/cart/items", cartController.AddItem)
	router.DELETE("/api/cart/items/:bookId", cartController.RemoveItem)

	// Checkout endpoints
	router.POST("/api/checkout", checkoutController.StartCheckout)
	router.GET("/api/checkout/status", checkoutController.CheckoutStatus)
	router.POST("/api/checkout/callback", checkoutController.CheckoutCallback)

	// Order endpoints
	router.GET("/api/orders", ordersController.ListOrders)

	// Authoring endpoints, admin only when auth is enabled
	publish := router.Group("/api")
	sales := router.Group("/api")
	if authMW != nil {
		publish.Use(authMW.RequireRole(entities.UserRoleAdmin))
		sales.Use(authMW.RequireRole(entities.UserRoleAdmin))
	}
	publish.POST("/books", publishController.CreateBook)
	publish.PUT("/books/:id", publishController.UpdateBook)
	publish.DELETE("/books/:id", publishController.DeleteBook)
	publish.POST("/books/:id/assets", publishController.UploadAsset)
	sales.GET("/orders/sales", ordersController.SalesReport)

	return router
}
