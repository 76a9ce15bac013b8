package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/svvaap/bookhive/internal/auth"
	"github.com/svvaap/bookhive/internal/cart"
	"github.com/svvaap/bookhive/internal/catalog"
	"github.com/svvaap/bookhive/internal/checkout"
	"github.com/svvaap/bookhive/internal/config"
	"github.com/svvaap/bookhive/internal/database"
	"github.com/svvaap/bookhive/internal/entitlements"
	http_controllers "github.com/svvaap/bookhive/internal/http"
	"github.com/svvaap/bookhive/internal/lifecycle"
	"github.com/svvaap/bookhive/internal/metrics"
	"github.com/svvaap/bookhive/internal/orders"
	"github.com/svvaap/bookhive/internal/payment"
	"github.com/svvaap/bookhive/internal/remote"
	"github.com/svvaap/bookhive/internal/scheduler"
	"github.com/svvaap/bookhive/internal/tasks"
	"github.com/svvaap/bookhive/internal/uploads"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue and listeners)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting BookHive v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Initialize the remote record store
	var store remote.Store
	switch cfg.Remote.Backend {
	case config.RemoteBackendMemory:
		log.Printf("Remote store backend: memory (records are lost on restart)")
		store = remote.NewMemoryStore()
	default:
		log.Printf("Remote store backend: sqlite")
		store, err = remote.NewSQLiteStore(db.DB)
		if err != nil {
			log.Fatalf("Failed to initialize remote store: %v", err)
		}
	}

	// Metrics registry
	reg := metrics.NewRegistry()

	// The process scope owns every remote subscription
	scope := lifecycle.NewScope()
	scope.OnDeliver = reg.SnapshotsDelivered.Inc
	scope.OnDrop = reg.SnapshotsDropped.Inc
	defer scope.Close()

	// Catalog view, cart and entitlement stores, order ledger
	cat := catalog.New()
	cat.OnSkip = reg.MalformedRecords.Inc
	if err := cat.Attach(scope, store); err != nil {
		log.Fatalf("Failed to attach catalog: %v", err)
	}

	carts := cart.New(store)
	ents := entitlements.New(store)

	ledger := orders.NewLedger()
	if err := ledger.Attach(scope, store); err != nil {
		log.Fatalf("Failed to attach order ledger: %v", err)
	}
	recorder := orders.NewRecorder(store)
	recorder.OnRecord = reg.OrdersRecorded.Inc

	// Payment provider
	var provider payment.Provider
	switch cfg.Payment.Provider {
	case "manual":
		provider = payment.ManualProvider{}
		log.Printf("Payment provider: manual (outcome reported via callback endpoint)")
	default:
		provider = &payment.StubProvider{Outcome: cfg.Payment.StubOutcome}
		log.Printf("Payment provider: stub (outcome=%s)", cfg.Payment.StubOutcome)
	}

	orchestrator := checkout.NewOrchestrator(checkout.Config{
		Carts:    carts,
		Ents:     ents,
		Recorder: recorder,
		Books:    cat,
		Provider: provider,
		Currency: cfg.Payment.Currency,
		Merchant: cfg.Payment.Merchant,
		Hooks: checkout.Hooks{
			Started:   reg.CheckoutsStarted.Inc,
			Succeeded: reg.CheckoutsSucceeded.Inc,
			Failed:    reg.CheckoutsFailed.Inc,
			Cancelled: reg.CheckoutsCancelled.Inc,
		},
	})

	// Object storage for book assets
	var objects uploads.ObjectStore
	if cfg.Uploads.Enabled {
		objects, err = uploads.NewMinioStore(uploads.Config{
			Endpoint:  cfg.Uploads.Endpoint,
			AccessKey: cfg.Uploads.AccessKey,
			SecretKey: cfg.Uploads.SecretKey,
			Bucket:    cfg.Uploads.Bucket,
			UseSSL:    cfg.Uploads.UseSSL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
	} else {
		log.Printf("WARNING: Object storage is not configured. Asset uploads will be disabled. Set 'UPLOADS_ENABLED' to enable.")
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled && objects != nil {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues
		taskClient.Register(
			tasks.NewUploadBookAssetQueue(objects, store, cfg.Uploads.URLExpiry, reg.UploadDuration.Observe),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic sales rollup
	rollup := scheduler.NewSalesRollupScheduler(ledger, store, scheduler.RollupConfig{
		Enabled:  cfg.SalesRollup.Enabled,
		Schedule: cfg.SalesRollup.Schedule,
	})
	if err := rollup.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start sales rollup scheduler: %v", err)
	}

	// Initialize authentication if enabled
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		// Create auth service
		authService = auth.NewService(db.DB, cfg.Auth)

		// Get underlying SQL DB for session store
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		// Initialize session manager
		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		// Create auth middleware
		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		// Generate or use configured CSRF secret
		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			// Generate a secret
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		// Check if setup is needed
		hasUsers, _ := authService.HasUsers()
		if !hasUsers {
			log.Printf("No users found. The first registered account becomes the administrator.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Remote:         store,
		Scope:          scope,
		Catalog:        cat,
		Carts:          carts,
		Entitlements:   ents,
		Ledger:         ledger,
		Orchestrator:   orchestrator,
		Metrics:        reg,
		TaskClient:     taskClient,
		Objects:        objects,
		StagingDir:     cfg.Uploads.StagingDir,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		rollup.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		scope.Close()
	}

	Serve(router, cfg, onShutdown)
}
