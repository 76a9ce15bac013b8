package http

import (
	"github.com/svvaap/bookhive/internal/auth"
	"github.com/svvaap/bookhive/internal/cart"
	"github.com/svvaap/bookhive/internal/catalog"
	"github.com/svvaap/bookhive/internal/checkout"
	"github.com/svvaap/bookhive/internal/config"
	"github.com/svvaap/bookhive/internal/database"
	"github.com/svvaap/bookhive/internal/entitlements"
	"github.com/svvaap/bookhive/internal/lifecycle"
	"github.com/svvaap/bookhive/internal/metrics"
	"github.com/svvaap/bookhive/internal/orders"
	"github.com/svvaap/bookhive/internal/remote"
	"github.com/svvaap/bookhive/internal/tasks"
	"github.com/svvaap/bookhive/internal/uploads"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	Remote       remote.Store
	Scope        *lifecycle.Scope
	Catalog      *catalog.Catalog
	Carts        *cart.Store
	Entitlements *entitlements.Store
	Ledger       *orders.Ledger
	Orchestrator *checkout.Orchestrator

	// Observability
	Metrics *metrics.Registry

	// Asset uploads (optional)
	TaskClient *tasks.Client
	Objects    uploads.ObjectStore
	StagingDir string

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Application info
	Version string
}
