// Package auth provides authentication and authorization for the application.
//
// It supports two authentication modes:
//   - "none": No authentication required, all requests are anonymous
//   - "local": Local user database with session cookies and Bearer tokens (default)
//
// # Configuration
//
// Set AUTH_MODE environment variable to select the mode:
//
//	AUTH_MODE=none   # No auth required
//	AUTH_MODE=local  # Default, requires registration and login
//
// For local mode, additional configuration:
//
//	AUTH_SESSION_SECRET=<base64-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h              # Session duration
//	AUTH_TOKEN_EXPIRY=720h                 # API token expiry (30 days default)
//	AUTH_BCRYPT_COST=12                    # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true               # HTTPS-only cookies
//
// # Usage
//
// Initialize authentication in entrypoint:
//
//	authService := auth.NewService(db, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, sessions, cfg.Auth)
//	router.Use(authMiddleware.Handler())
//
// Extract the user in handlers:
//
//	uid := auth.GetUID(c)  // "" when anonymous
//
// Every user carries a stable UID string that keys their cart and purchase
// records; handlers should use the UID rather than the database row ID when
// touching those.
package auth
