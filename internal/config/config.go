package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Local user database with sessions
)

type RemoteBackend string

const (
	RemoteBackendMemory RemoteBackend = "memory" // In-process store, lost on restart
	RemoteBackendSQLite RemoteBackend = "sqlite" // Durable store backed by the app database
)

type (
	Config struct {
		HTTP
		Global
		Database
		Remote
		Auth
		Payment
		Uploads
		Tasks
		SalesRollup
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Remote struct {
		Backend RemoteBackend
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
	}
	Payment struct {
		Provider    string // "stub" or "manual"
		Currency    string
		Merchant    string
		StubOutcome string // outcome the stub provider reports: success, failure, cancel
	}
	Uploads struct {
		Enabled    bool
		Endpoint   string
		AccessKey  string
		SecretKey  string
		Bucket     string
		UseSSL     bool
		StagingDir string
		URLExpiry  time.Duration
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	SalesRollup struct {
		Enabled  bool
		Schedule string // Cron format: "0 * * * *" = hourly
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("remote_backend", "sqlite")

	// Auth defaults
	v.SetDefault("auth_mode", "local")
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_token_expiry", "720h")    // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)         // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)    // HTTPS-only cookies

	// Payment defaults
	v.SetDefault("payment_provider", "stub")
	v.SetDefault("payment_currency", "INR")
	v.SetDefault("payment_merchant", "BookHive")
	v.SetDefault("payment_stub_outcome", "success")

	// Object storage defaults
	v.SetDefault("uploads_enabled", false)
	v.SetDefault("uploads_endpoint", "localhost:9000")
	v.SetDefault("uploads_access_key", "")
	v.SetDefault("uploads_secret_key", "")
	v.SetDefault("uploads_bucket", "bookhive-assets")
	v.SetDefault("uploads_use_ssl", false)
	v.SetDefault("uploads_staging_dir", DefaultStagingDir)
	v.SetDefault("uploads_url_expiry", "168h") // 7 days

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Sales rollup defaults
	v.SetDefault("sales_rollup_enabled", true)
	v.SetDefault("sales_rollup_schedule", "0 * * * *") // Hourly at :00

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Remote: Remote{
			Backend: RemoteBackend(v.GetString("REMOTE_BACKEND")),
		},
		Auth: Auth{
			Mode:            AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:   v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:     v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
		},
		Payment: Payment{
			Provider:    v.GetString("PAYMENT_PROVIDER"),
			Currency:    v.GetString("PAYMENT_CURRENCY"),
			Merchant:    v.GetString("PAYMENT_MERCHANT"),
			StubOutcome: v.GetString("PAYMENT_STUB_OUTCOME"),
		},
		Uploads: Uploads{
			Enabled:    v.GetBool("UPLOADS_ENABLED"),
			Endpoint:   v.GetString("UPLOADS_ENDPOINT"),
			AccessKey:  v.GetString("UPLOADS_ACCESS_KEY"),
			SecretKey:  v.GetString("UPLOADS_SECRET_KEY"),
			Bucket:     v.GetString("UPLOADS_BUCKET"),
			UseSSL:     v.GetBool("UPLOADS_USE_SSL"),
			StagingDir: v.GetString("UPLOADS_STAGING_DIR"),
			URLExpiry:  v.GetDuration("UPLOADS_URL_EXPIRY"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		SalesRollup: SalesRollup{
			Enabled:  v.GetBool("SALES_ROLLUP_ENABLED"),
			Schedule: v.GetString("SALES_ROLLUP_SCHEDULE"),
		},
	}
}
