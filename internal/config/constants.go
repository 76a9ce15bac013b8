package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bookhive.db"

	// DefaultStagingDir is where uploaded assets wait before object storage
	DefaultStagingDir = "./staging"
)
