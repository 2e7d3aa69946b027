package config

// Default filesystem locations
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./reading-tracker.db"

	// DefaultLookupCacheDir is where ISBN lookup results are persisted
	DefaultLookupCacheDir = "./lookup-cache"
)
