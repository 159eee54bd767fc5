// File: internal/flags/flags.go
package flags

// Centralized definitions for CLI flags used across the application

const (
	// Config flags point at an explicit configuration file instead of ~/.config/replisync/config.yaml
	Config = "config"

	// Catalog flags override the catalog location (local path, gs://bucket/object or s3://bucket/key)
	Catalog = "catalog"

	// Force flags are used to bypass interactive confirmation prompts for destructive operations
	Force      = "force"
	ForceShort = "f"

	// Debug flags are used to enable verbose logging
	Debug      = "debug"
	DebugShort = "d"

	// NoColor disables severity styling of operator messages
	NoColor = "no-color"
)
