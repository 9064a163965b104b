package config

// Set at build time through -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
