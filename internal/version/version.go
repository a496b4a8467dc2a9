// Package version provides build version information for the application.
// Kept separate so cli and gui can both read it without an import cycle.
package version

// Version is the build version string, set by ldflags during build.
var Version = "v0.3.0-dev"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"
