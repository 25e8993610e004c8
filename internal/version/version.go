// Package version holds build information shared by the cli and gui packages.
package version

// Version is overridden with -ldflags at release build time.
var Version = "v0.4.0-dev"

// BuildTime is the release build date.
var BuildTime = "unknown"
