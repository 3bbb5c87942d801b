// Package version holds build version information. It is kept apart from
// cli so that any package can report the version without an import cycle.
package version

// Version is the build version string, set by ldflags during build:
//
//	go build -ldflags "-X github.com/logocruncher/logo-cruncher/internal/version.Version=v0.1.0"
var Version = "v0.1.0-dev"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"
