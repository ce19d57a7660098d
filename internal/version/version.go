// Package version holds the build version string, overridable at link time.
package version

// Version is set via -ldflags "-X github.com/williamdemeo/docpages/internal/version.Version=..."
var Version = "dev"
