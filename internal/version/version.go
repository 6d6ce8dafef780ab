// Package version exposes the build version of the application.
package version

// Version is stamped at build time via
// -ldflags "-X github.com/finsight/finsight/internal/version.Version=v1.2.3".
var Version = "dev"
