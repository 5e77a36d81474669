// Package version holds build information stamped by the linker.
package version

// Set at build time via -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)
