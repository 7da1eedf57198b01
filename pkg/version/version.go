// Package version carries build-time version metadata.
package version

import "fmt"

// Populated at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns the full version string.
func String() string {
	return fmt.Sprintf("foresight %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
