package version

import (
	"fmt"
)

// These variables are populated at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the version line printed by `tiempo version` and --version.
func Info() string {
	return fmt.Sprintf("tiempo %s (commit %s, built %s)", Version, Commit, Date)
}
