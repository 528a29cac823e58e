package version

import "fmt"

// Version is set via build-time ldflags:
// go build -ldflags "-X github.com/dompile/cli/internal/version.Version=v1.2.0".
var Version = "dev"

// Build metadata, also ldflags-settable.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by the version command.
func String() string {
	if GitCommit == "unknown" {
		return fmt.Sprintf("dompile %s", Version)
	}
	return fmt.Sprintf("dompile %s (%s, built %s)", Version, GitCommit, BuildTime)
}
