package version

import "fmt"

// Set at build time with -ldflags "-X .../internal/version.Version=...".
var (
	// Version is the release tag
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build stamp for `occlude version`.
func String() string {
	return fmt.Sprintf("occlude %s (%s, built %s)", Version, GitSHA, BuildTime)
}
