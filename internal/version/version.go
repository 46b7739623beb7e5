// Package version holds build metadata, set with -ldflags at release time:
//
//	go build -ldflags "-X github.com/LucienMarcon/APP-BP/internal/version.Version=1.2.0"
package version

var (
	// Version is the release of the engine and API.
	Version = "dev"
	// Commit is the source revision of the build.
	Commit = "unknown"
)

// String formats the version for display.
func String() string {
	return Version + " (" + Commit + ")"
}
