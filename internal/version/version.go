// Package version exposes build information injected at link time.
package version

//nolint:gochecknoglobals // These are overridden via -ldflags at build time.
var (
	// Version is the semantic version of the build.
	Version = "1.0.0"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// BuildTime is the time the binary was built.
	BuildTime = "unknown"
)

// Short returns the semantic version only.
func Short() string {
	return Version
}

// Full returns the version, commit, and build time in a single line.
func Full() string {
	return "version: " + Version + ", commit: " + Commit + ", built at: " + BuildTime
}
