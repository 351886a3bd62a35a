// Package version carries build metadata injected via -ldflags.
package version

// Version is the semantic version of the build.
var Version = "dev"

// Commit is the git commit the binary was built from.
var Commit = "unknown"
