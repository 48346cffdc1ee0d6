package version

import (
	"fmt"
	"runtime"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// ProtocolVersion is the version of the client/backend wire protocol.
// Bump the major version on any incompatible change to a command payload.
const ProtocolVersion = "1.1.0"

// DefaultProtocolConstraint is what a client accepts from a backend.
const DefaultProtocolConstraint = ">= 1.0.0, < 2.0.0"

// Info contains version and build information
type Info struct {
	CommitHash      string `json:"commit_hash" yaml:"commit_hash"`
	BuildTime       string `json:"build_time" yaml:"build_time"`
	Version         string `json:"version" yaml:"version"`
	ProtocolVersion string `json:"protocol_version" yaml:"protocol_version"`
	GoVersion       string `json:"go_version" yaml:"go_version"`
	Platform        string `json:"platform" yaml:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash:      CommitHash,
		BuildTime:       BuildTime,
		Version:         Version,
		ProtocolVersion: ProtocolVersion,
		GoVersion:       runtime.Version(),
		Platform:        fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("clangcomplete %s (protocol %s, commit %s, built %s)", i.Version, i.ProtocolVersion, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("clangcomplete dev (protocol %s, commit %s, built %s)", i.ProtocolVersion, i.CommitHash, i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
