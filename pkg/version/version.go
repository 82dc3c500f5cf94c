// Package version reports build metadata for the compbuild CLI.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time, e.g.
// go build -ldflags "-X 'compbuild/pkg/version.Version=1.2.3' -X 'compbuild/pkg/version.Commit=abcdefg'"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

const esbuildModule = "github.com/evanw/esbuild"

// Info describes the running binary.
type Info struct {
	Version     string // Semantic version
	GitCommit   string // Git commit hash
	BuildTime   string // Build timestamp
	GoVersion   string // Go runtime version
	Platform    string // OS and architecture
	Transformer string // esbuild module version linked into the binary
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:     Version,
		GitCommit:   Commit,
		BuildTime:   BuildTime,
		GoVersion:   runtime.Version(),
		Platform:    fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Transformer: transformerVersion(),
	}
}

func transformerVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range bi.Deps {
		if dep.Path == esbuildModule {
			return dep.Version
		}
	}
	return "unknown"
}

// String formats the info on one line:
// compbuild 1.2.3 (commit abcdefg, built 2024-04-27T15:04:05Z, esbuild v0.25.10) go1.24.0 linux/amd64
func (i Info) String() string {
	return fmt.Sprintf(
		"compbuild %s (commit %s, built %s, esbuild %s) %s %s",
		i.Version,
		i.GitCommit,
		i.BuildTime,
		i.Transformer,
		i.GoVersion,
		i.Platform,
	)
}
