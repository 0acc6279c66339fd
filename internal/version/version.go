// Package version carries build metadata stamped in with ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/pagewash/internal/version.Version=1.2.0 \
//	  -X github.com/jmylchreest/pagewash/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	Dirty     = "false" // "true" when built from a modified tree
	BuildDate = "unknown"
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Dirty     bool   `json:"dirty" yaml:"dirty"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get collects the build metadata.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Dirty:     Dirty == "true",
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short is the version with a -dirty suffix for modified trees.
func (i Info) Short() string {
	if i.Dirty {
		return i.Version + "-dirty"
	}
	return i.Version
}

// Labels returns the metadata as Prometheus labels for a build_info gauge.
func (i Info) Labels() map[string]string {
	return map[string]string{
		"version":    i.Short(),
		"commit":     i.Commit,
		"go_version": i.GoVersion,
	}
}

// String renders the multi-line form printed by `pagewash version`.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "pagewash %s\n", i.Short())
	fmt.Fprintf(&sb, "  commit:   %s\n", i.Commit)
	fmt.Fprintf(&sb, "  built:    %s\n", i.BuildDate)
	fmt.Fprintf(&sb, "  go:       %s (%s)", i.GoVersion, i.Platform)
	return sb.String()
}

// String returns the short version of the running binary.
func String() string {
	return Get().Short()
}
