// Package version holds build information for the xp CLI.
// The variables can be overridden at build time via -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Commit returns GitCommit, falling back to the VCS revision recorded by the Go toolchain.
func Commit() string {
	if GitCommit != "" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}

// Colored renders Version with each numeric component highlighted.
// Anything after the patch number is left as is.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := versionMajorColor.Sprint(parts[0]) + "." + versionMinorColor.Sprint(parts[1]) + "." + versionPatchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// String is the one-line summary printed by `xp version`.
func String() string {
	s := "xp " + Version
	if c := Commit(); c != "" {
		s += fmt.Sprintf(" (%.12s)", c)
	}
	if BuildDate != "" {
		s += " built " + BuildDate
	}
	return s
}
