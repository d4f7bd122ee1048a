package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Version information for the fixall CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Colored returns Version with the major, minor and patch parts coloured.
// Anything that is not MAJOR.MINOR.PATCH[-suffix] is returned unchanged.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return Version
	}
	out := versionMajorColor.Sprint(parts[0]) + "." + versionMinorColor.Sprint(parts[1]) + "." + versionPatchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Info is the build metadata printed by `fixall version`.
type Info struct {
	Version    string `json:"version" yaml:"version"`
	GitCommit  string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty" yaml:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
}

// Current returns the build metadata.
func Current() Info {
	return Info{
		Version:    Version,
		GitCommit:  GitCommit,
		GitMessage: GitMessage,
		BuildDate:  BuildDate,
	}
}

// String renders the metadata on one line per field, skipping empty ones.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fixall %s", i.Version)
	if i.GitCommit != "" {
		fmt.Fprintf(&sb, "\ncommit: %s", i.GitCommit)
	}
	if i.GitMessage != "" {
		fmt.Fprintf(&sb, "\nmessage: %s", i.GitMessage)
	}
	if i.BuildDate != "" {
		fmt.Fprintf(&sb, "\nbuilt: %s", i.BuildDate)
	}
	return sb.String()
}
