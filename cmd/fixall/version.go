package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fixall/internal/diagfmt"
	"fixall/internal/version"
)

type versionOptions struct {
	showHash    bool
	showMessage bool
	showDate    bool
}

var (
	versionShowHash    bool
	versionShowMessage bool
	versionShowDate    bool
	versionShowFull    bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShowHash, "hash", false, "include git commit hash")
	versionCmd.Flags().BoolVar(&versionShowMessage, "message", false, "include git commit message")
	versionCmd.Flags().BoolVar(&versionShowDate, "date", false, "include build timestamp")
	versionCmd.Flags().BoolVar(&versionShowFull, "full", false, "show every recorded bit of build metadata")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show fixall build metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := versionOptions{
			showHash:    versionShowHash || versionShowFull,
			showMessage: versionShowMessage || versionShowFull,
			showDate:    versionShowDate || versionShowFull,
		}
		outOpts, err := readOutputOptions(cmd)
		if err != nil {
			return err
		}

		info := collectVersionInfo(opts)
		switch outOpts.format {
		case "json":
			return diagfmt.WriteJSON(cmd.OutOrStdout(), info)
		case "yaml":
			return diagfmt.WriteYAML(cmd.OutOrStdout(), info)
		}
		renderVersionPretty(cmd.OutOrStdout(), info, opts, outOpts.color)
		return nil
	},
}

// collectVersionInfo returns the build metadata with unrequested fields cleared.
func collectVersionInfo(opts versionOptions) version.Info {
	info := version.Current()
	info.Version = strings.TrimSpace(info.Version)
	if info.Version == "" {
		info.Version = "dev"
	}
	info.GitCommit = pick(opts.showHash, info.GitCommit)
	info.GitMessage = pick(opts.showMessage, info.GitMessage)
	info.BuildDate = pick(opts.showDate, info.BuildDate)
	return info
}

func pick(show bool, value string) string {
	if !show {
		return ""
	}
	return valueOrUnknown(strings.TrimSpace(value))
}

func renderVersionPretty(out io.Writer, info version.Info, opts versionOptions, useColor bool) {
	v := info.Version
	if useColor {
		v = version.Colored()
	}
	fmt.Fprintf(out, "fixall %s\n", v)
	if opts.showHash {
		fmt.Fprintf(out, "commit: %s\n", info.GitCommit)
	}
	if opts.showMessage {
		fmt.Fprintf(out, "message: %s\n", info.GitMessage)
	}
	if opts.showDate {
		fmt.Fprintf(out, "built:  %s\n", info.BuildDate)
	}
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
