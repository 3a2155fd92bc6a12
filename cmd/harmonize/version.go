package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Release metadata. Filled in by -ldflags on tagged builds; a plain
// `go install` falls back to what the toolchain stamped into the binary.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildSetting looks up one key in the build settings the Go toolchain
// embeds into the binary.
func buildSetting(key string) (string, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value, true
		}
	}
	return "", false
}

// getVersion resolves the release version: ldflags first, then the
// module version from the build info, then a development placeholder.
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// getCommit resolves the VCS revision, shortened to seven characters
// when it comes from the embedded build info.
func getCommit() string {
	if commit != "" {
		return commit
	}
	if rev, ok := buildSetting("vcs.revision"); ok {
		if len(rev) > 7 {
			return rev[:7]
		}
		return rev
	}
	return "unknown"
}

// getDate resolves the build timestamp.
func getDate() string {
	if date != "" {
		return date
	}
	if ts, ok := buildSetting("vcs.time"); ok {
		return ts
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the harmonize version",
		Long:  `Show the harmonize release version with the commit and build date it was cut from.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "harmonize %s (commit %s, built %s)\n",
				getVersion(), getCommit(), getDate())
		},
	}
}
