// Package main provides the entry point for the harmonize CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for harmonize.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harmonize",
		Short: "Import streaming-service albums into MusicBrainz via Harmony",
		Long: `Harmonize automates MusicBrainz album imports through the Harmony web tool.
It submits album URLs to Harmony, drives the seeded MusicBrainz release
editor in a real browser, submits ISRCs and per-track external IDs, and
uploads cover art.

The browser stays visible by default because most imports need a human
review before the edit is entered. MusicBrainz credentials come from the
MB_USERNAME and MB_PASSWORD environment variables (a .env file works).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
