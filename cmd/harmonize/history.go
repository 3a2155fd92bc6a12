package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harmonize-mb/harmonize/internal/config"
	"github.com/harmonize-mb/harmonize/internal/database"
	"github.com/harmonize-mb/harmonize/internal/model"
	"github.com/harmonize-mb/harmonize/internal/provider"
)

// NewHistoryCmd creates the history command.
// This command displays import history stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [album-url]",
		Short: "Show import history",
		Long: `History displays past import attempts recorded in the local database.

Without an argument it lists the most recent attempts across all albums.
With an album URL it shows every attempt for that album, including the
failure reasons of attempts that did not go through.

Examples:
  # Show the 20 most recent import attempts
  harmonize history

  # Show the 50 most recent attempts
  harmonize history --limit 50

  # Show every attempt for one album
  harmonize history https://open.spotify.com/album/4aawyAB9vmqN3uQ7FjRGTy

  # Output history in JSON format
  harmonize history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of attempts to list (0 for all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Validate the URL argument before opening the database
	var albumURL string
	if len(args) > 0 {
		albumURL, _, err = provider.Normalize(args[0])
		if err != nil {
			return fmt.Errorf("invalid album URL: %w", err)
		}
	}

	// Use XDG data directory for database
	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if albumURL != "" {
		return showAlbumHistory(ctx, db, out, albumURL, jsonOutput)
	}
	return listRecentImports(ctx, db, out, limit, jsonOutput)
}

// listRecentImports lists the most recent import attempts across all albums.
func listRecentImports(ctx context.Context, db *database.ImportDB, out io.Writer, limit int, jsonOutput bool) error {
	records, err := db.ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list imports: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No imports recorded yet.")
		fmt.Fprintln(out, "\nUse 'harmonize import <album-url>' to import an album.")
		return nil
	}

	fmt.Fprintf(out, "Recent imports (%d):\n\n", len(records))
	fmt.Fprintf(out, "  %-6s  %-19s  %-14s  %s\n", "ID", "Date", "Status", "Album")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, rec := range records {
		fmt.Fprintf(out, "  %-6d  %-19s  %-14s  %s\n",
			rec.ID,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Status,
			rec.AlbumURL,
		)
	}

	fmt.Fprintln(out, "\nUse 'harmonize history <album-url>' to see all attempts for an album.")

	return nil
}

// showAlbumHistory shows every recorded attempt for one album URL.
func showAlbumHistory(ctx context.Context, db *database.ImportDB, out io.Writer, albumURL string, jsonOutput bool) error {
	reports, err := db.History(ctx, albumURL)
	if err != nil {
		return fmt.Errorf("failed to get import history: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reports)
	}

	if len(reports) == 0 {
		fmt.Fprintf(out, "No import history found for %s\n", albumURL)
		fmt.Fprintln(out, "\nUse 'harmonize import' to import this album.")
		return nil
	}

	fmt.Fprintf(out, "Import history for %s (%d attempts):\n\n", albumURL, len(reports))

	for _, r := range reports {
		fmt.Fprintf(out, "  %s  %s\n", r.DateStarted.Format("2006-01-02 15:04:05"), formatAttempt(r))
	}

	return nil
}

// formatAttempt formats one import attempt as a single summary line.
func formatAttempt(r *model.ImportReport) string {
	switch r.Status {
	case model.StatusImported:
		if r.ReleaseTitle != "" {
			return fmt.Sprintf("imported  %s — %s (https://musicbrainz.org/release/%s)",
				r.ReleaseArtist, r.ReleaseTitle, r.ReleaseMBID)
		}
		return fmt.Sprintf("imported  https://musicbrainz.org/release/%s", r.ReleaseMBID)
	case model.StatusAlreadyLinked:
		return fmt.Sprintf("already linked to https://musicbrainz.org/release/%s", r.ReleaseMBID)
	case model.StatusFailed:
		return "failed    " + r.ErrorMessage
	case model.StatusSkipped:
		return "skipped"
	default:
		return string(r.Status)
	}
}
