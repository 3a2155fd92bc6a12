package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harmonize-mb/harmonize/internal/browser"
	"github.com/harmonize-mb/harmonize/internal/config"
	"github.com/harmonize-mb/harmonize/internal/database"
	"github.com/harmonize-mb/harmonize/internal/log"
	"github.com/harmonize-mb/harmonize/internal/model"
	"github.com/harmonize-mb/harmonize/internal/musicbrainz"
	"github.com/harmonize-mb/harmonize/internal/pipeline"
	"github.com/harmonize-mb/harmonize/internal/prompt"
	"github.com/harmonize-mb/harmonize/internal/provider"
	"github.com/harmonize-mb/harmonize/internal/report"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [album-url...]",
		Short: "Import albums into MusicBrainz via Harmony",
		Long: `Import submits streaming-service album URLs to Harmony and drives the
seeded MusicBrainz release editor through a real browser.

For each album it:
- Submits the URL to Harmony and detects already-linked releases
- Opens the seeded release editor, logs in, and fixes label errors
- Pauses for a manual review before the edit is entered (default)
- Submits ISRCs through MagicISRC and per-track external ID edits
- Uploads the largest cover image Harmony offers
- Verifies the new release through the MusicBrainz web service

Albums are processed one at a time; the run shares one browser window
and one human. URLs already recorded as imported are skipped unless
--force is given.

Examples:
  # Import a single album
  harmonize import https://open.spotify.com/album/4aawyAB9vmqN3uQ7FjRGTy

  # Import several albums from a list file (one URL per line)
  harmonize import --list albums.txt

  # Try the whole flow against the MusicBrainz test server
  harmonize import --test-server https://www.deezer.com/album/302127

  # Unattended run with stored credentials (no review pause)
  harmonize import --no-review --headless --list albums.txt

Configuration file (.harmonize) example:
  defaults:
    extra_wait: 1s
  providers:
    bandcamp:
      extra_wait: 3s
    spotify:
      skip_cover_art: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runImportCmd,
	}

	// Input flags
	cmd.Flags().StringP("list", "l", "",
		"Read album URLs from a file (one per line, # comments allowed)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .harmonize in current or home directory)")

	// Import behavior flags
	cmd.Flags().Bool("test-server", false,
		"Use test.musicbrainz.org instead of the production server")
	cmd.Flags().Bool("no-review", false,
		"Enter edits without pausing for a manual review")
	cmd.Flags().Bool("pause-on-found", false,
		"Pause when Harmony reports the album as already linked")
	cmd.Flags().Bool("close-tabs", false,
		"Close each album's tabs after processing instead of leaving them open")
	cmd.Flags().Bool("copy-mbid", false,
		"Copy each release MBID to the clipboard")
	cmd.Flags().Bool("manual-labels", false,
		"Pause for manual label selection instead of removing unmatched labels")
	cmd.Flags().Bool("skip-isrc", false,
		"Skip the MagicISRC submission step")
	cmd.Flags().Bool("skip-cover-art", false,
		"Skip the cover art upload step")
	cmd.Flags().BoolP("force", "f", false,
		"Re-import URLs the history database already records as imported")

	// Browser flags
	cmd.Flags().Bool("headless", false,
		"Run the browser without a visible window (requires --no-review)")
	cmd.Flags().String("profile-dir", config.DefaultProfileDir(),
		"Browser profile directory (keeps logins across runs)")
	cmd.Flags().Duration("wait-timeout", config.DefaultWaitTimeout,
		"How long to wait for a page element before prompting")
	cmd.Flags().Duration("edit-timeout", config.DefaultEditTimeout,
		"How long to wait for MusicBrainz to accept an edit")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runImportCmd executes the import command.
func runImportCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential masking
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runImport(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.UseTestServer, err = cmd.Flags().GetBool("test-server")
	if err != nil {
		return nil, err
	}

	noReview, err := cmd.Flags().GetBool("no-review")
	if err != nil {
		return nil, err
	}
	cfg.ReviewBeforePublish = !noReview

	cfg.PauseOnFoundRelease, err = cmd.Flags().GetBool("pause-on-found")
	if err != nil {
		return nil, err
	}

	cfg.CloseTabsAfterProcessing, err = cmd.Flags().GetBool("close-tabs")
	if err != nil {
		return nil, err
	}

	cfg.CopyMBIDToClipboard, err = cmd.Flags().GetBool("copy-mbid")
	if err != nil {
		return nil, err
	}

	cfg.ManualLabelSelection, err = cmd.Flags().GetBool("manual-labels")
	if err != nil {
		return nil, err
	}

	cfg.SkipISRC, err = cmd.Flags().GetBool("skip-isrc")
	if err != nil {
		return nil, err
	}

	cfg.SkipCoverArt, err = cmd.Flags().GetBool("skip-cover-art")
	if err != nil {
		return nil, err
	}

	cfg.Force, err = cmd.Flags().GetBool("force")
	if err != nil {
		return nil, err
	}

	cfg.Headless, err = cmd.Flags().GetBool("headless")
	if err != nil {
		return nil, err
	}

	cfg.ProfileDir, err = cmd.Flags().GetString("profile-dir")
	if err != nil {
		return nil, err
	}

	cfg.WaitTimeout, err = cmd.Flags().GetDuration("wait-timeout")
	if err != nil {
		return nil, err
	}

	cfg.EditTimeout, err = cmd.Flags().GetDuration("edit-timeout")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load provider settings from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently continue without one.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Credentials come from the environment only, never the YAML file
	cfg.Credentials = config.LoadCredentials()

	// Collect targets: positional arguments plus an optional list file
	cfg.Targets = args

	listFile, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}
	if listFile != "" {
		listed, err := provider.ReadURLList(listFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, listed...)
	}

	return cfg, nil
}

// runImport executes the import run.
func runImport(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting import",
		"targets", len(cfg.Targets),
		"testServer", cfg.UseTestServer,
		"review", cfg.ReviewBeforePublish,
		"headless", cfg.Headless,
	)

	// Open the history database
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "dir", cfg.DBDir)

	// Normalize targets and build one report per album. URLs the history
	// already records as imported are marked skipped here; the pipeline
	// passes them through untouched.
	reports, err := buildReports(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	if !cfg.Credentials.Present() {
		fmt.Fprintln(os.Stderr, "Note: MB_USERNAME/MB_PASSWORD not set; you will be asked to log in manually.")
	}

	prompter := prompt.NewTerminal(os.Stdin, os.Stderr)

	// Launch the browser. One session serves the whole run so the
	// MusicBrainz login survives between albums.
	session, err := browser.NewSession(ctx, browser.Options{
		ProfileDir:  cfg.ProfileDir,
		Headless:    cfg.Headless,
		WaitTimeout: cfg.WaitTimeout,
		Prompter:    prompter,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	// The web service client verifies releases after import. The test
	// server has no usable web service, so verification is skipped there.
	var wsClient *musicbrainz.Client
	if !cfg.UseTestServer {
		wsClient = musicbrainz.NewClient(config.AppName, getVersion(),
			"https://github.com/harmonize-mb/harmonize")
		defer wsClient.Close()
	}

	runner := pipeline.NewRunner(session.Root(),
		func(r *model.ImportReport) *pipeline.Pipeline {
			providerCfg := cfg.File.ProviderFor(r.Provider)
			return pipeline.DefaultPipeline(cfg, prompter, wsClient, providerCfg,
				pipeline.WithLogger(logger))
		},
		pipeline.WithRunnerLogger(logger),
		pipeline.WithCloseTabs(cfg.CloseTabsAfterProcessing),
		pipeline.WithAlbumCallback(func(r *model.ImportReport) {
			// Persist as the run progresses so an interrupted run keeps
			// the albums that already settled.
			if err := db.SaveImport(ctx, r); err != nil {
				logger.Error("failed to save import", "album", r.AlbumURL, "error", err)
			}
		}),
	)

	sessionReport, runErr := runner.Run(ctx, reports)

	// The report covers whatever happened, run error or not.
	if err := outputReport(cfg, sessionReport); err != nil {
		logger.Error("report output failed", "error", err)
	}

	return runErr
}

// buildReports normalizes the configured targets into per-album reports.
// Duplicate URLs are dropped; already-imported URLs are marked skipped
// unless --force is set.
func buildReports(ctx context.Context, cfg *config.Config, db *database.ImportDB, logger *slog.Logger) ([]*model.ImportReport, error) {
	seen := make(map[string]bool, len(cfg.Targets))
	reports := make([]*model.ImportReport, 0, len(cfg.Targets))

	for _, target := range cfg.Targets {
		normalized, p, err := provider.Normalize(target)
		if err != nil {
			return nil, fmt.Errorf("invalid album URL %q: %w", target, err)
		}
		if seen[normalized] {
			logger.Warn("duplicate album URL dropped", "album", normalized)
			continue
		}
		seen[normalized] = true

		r := model.NewImportReport(normalized, string(p))

		if !cfg.Force {
			imported, err := db.WasImported(ctx, normalized)
			if err != nil {
				return nil, fmt.Errorf("failed to check import history: %w", err)
			}
			if imported {
				logger.Info("album already imported, skipping (use --force to re-import)",
					"album", normalized)
				r.Status = model.StatusSkipped
			}
		}

		reports = append(reports, r)
	}

	return reports, nil
}

// outputReport outputs the session report in the requested format.
func outputReport(cfg *config.Config, session *model.SessionReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600)
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output,
			report.WithPrettyPrint(),
			report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(session)
	return err
}
