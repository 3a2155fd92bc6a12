package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harmonize-mb/harmonize/internal/config"
	"github.com/harmonize-mb/harmonize/internal/database"
	"github.com/harmonize-mb/harmonize/internal/log"
	"github.com/harmonize-mb/harmonize/internal/model"
)

// TestNewImportCmd tests the import command creation.
func TestNewImportCmd(t *testing.T) {
	t.Parallel()

	cmd := NewImportCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "import [album-url...]" {
			t.Errorf("expected use 'import [album-url...]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has list flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list")
		if flag == nil {
			t.Fatal("expected list flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has test-server flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("test-server")
		if flag == nil {
			t.Fatal("expected test-server flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has no-review flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("no-review")
		if flag == nil {
			t.Fatal("expected no-review flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" {
			t.Errorf("expected shorthand 'f', got %q", flag.Shorthand)
		}
	})

	t.Run("has wait-timeout flag with default", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("wait-timeout")
		if flag == nil {
			t.Fatal("expected wait-timeout flag")
		}
		if flag.DefValue != config.DefaultWaitTimeout.String() {
			t.Errorf("expected default %q, got %q", config.DefaultWaitTimeout, flag.DefValue)
		}
	})

	t.Run("has edit-timeout flag with default", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("edit-timeout")
		if flag == nil {
			t.Fatal("expected edit-timeout flag")
		}
		if flag.DefValue != config.DefaultEditTimeout.String() {
			t.Errorf("expected default %q, got %q", config.DefaultEditTimeout, flag.DefValue)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("does not have db-dir flag (uses XDG)", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("db-dir")
		if flag != nil {
			t.Error("db-dir flag should not exist (always uses XDG data directory)")
		}
	})

	t.Run("does not have username flag (env only)", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("username") != nil || cmd.Flags().Lookup("password") != nil {
			t.Error("credential flags should not exist (credentials come from the environment)")
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewImportCmd()
		if getVerboseFlag(cmd) {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		importCmd, _, err := root.Find([]string{"import"})
		if err != nil {
			t.Fatalf("failed to find import command: %v", err)
		}

		if !getVerboseFlag(importCmd) {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewImportCmd()
		cfg, err := buildConfig(cmd, []string{"https://open.spotify.com/album/abc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Targets) != 1 {
			t.Errorf("expected 1 target, got %d", len(cfg.Targets))
		}
		if !cfg.ReviewBeforePublish {
			t.Error("expected review to be on by default")
		}
		if cfg.UseTestServer {
			t.Error("expected UseTestServer to be false")
		}
		if cfg.WaitTimeout != config.DefaultWaitTimeout {
			t.Errorf("expected default wait timeout, got %v", cfg.WaitTimeout)
		}
	})

	t.Run("no-review disables the review pause", func(t *testing.T) {
		cmd := NewImportCmd()
		_ = cmd.Flags().Set("no-review", "true")
		cfg, err := buildConfig(cmd, []string{"https://open.spotify.com/album/abc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ReviewBeforePublish {
			t.Error("expected ReviewBeforePublish to be false")
		}
	})

	t.Run("builds config with test server", func(t *testing.T) {
		cmd := NewImportCmd()
		_ = cmd.Flags().Set("test-server", "true")
		cfg, err := buildConfig(cmd, []string{"https://open.spotify.com/album/abc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.UseTestServer {
			t.Error("expected UseTestServer to be true")
		}
	})

	t.Run("builds config with custom edit timeout", func(t *testing.T) {
		cmd := NewImportCmd()
		_ = cmd.Flags().Set("edit-timeout", "5m")
		cfg, err := buildConfig(cmd, []string{"https://open.spotify.com/album/abc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.EditTimeout != 5*time.Minute {
			t.Errorf("expected EditTimeout 5m, got %v", cfg.EditTimeout)
		}
	})

	t.Run("builds config with JSON flag", func(t *testing.T) {
		cmd := NewImportCmd()
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildConfig(cmd, []string{"https://open.spotify.com/album/abc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("appends URLs from list file", func(t *testing.T) {
		tmpDir := t.TempDir()
		listPath := filepath.Join(tmpDir, "albums.txt")
		content := []byte(`
# favorites
https://open.spotify.com/album/one
https://www.deezer.com/album/2
`)
		if err := os.WriteFile(listPath, content, 0o600); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		cmd := NewImportCmd()
		_ = cmd.Flags().Set("list", listPath)
		cfg, err := buildConfig(cmd, []string{"https://tidal.com/album/3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Targets) != 3 {
			t.Errorf("expected 3 targets, got %d: %v", len(cfg.Targets), cfg.Targets)
		}
	})

	t.Run("returns error for invalid list file entry", func(t *testing.T) {
		tmpDir := t.TempDir()
		listPath := filepath.Join(tmpDir, "albums.txt")
		if err := os.WriteFile(listPath, []byte("https://example.com/not-a-provider\n"), 0o600); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		cmd := NewImportCmd()
		_ = cmd.Flags().Set("list", listPath)
		if _, err := buildConfig(cmd, nil); err == nil {
			t.Fatal("expected error for unsupported provider in list file")
		}
	})

	t.Run("builds config with valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "harmonize.yaml")

		content := []byte(`
defaults:
  extra_wait: 1s
providers:
  bandcamp:
    extra_wait: 3s
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewImportCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"https://open.spotify.com/album/abc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.File == nil {
			t.Fatal("expected config file to be loaded")
		}
		if cfg.File.Defaults.ExtraWait != "1s" {
			t.Errorf("expected default extra_wait '1s', got %q", cfg.File.Defaults.ExtraWait)
		}
		if cfg.File.ProviderFor("bandcamp").ExtraWait != "3s" {
			t.Errorf("expected bandcamp extra_wait '3s', got %q",
				cfg.File.ProviderFor("bandcamp").ExtraWait)
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		cmd := NewImportCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml"))
		if _, err := buildConfig(cmd, []string{"https://open.spotify.com/album/abc"}); err == nil {
			t.Fatal("expected error for missing explicit config file")
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte(`{invalid yaml`), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewImportCmd()
		_ = cmd.Flags().Set("config", configPath)
		if _, err := buildConfig(cmd, []string{"https://open.spotify.com/album/abc"}); err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})

	t.Run("builds config with output file", func(t *testing.T) {
		cmd := NewImportCmd()
		_ = cmd.Flags().Set("output", "/tmp/report.json")
		cfg, err := buildConfig(cmd, []string{"https://open.spotify.com/album/abc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ReportFile != "/tmp/report.json" {
			t.Errorf("expected ReportFile '/tmp/report.json', got %q", cfg.ReportFile)
		}
	})
}

// TestBuildReports tests target normalization and history-based skipping.
func TestBuildReports(t *testing.T) {
	ctx := context.Background()
	logger := log.NewSecureLogger(os.Stderr, false)

	openDB := func(t *testing.T) *database.ImportDB {
		t.Helper()
		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		return db
	}

	t.Run("normalizes and deduplicates targets", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Targets = []string{
			"https://open.spotify.com/album/abc?si=tracking",
			"open.spotify.com/album/abc",
			"https://www.deezer.com/album/2",
		}

		reports, err := buildReports(ctx, cfg, openDB(t), logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(reports) != 2 {
			t.Fatalf("expected 2 reports after deduplication, got %d", len(reports))
		}
		if reports[0].AlbumURL != "https://open.spotify.com/album/abc" {
			t.Errorf("unexpected normalized URL: %q", reports[0].AlbumURL)
		}
		if reports[0].Provider != "spotify" {
			t.Errorf("expected provider spotify, got %q", reports[0].Provider)
		}
		if reports[1].Provider != "deezer" {
			t.Errorf("expected provider deezer, got %q", reports[1].Provider)
		}
	})

	t.Run("returns error for unsupported URL", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Targets = []string{"https://example.com/album/1"}

		if _, err := buildReports(ctx, cfg, openDB(t), logger); err == nil {
			t.Fatal("expected error for unsupported provider")
		}
	})

	t.Run("marks already-imported URLs skipped", func(t *testing.T) {
		db := openDB(t)

		prev := model.NewImportReport("https://open.spotify.com/album/done", "spotify")
		prev.Finish(model.StatusImported)
		if err := db.SaveImport(ctx, prev); err != nil {
			t.Fatalf("failed to save import: %v", err)
		}

		cfg := config.NewConfig()
		cfg.Targets = []string{"https://open.spotify.com/album/done"}

		reports, err := buildReports(ctx, cfg, db, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 1 {
			t.Fatalf("expected 1 report, got %d", len(reports))
		}
		if reports[0].Status != model.StatusSkipped {
			t.Errorf("expected status skipped, got %v", reports[0].Status)
		}
	})

	t.Run("force re-imports recorded URLs", func(t *testing.T) {
		db := openDB(t)

		prev := model.NewImportReport("https://open.spotify.com/album/done", "spotify")
		prev.Finish(model.StatusImported)
		if err := db.SaveImport(ctx, prev); err != nil {
			t.Fatalf("failed to save import: %v", err)
		}

		cfg := config.NewConfig()
		cfg.Force = true
		cfg.Targets = []string{"https://open.spotify.com/album/done"}

		reports, err := buildReports(ctx, cfg, db, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reports[0].Status != model.StatusPending {
			t.Errorf("expected status pending with --force, got %v", reports[0].Status)
		}
	})

	t.Run("failed attempts do not cause skipping", func(t *testing.T) {
		db := openDB(t)

		prev := model.NewImportReport("https://open.spotify.com/album/flaky", "spotify")
		prev.Fail(errors.New("edit was not accepted"))
		if err := db.SaveImport(ctx, prev); err != nil {
			t.Fatalf("failed to save import: %v", err)
		}

		cfg := config.NewConfig()
		cfg.Targets = []string{"https://open.spotify.com/album/flaky"}

		reports, err := buildReports(ctx, cfg, db, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reports[0].Status != model.StatusPending {
			t.Errorf("expected failed URL to be retried, got %v", reports[0].Status)
		}
	})
}

// TestOutputReport tests report output destinations and formats.
func TestOutputReport(t *testing.T) {
	session := model.NewSessionReport()
	r := model.NewImportReport("https://open.spotify.com/album/abc", "spotify")
	r.Finish(model.StatusImported)
	session.Add(r)

	t.Run("writes report to file with 0600 permissions", func(t *testing.T) {
		tmpDir := t.TempDir()
		reportPath := filepath.Join(tmpDir, "sub", "report.json")

		cfg := config.NewConfig()
		cfg.JSONReport = true
		cfg.ReportFile = reportPath

		if err := outputReport(cfg, session); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := os.Stat(reportPath)
		if err != nil {
			t.Fatalf("expected report file to exist: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}

		content, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if len(content) == 0 {
			t.Error("expected non-empty report")
		}
	})

	t.Run("writes markdown report", func(t *testing.T) {
		tmpDir := t.TempDir()
		reportPath := filepath.Join(tmpDir, "report.md")

		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = reportPath

		if err := outputReport(cfg, session); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if len(content) == 0 {
			t.Error("expected non-empty markdown report")
		}
	})
}
