package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The wait defaults mirror the behaviour the tool had before it was
// configurable: short waits for elements that should already be on the
// page, long waits for MusicBrainz edits that queue server-side.
const (
	// HarmonyBaseURL is the Harmony web tool used to seed the
	// MusicBrainz release editor from streaming-service metadata.
	HarmonyBaseURL = "https://harmony.pulsewidth.org.uk/"

	// MusicBrainzHost is the production MusicBrainz host.
	MusicBrainzHost = "musicbrainz.org"

	// TestMusicBrainzHost is the sandbox host used with --test-server.
	// Edits there are periodically wiped, which makes it safe for
	// trying out the tool.
	TestMusicBrainzHost = "test.musicbrainz.org"

	// DefaultWaitTimeout is how long to wait for a page element before
	// asking the user whether to retry. Pages are usually interactive
	// within a couple of seconds; 10s absorbs slow loads without
	// stalling on genuinely missing elements.
	DefaultWaitTimeout = 10 * time.Second

	// DefaultEditTimeout is how long to wait for MusicBrainz to accept
	// an edit submission. Release edits with many tracks can take well
	// over a minute on the server side.
	DefaultEditTimeout = 120 * time.Second

	// DefaultCoverFetchTimeout bounds a single cover-image download.
	DefaultCoverFetchTimeout = 20 * time.Second

	// DefaultCoverFetchConcurrency bounds parallel candidate downloads.
	// Cover sources are large CDNs; a small limit is about local
	// bandwidth, not politeness.
	DefaultCoverFetchConcurrency = 4

	// DefaultUserAgent identifies harmonize in direct HTTP requests
	// (cover downloads, MusicBrainz web service lookups).
	DefaultUserAgent = "harmonize/1.0 (+https://github.com/harmonize-mb/harmonize)"

	// AppName is the application name used for XDG directory paths.
	AppName = "harmonize"
)

// Config holds all options for an import session.
// It is populated from CLI flags, the YAML config file, and environment
// credentials, then passed through the application by value reference
// rather than global state.
//
// Design decision: a single flat struct, as the number of options is
// manageable and nesting would add indirection without benefit.
type Config struct {
	// Targets is the list of normalized album URLs to import.
	Targets []string

	// ReviewBeforePublish pauses for a manual review of the seeded
	// release editor before the edit is entered. On by default; the
	// whole point of a human-in-the-loop importer is that unattended
	// publishing is opt-in.
	ReviewBeforePublish bool

	// PauseOnFoundRelease pauses when Harmony reports the album as
	// already linked to a MusicBrainz release.
	PauseOnFoundRelease bool

	// CloseTabsAfterProcessing closes the per-album processing tab
	// once the album is done instead of leaving it open for inspection.
	CloseTabsAfterProcessing bool

	// CopyMBIDToClipboard copies each release MBID to the clipboard.
	CopyMBIDToClipboard bool

	// ManualLabelSelection pauses for the user instead of removing a
	// release label when the autocomplete search finds no exact match.
	ManualLabelSelection bool

	// UseTestServer redirects all MusicBrainz interaction to the test
	// server. ISRC submission and release verification are skipped in
	// this mode because MagicISRC and the web service only talk to the
	// production database.
	UseTestServer bool

	// SkipISRC disables the MagicISRC submission step.
	SkipISRC bool

	// SkipCoverArt disables the cover art upload step.
	SkipCoverArt bool

	// Force re-imports URLs that the history database already records
	// as imported.
	Force bool

	// Headless runs the browser without a visible window. Only useful
	// together with stored credentials and no review pauses; the
	// default is a visible browser because most runs need a human.
	Headless bool

	// ProfileDir is the browser user-data directory. A persistent
	// profile keeps MusicBrainz and MagicISRC logins across runs.
	// Defaults to a directory under the XDG data dir.
	ProfileDir string

	// WaitTimeout is the per-element wait before prompting the user.
	WaitTimeout time.Duration

	// EditTimeout is the wait for MusicBrainz edit submissions.
	EditTimeout time.Duration

	// UserAgent is sent with direct HTTP requests.
	UserAgent string

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// ConfigFilePath is the YAML config file path. If empty, the tool
	// searches for .harmonize in the current directory and then in the
	// user's home directory.
	ConfigFilePath string

	// File holds settings loaded from the YAML config file.
	File *File

	// Credentials holds the MusicBrainz login loaded from the
	// environment. Never loaded from the YAML file.
	Credentials Credentials

	// JSONReport and MarkdownReport select the session report format.
	// Mutually exclusive; the default is a human-readable summary.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the session report to a file instead of stdout.
	ReportFile string

	// DBDir is the directory holding the import history database.
	DBDir string
}

// Credentials is a MusicBrainz username/password pair sourced from the
// environment (MB_USERNAME / MB_PASSWORD, optionally via a .env file).
type Credentials struct {
	Username string
	Password string
}

// Present reports whether both username and password are set.
func (c Credentials) Present() bool {
	return c.Username != "" && c.Password != ""
}

// NewConfig creates a Config with default values.
//
// Design decision: a constructor instead of zero values because most
// defaults are non-zero, and the constructor doubles as documentation
// of what the defaults are.
func NewConfig() *Config {
	return &Config{
		ReviewBeforePublish: true,
		WaitTimeout:         DefaultWaitTimeout,
		EditTimeout:         DefaultEditTimeout,
		UserAgent:           DefaultUserAgent,
		ProfileDir:          DefaultProfileDir(),
		DBDir:               XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for harmonize.
// On Linux: ~/.local/share/harmonize
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for harmonize.
// Downloaded cover images are kept here.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// DefaultProfileDir returns the default browser profile directory.
// Keeping the profile under the data dir preserves logins across runs.
func DefaultProfileDir() string {
	return filepath.Join(XDGDataDir(), "profile")
}

// CoverCacheDir returns the directory where selected cover images are
// saved before upload.
func CoverCacheDir() string {
	return filepath.Join(XDGCacheDir(), "covers")
}

// MusicBrainzHostname returns the MusicBrainz host for this config,
// honouring UseTestServer.
func (c *Config) MusicBrainzHostname() string {
	if c.UseTestServer {
		return TestMusicBrainzHost
	}
	return MusicBrainzHost
}

// Validate checks the configuration and returns the first problem found.
// Called once after CLI parsing, before the browser starts, so that
// errors surface before any page is touched.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTargets
	}
	if c.WaitTimeout <= 0 {
		return ErrInvalidWaitTimeout
	}
	if c.EditTimeout <= 0 {
		return ErrInvalidEditTimeout
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Headless && c.ReviewBeforePublish {
		return ErrHeadlessNeedsNoReview
	}
	return nil
}
