package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/harmonize-mb/harmonize/internal/prompt"
)

// Session errors.
var (
	// ErrAborted is returned when the user chooses to abort after a
	// wait timeout. Callers stop processing the current album.
	ErrAborted = errors.New("aborted by user")

	// ErrWaitSkipped is returned when the user chooses to continue
	// past a wait timeout. Callers decide whether the missing element
	// is fatal for their step.
	ErrWaitSkipped = errors.New("wait skipped by user")
)

// Session owns one browser process and its root tab. All albums of a
// run share the session, which is what keeps MusicBrainz logins alive
// between albums.
type Session struct {
	allocCancel context.CancelFunc
	cancel      context.CancelFunc

	root *Tab

	prompter    prompt.Prompter
	logger      *slog.Logger
	waitTimeout time.Duration
}

// Options configures a Session.
type Options struct {
	// ProfileDir is the browser user-data directory. Created if
	// missing. Required; a throwaway profile would force a MusicBrainz
	// login for every run.
	ProfileDir string

	// Headless hides the browser window.
	Headless bool

	// WaitTimeout is the default per-element wait before the prompter
	// is consulted.
	WaitTimeout time.Duration

	// Prompter handles timeout decisions. If nil, timeouts are
	// returned as errors immediately.
	Prompter prompt.Prompter

	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewSession launches the browser and opens the root tab.
// The given context bounds the whole session; cancelling it (e.g. on
// SIGINT) tears the browser down.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.ProfileDir == "" {
		return nil, errors.New("browser profile directory is required")
	}
	if err := os.MkdirAll(opts.ProfileDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 10 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(opts.ProfileDir),
		chromedp.Flag("headless", opts.Headless),
		// The automation infobar shifts page layout mid-wait.
		chromedp.Flag("disable-infobars", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)

	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			opts.Logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// Run a no-op to start the browser process now, so startup errors
	// surface here instead of inside the first pipeline step.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	s := &Session{
		allocCancel: allocCancel,
		cancel:      tabCancel,
		prompter:    opts.Prompter,
		logger:      opts.Logger,
		waitTimeout: opts.WaitTimeout,
	}
	s.root = &Tab{session: s, ctx: tabCtx, cancel: tabCancel, root: true}

	return s, nil
}

// Root returns the session's root tab. It stays on Harmony between
// albums while per-album work happens in child tabs.
func (s *Session) Root() *Tab {
	return s.root
}

// Close shuts the browser down.
func (s *Session) Close() {
	s.cancel()
	s.allocCancel()
}
