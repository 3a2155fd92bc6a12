package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harmonize-mb/harmonize/internal/browser"
	"github.com/harmonize-mb/harmonize/internal/config"
)

// MagicISRC page selectors.
var (
	selMagicISRCLink   = browser.LinkByPartialText("Open with MagicISRC")
	selISRCSubmit      = browser.CSS("button#check-isrcs-submit")
	selISRCEditSubmit  = browser.CSS("button#edit-submit")
	// The login trigger is a plain button, not the form submit; the
	// confirmation reads "The ISRCs have been successfully submitted."
	selISRCLogin       = browser.ButtonByText("button", "Login to MusicBrainz")
	selISRCAllowAccess = browser.ButtonByText("submit", "Allow access")
	selISRCSuccess     = browser.XPath("//p[contains(normalize-space(.), 'successfully submitted')]")
)

// ISRCStep submits the album's ISRCs through MagicISRC, which Harmony
// links with the codes pre-filled.
//
// Design decision: Every failure in this step is recorded in the report
// and swallowed. ISRCs are an enrichment; a MagicISRC outage should not
// fail an import whose release edit already went in.
type ISRCStep struct {
	// useTestServer skips the step entirely. MagicISRC only talks to
	// the production database.
	useTestServer bool

	// editTimeout bounds the ISRC edit submission wait.
	editTimeout time.Duration

	// closeTab closes the MagicISRC tab when the step is done.
	closeTab bool

	// logger for structured logging.
	logger *slog.Logger
}

// ISRCStepOption configures an ISRCStep.
type ISRCStepOption func(*ISRCStep)

// WithISRCLogger sets a custom logger for the ISRC step.
func WithISRCLogger(logger *slog.Logger) ISRCStepOption {
	return func(s *ISRCStep) {
		s.logger = logger
	}
}

// NewISRCStep creates an ISRC submission step from the session
// configuration.
func NewISRCStep(cfg *config.Config, opts ...ISRCStepOption) *ISRCStep {
	s := &ISRCStep{
		useTestServer: cfg.UseTestServer,
		editTimeout:   cfg.EditTimeout,
		closeTab:      cfg.CloseTabsAfterProcessing,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ISRCStep) Name() string {
	return "isrc"
}

// Do submits the ISRCs through MagicISRC.
func (s *ISRCStep) Do(ctx context.Context, job *Job) error {
	report := job.Report

	if s.useTestServer {
		s.logger.Debug("skipping ISRC submission on test server")
		return nil
	}

	tab, err := job.Harmony.OpenInNewTab(selMagicISRCLink)
	if err != nil {
		report.AddStepError(s.Name(), fmt.Errorf("failed to open MagicISRC: %w", err))
		return nil
	}
	if s.closeTab {
		defer func() { _ = tab.Close() }()
	}

	if err := s.submit(ctx, tab); err != nil {
		report.AddStepError(s.Name(), err)
		return nil
	}

	report.ISRCsSubmitted = true
	s.logger.Info("ISRCs submitted", "album", report.AlbumURL)
	return nil
}

// submit drives the MagicISRC form: check the pre-filled codes, pass
// the MusicBrainz OAuth consent on first use, and enter the edit.
func (s *ISRCStep) submit(ctx context.Context, tab *browser.Tab) error {
	if err := tab.Wait(selISRCSubmit); err != nil {
		return fmt.Errorf("MagicISRC did not load: %w", err)
	}
	if err := tab.Click(selISRCSubmit); err != nil {
		return err
	}

	// First use of MagicISRC on this profile goes through OAuth; an
	// already-authorized profile skips straight to the edit. The consent
	// redirect leaves MagicISRC in a stale state, so the page is reloaded
	// and the pre-filled check re-run before submitting the edit.
	if nodes, err := tab.Nodes(selISRCLogin); err == nil && len(nodes) > 0 {
		if err := tab.Click(selISRCLogin); err != nil {
			return err
		}
		if err := tab.Click(selISRCAllowAccess); err != nil {
			return fmt.Errorf("OAuth consent failed: %w", err)
		}
		if err := tab.Reload(); err != nil {
			return fmt.Errorf("failed to reload MagicISRC after OAuth: %w", err)
		}
		if err := tab.Wait(selISRCSubmit); err != nil {
			return fmt.Errorf("MagicISRC did not reload: %w", err)
		}
		if err := tab.Click(selISRCSubmit); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := tab.Click(selISRCEditSubmit); err != nil {
		return err
	}
	if err := tab.WaitVisible(selISRCSuccess, s.editTimeout); err != nil {
		return fmt.Errorf("ISRC edit not confirmed: %w", err)
	}
	return nil
}
