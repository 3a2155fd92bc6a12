package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harmonize-mb/harmonize/internal/browser"
	"github.com/harmonize-mb/harmonize/internal/clipboard"
	"github.com/harmonize-mb/harmonize/internal/config"
	"github.com/harmonize-mb/harmonize/internal/model"
	"github.com/harmonize-mb/harmonize/internal/musicbrainz"
	"github.com/harmonize-mb/harmonize/internal/prompt"
)

// Harmony page selectors.
var (
	selHarmonyURLInput    = browser.CSS("input#url-input")
	selHarmonyMBCheckbox  = browser.CSS("input#musicbrainz-input")
	selHarmonyLookup      = browser.CSS("form#lookup-form")
	selHarmonyImportInput = browser.SubmitInputByValue("Import into MusicBrainz")
)

// SubmitStep submits the album URL to Harmony and waits for the release
// actions to render. If Harmony reports the album as already linked to
// a MusicBrainz release, the step settles the import as already-linked
// and the pipeline stops.
//
// Design decision: Submission is a separate step because its outcome
// decides whether the rest of the pipeline runs at all, and because the
// Harmony lookup is the one place where provider-specific extra waits
// apply.
type SubmitStep struct {
	// useTestServer rewrites Harmony's MusicBrainz links to the test
	// server before anything is clicked.
	useTestServer bool

	// pauseOnFound pauses for the user when the album is already linked.
	pauseOnFound bool

	// copyMBID copies the linked release MBID to the clipboard.
	copyMBID bool

	// extraWait is an additional provider-specific delay before the
	// release actions are expected. Some providers take Harmony longer
	// to resolve.
	extraWait time.Duration

	// lookupTimeout bounds the wait for Harmony's lookup to finish.
	lookupTimeout time.Duration

	// prompter handles the already-linked pause.
	prompter prompt.Prompter

	// logger for structured logging.
	logger *slog.Logger
}

// SubmitStepOption configures a SubmitStep.
type SubmitStepOption func(*SubmitStep)

// WithSubmitExtraWait adds a provider-specific delay before waiting for
// the release actions.
func WithSubmitExtraWait(d time.Duration) SubmitStepOption {
	return func(s *SubmitStep) {
		s.extraWait = d
	}
}

// WithSubmitLogger sets a custom logger for the submit step.
func WithSubmitLogger(logger *slog.Logger) SubmitStepOption {
	return func(s *SubmitStep) {
		s.logger = logger
	}
}

// NewSubmitStep creates a submit step from the session configuration.
func NewSubmitStep(cfg *config.Config, prompter prompt.Prompter, opts ...SubmitStepOption) *SubmitStep {
	s := &SubmitStep{
		useTestServer: cfg.UseTestServer,
		pauseOnFound:  cfg.PauseOnFoundRelease,
		copyMBID:      cfg.CopyMBIDToClipboard,
		lookupTimeout: cfg.EditTimeout,
		prompter:      prompter,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SubmitStep) Name() string {
	return "submit"
}

// Do submits the album URL to Harmony.
func (s *SubmitStep) Do(ctx context.Context, job *Job) error {
	tab := job.Harmony
	report := job.Report

	if err := tab.Navigate(config.HarmonyBaseURL); err != nil {
		return err
	}

	// Tick the MusicBrainz checkbox so Harmony includes its release
	// lookup, then submit the album URL.
	if err := tab.Click(selHarmonyMBCheckbox); err != nil {
		return err
	}
	if err := tab.Fill(selHarmonyURLInput, report.AlbumURL); err != nil {
		return err
	}
	if err := tab.Submit(selHarmonyLookup); err != nil {
		return err
	}

	if s.extraWait > 0 {
		s.logger.Debug("provider extra wait", "provider", report.Provider, "wait", s.extraWait)
		if err := tab.Sleep(s.extraWait); err != nil {
			return err
		}
	}

	// The import form renders once Harmony has resolved the album on
	// every provider it knows, which can take a while.
	if err := tab.WaitVisible(selHarmonyImportInput, s.lookupTimeout); err != nil {
		return fmt.Errorf("harmony lookup did not finish: %w", err)
	}

	if s.useTestServer {
		if err := tab.Evaluate(musicbrainz.RewriteToTestServer, nil); err != nil {
			return fmt.Errorf("failed to rewrite links to test server: %w", err)
		}
		s.logger.Info("rewrote MusicBrainz links to test server")
	}

	body, err := tab.BodyText()
	if err != nil {
		return err
	}

	if strings.Contains(body, musicbrainz.AlreadyLinkedMarker) {
		return s.handleAlreadyLinked(report, body)
	}

	return nil
}

// handleAlreadyLinked settles the import for an album Harmony already
// knows the MusicBrainz release of.
func (s *SubmitStep) handleAlreadyLinked(report *model.ImportReport, body string) error {
	mbid, err := musicbrainz.ReleaseMBIDFromText(body)
	if err != nil {
		// The marker without an MBID means the page changed under us.
		return fmt.Errorf("album reported as linked but %w", err)
	}

	report.ReleaseMBID = mbid
	report.Status = model.StatusAlreadyLinked
	s.logger.Info("album already linked to a release",
		"album", report.AlbumURL,
		"mbid", mbid,
	)

	if s.copyMBID {
		if err := clipboard.Copy(string(mbid)); err != nil {
			report.AddStepError(s.Name(), err)
		}
	}

	if s.pauseOnFound && s.prompter != nil {
		msg := fmt.Sprintf("Album is already linked to release %s. Inspect the page, then continue.", mbid)
		if err := s.prompter.Pause(msg); err != nil {
			return err
		}
	}

	return nil
}
