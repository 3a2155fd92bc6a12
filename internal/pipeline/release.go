package pipeline

import (
	"context"
	"errors"
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

// MusicBrainz release editor selectors.
var (
	selLoginUsername = browser.CSS("input#id-username")
	selLoginPassword = browser.CSS("input#id-password")
	selLoginRemember = browser.CSS("input#id-remember_me")
	selLoginForm     = browser.CSS("form#login-form")

	selEditNoteTab  = browser.LinkByText("Edit note")
	selEditNoteText = browser.CSS("textarea#edit-note-text")
	selErrorTabs    = browser.CSSAll("li.error-tab")
	selEnterEdit    = browser.ButtonByText("submit", "Enter edit")

	// The "Release Actions" heading renders once the edit went through
	// and the release page is up.
	selReleaseActions = browser.XPath("//h2[contains(normalize-space(.), 'Release Actions')]")

	// Release event label autocompletes, their search triggers, and the
	// per-event remove buttons, in document order.
	selLabelInputs  = browser.XPath("//fieldset[legend[contains(normalize-space(.), 'Release event')]]//span[contains(@class, 'autocomplete')]/input[contains(@class, 'name')]")
	selLabelRemoves = browser.XPath("//fieldset[legend[contains(normalize-space(.), 'Release event')]]//button[contains(@class, 'remove-release-label')]")

	selAutocompleteFirst = browser.CSS("ul.ui-autocomplete li.ui-menu-item")

	// The tab label reads "Release duplicates"; XPath text matching is
	// case-sensitive, so the label must appear verbatim.
	selDuplicatesTab = browser.XPath("//ul[contains(@class, 'tabs')]/li[a[normalize-space(text())='Release duplicates'] and not(@aria-disabled='true')]")

	// Harmony's seeding form lands on a relay page first; Continue posts
	// the seeded data into the release editor.
	selSeedContinue = browser.ButtonByText("submit", "Continue")
)

// ReleaseStep opens the seeded MusicBrainz release editor from Harmony,
// gets past login and duplicate warnings, repairs unresolved release
// labels, and enters the edit.
//
// Design decision: Everything between "click Import into MusicBrainz"
// and "the release page is up" is one step because the editor is one
// page: its sub-stages share the tab and there is no useful way to
// resume in the middle of it.
type ReleaseStep struct {
	// credentials is the MusicBrainz login. When absent the user is
	// asked to log in by hand.
	credentials config.Credentials

	// reviewBeforePublish pauses for a manual review before the edit is
	// entered.
	reviewBeforePublish bool

	// manualLabelSelection pauses for the user instead of removing a
	// release label when the autocomplete finds no exact match.
	manualLabelSelection bool

	// copyMBID copies the new release MBID to the clipboard.
	copyMBID bool

	// editTimeout bounds the wait for MusicBrainz to accept the edit.
	editTimeout time.Duration

	// prompter handles the review and manual-intervention pauses.
	prompter prompt.Prompter

	// logger for structured logging.
	logger *slog.Logger
}

// ReleaseStepOption configures a ReleaseStep.
type ReleaseStepOption func(*ReleaseStep)

// WithReleaseLogger sets a custom logger for the release step.
func WithReleaseLogger(logger *slog.Logger) ReleaseStepOption {
	return func(s *ReleaseStep) {
		s.logger = logger
	}
}

// NewReleaseStep creates a release step from the session configuration.
func NewReleaseStep(cfg *config.Config, prompter prompt.Prompter, opts ...ReleaseStepOption) *ReleaseStep {
	s := &ReleaseStep{
		credentials:          cfg.Credentials,
		reviewBeforePublish:  cfg.ReviewBeforePublish,
		manualLabelSelection: cfg.ManualLabelSelection,
		copyMBID:             cfg.CopyMBIDToClipboard,
		editTimeout:          cfg.EditTimeout,
		prompter:             prompter,
		logger:               slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReleaseStep) Name() string {
	return "release"
}

// Do seeds and enters the MusicBrainz release edit.
func (s *ReleaseStep) Do(ctx context.Context, job *Job) error {
	report := job.Report

	tab, err := job.Harmony.OpenInNewTab(selHarmonyImportInput)
	if err != nil {
		return fmt.Errorf("failed to open release editor: %w", err)
	}
	job.Release = tab

	if err := tab.Wait(selSeedContinue); err != nil {
		return fmt.Errorf("seed relay page did not load: %w", err)
	}
	if err := tab.Click(selSeedContinue); err != nil {
		return fmt.Errorf("failed to continue into the release editor: %w", err)
	}

	if err := s.loginIfNeeded(tab); err != nil {
		return err
	}

	// The edit note tab is the last thing the editor renders; once it
	// is up the seeded form is complete.
	if err := tab.Wait(selEditNoteTab); err != nil {
		return fmt.Errorf("release editor did not load: %w", err)
	}

	if err := s.checkDuplicates(tab); err != nil {
		return err
	}

	if err := s.resolveErrors(ctx, job); err != nil {
		return err
	}

	if note := editNoteFor(report.AlbumURL); note != "" {
		if err := tab.Fill(selEditNoteText, note); err != nil {
			// The note is a courtesy, not a requirement.
			report.AddStepError(s.Name(), err)
		}
	}

	if s.reviewBeforePublish && s.prompter != nil {
		if err := s.prompter.Pause("Review the seeded release in the editor, then continue to enter the edit."); err != nil {
			return err
		}
	}

	if err := tab.Click(selEnterEdit); err != nil {
		return fmt.Errorf("failed to enter edit: %w", err)
	}

	// Large releases queue server-side; this wait is the long one.
	if err := tab.WaitVisible(selReleaseActions, s.editTimeout); err != nil {
		if errors.Is(err, browser.ErrWaitSkipped) {
			s.logger.Warn("continuing without edit confirmation", "album", report.AlbumURL)
		} else {
			return fmt.Errorf("edit was not accepted: %w", err)
		}
	}

	loc, err := tab.Location()
	if err != nil {
		return err
	}
	mbid, err := musicbrainz.ReleaseMBIDFromURL(loc)
	if err != nil {
		return fmt.Errorf("no release page after entering edit: %w", err)
	}
	report.ReleaseMBID = mbid
	s.logger.Info("release edit entered", "album", report.AlbumURL, "mbid", mbid)

	if s.copyMBID {
		if err := clipboard.Copy(string(mbid)); err != nil {
			report.AddStepError(s.Name(), err)
		}
	}

	return nil
}

// loginIfNeeded handles the MusicBrainz login page when the editor
// redirects to it. With credentials in the environment the form is
// filled automatically; otherwise the user logs in by hand.
func (s *ReleaseStep) loginIfNeeded(tab *browser.Tab) error {
	nodes, err := tab.Nodes(selLoginUsername)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}

	if !s.credentials.Present() {
		if s.prompter == nil {
			return errors.New("MusicBrainz login required but no credentials and no prompt available")
		}
		return s.prompter.Pause("Log in to MusicBrainz in the browser, then continue.")
	}

	s.logger.Info("logging in to MusicBrainz", "username", s.credentials.Username)
	if err := tab.Fill(selLoginUsername, s.credentials.Username); err != nil {
		return err
	}
	if err := tab.Fill(selLoginPassword, s.credentials.Password); err != nil {
		return err
	}
	// Remember the session so the persistent profile skips this next run.
	if err := tab.Click(selLoginRemember); err != nil {
		s.logger.Debug("remember-me checkbox not clickable", "error", err)
	}
	if err := tab.Submit(selLoginForm); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}
	return nil
}

// checkDuplicates pauses for the user when the editor flags possible
// duplicate releases. Only a human can judge whether the duplicate is
// real.
func (s *ReleaseStep) checkDuplicates(tab *browser.Tab) error {
	nodes, err := tab.Nodes(selDuplicatesTab)
	if err != nil {
		return err
	}
	if len(nodes) == 0 || s.prompter == nil {
		return nil
	}
	return s.prompter.Pause("MusicBrainz flagged possible duplicate releases. Check the Release duplicates tab, then continue.")
}

// resolveErrors clears editor validation errors. The one class of error
// Harmony seeds routinely is a release label given by name but not
// resolved to a label entity; those are fixed through the autocomplete.
// Anything else is handed to the user.
func (s *ReleaseStep) resolveErrors(ctx context.Context, job *Job) error {
	tab := job.Release

	errorTabs, err := tab.Nodes(selErrorTabs)
	if err != nil {
		return err
	}
	if len(errorTabs) == 0 {
		return nil
	}

	body, err := tab.BodyText()
	if err != nil {
		return err
	}

	if strings.Contains(body, musicbrainz.MissingLabelMarker) {
		if err := s.fixLabels(ctx, job); err != nil {
			return err
		}
		// Re-check: the label fix may not have been the only error.
		errorTabs, err = tab.Nodes(selErrorTabs)
		if err != nil {
			return err
		}
		if len(errorTabs) == 0 {
			return nil
		}
	}

	if s.prompter == nil {
		return errors.New("release editor reports validation errors")
	}
	return s.prompter.Pause("The release editor reports validation errors it cannot fix automatically. Resolve them, then continue.")
}

// fixLabels resolves seeded-by-name release labels. For each label
// autocomplete with a value, the search popup is opened and the first
// suggestion taken when it folds equal to the seeded name; otherwise
// the label is removed from the event (or, with manual selection on,
// handed to the user).
func (s *ReleaseStep) fixLabels(ctx context.Context, job *Job) error {
	tab := job.Release
	report := job.Report

	inputs, err := tab.Nodes(selLabelInputs)
	if err != nil {
		return err
	}

	for i, node := range inputs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		seeded := node.AttributeValue("value")
		if strings.TrimSpace(seeded) == "" {
			continue
		}

		// Re-type the seeded name; the editor only searches on input
		// events, not on seeded values.
		input := indexed(selLabelInputs, i)
		if err := tab.Fill(input, ""); err != nil {
			return err
		}
		if err := tab.SendKeys(input, seeded); err != nil {
			return err
		}

		if err := tab.Wait(selAutocompleteFirst); err != nil {
			if errors.Is(err, browser.ErrWaitSkipped) {
				if rerr := s.removeLabel(tab, report, i, seeded); rerr != nil {
					return rerr
				}
				continue
			}
			return err
		}

		first, err := tab.Text(selAutocompleteFirst)
		if err != nil {
			return err
		}

		if musicbrainz.LabelsMatch(seeded, first) {
			if err := tab.Click(selAutocompleteFirst); err != nil {
				return err
			}
			report.LabelsFixed++
			s.logger.Info("release label resolved", "label", seeded)
			continue
		}

		if s.manualLabelSelection && s.prompter != nil {
			msg := fmt.Sprintf("No exact match for label %q (closest: %q). Pick one in the editor, then continue.", seeded, first)
			if err := s.prompter.Pause(msg); err != nil {
				return err
			}
			continue
		}

		if err := s.removeLabel(tab, report, i, seeded); err != nil {
			return err
		}
	}

	return nil
}

// removeLabel drops the i-th release event label.
func (s *ReleaseStep) removeLabel(tab *browser.Tab, report *model.ImportReport, i int, seeded string) error {
	if err := tab.Click(indexed(selLabelRemoves, i)); err != nil {
		return fmt.Errorf("failed to remove label %q: %w", seeded, err)
	}
	report.LabelsRemoved++
	s.logger.Warn("release label removed, no match found", "label", seeded)
	return nil
}

// indexed narrows an XPath selector to its i-th match (0-based).
func indexed(sel browser.Selector, i int) browser.Selector {
	return browser.XPath(fmt.Sprintf("(%s)[%d]", sel.Expr(), i+1))
}

// editNoteFor builds the edit note pointing reviewers at the source of
// the seeded data.
func editNoteFor(albumURL string) string {
	if albumURL == "" {
		return ""
	}
	return fmt.Sprintf("Imported from %s via Harmony (%s).", albumURL, strings.TrimRight(config.HarmonyBaseURL, "/"))
}
