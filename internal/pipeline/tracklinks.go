package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harmonize-mb/harmonize/internal/browser"
	"github.com/harmonize-mb/harmonize/internal/config"
)

// Track link selectors.
var (
	selTrackLinks     = browser.LinkByPartialText("Link external IDs")
	selTrackLinkEnter = browser.ButtonByText("submit", "Enter edit")
	selTrackLinkDone  = browser.CSS("div.banner")
)

// TrackLinksStep enters the per-track external ID edits Harmony
// prepares, one seeded recording edit per track.
//
// Design decision: Each link is handled independently and failures are
// recorded per link rather than aborting, so a single broken track does
// not cost the edits of the other eleven.
type TrackLinksStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// TrackLinksStepOption configures a TrackLinksStep.
type TrackLinksStepOption func(*TrackLinksStep)

// WithTrackLinksLogger sets a custom logger for the track links step.
func WithTrackLinksLogger(logger *slog.Logger) TrackLinksStepOption {
	return func(s *TrackLinksStep) {
		s.logger = logger
	}
}

// NewTrackLinksStep creates a track links step.
func NewTrackLinksStep(_ *config.Config, opts ...TrackLinksStepOption) *TrackLinksStep {
	s := &TrackLinksStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *TrackLinksStep) Name() string {
	return "track_links"
}

// Do enters every "Link external IDs" edit on the Harmony page.
func (s *TrackLinksStep) Do(ctx context.Context, job *Job) error {
	report := job.Report

	links, err := job.Harmony.Nodes(selTrackLinks)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		s.logger.Debug("no track link edits offered", "album", report.AlbumURL)
		return nil
	}

	s.logger.Info("entering track link edits",
		"album", report.AlbumURL,
		"count", len(links),
	)

	for i, link := range links {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.enterOne(job, link); err != nil {
			report.AddStepError(s.Name(), fmt.Errorf("track %d: %w", i+1, err))
			continue
		}
		report.TrackLinksSubmitted++
	}

	return nil
}

// enterOne opens one seeded recording edit in its own tab and enters it.
func (s *TrackLinksStep) enterOne(job *Job, link *browser.Node) error {
	tab, err := job.Harmony.OpenNodeInNewTab(link)
	if err != nil {
		return err
	}
	defer func() { _ = tab.Close() }()

	if err := tab.Click(selTrackLinkEnter); err != nil {
		return err
	}
	return tab.Wait(selTrackLinkDone)
}
