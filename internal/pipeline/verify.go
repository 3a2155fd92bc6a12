package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/harmonize-mb/harmonize/internal/config"
	"github.com/harmonize-mb/harmonize/internal/musicbrainz"
)

// replicationGrace is how long to wait before retrying a lookup that
// 404s right after the edit was entered. Fresh releases take a few
// seconds to reach the API.
const replicationGrace = 5 * time.Second

// VerifyStep confirms the import through the MusicBrainz web service
// and fills the report's release metadata.
//
// Design decision: Verification goes through the API rather than
// scraping the release page because the page is already open in a
// logged-in browser session; an independent read through the public API
// is what actually proves the release exists for everyone else.
type VerifyStep struct {
	// client is the MusicBrainz web service client.
	client *musicbrainz.Client

	// useTestServer skips the step; the web service client only talks
	// to the production database.
	useTestServer bool

	// logger for structured logging.
	logger *slog.Logger
}

// VerifyStepOption configures a VerifyStep.
type VerifyStepOption func(*VerifyStep)

// WithVerifyLogger sets a custom logger for the verify step.
func WithVerifyLogger(logger *slog.Logger) VerifyStepOption {
	return func(s *VerifyStep) {
		s.logger = logger
	}
}

// NewVerifyStep creates a verification step from the session
// configuration and a shared web service client.
func NewVerifyStep(cfg *config.Config, client *musicbrainz.Client, opts ...VerifyStepOption) *VerifyStep {
	s := &VerifyStep{
		client:        client,
		useTestServer: cfg.UseTestServer,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *VerifyStep) Name() string {
	return "verify"
}

// Do looks the release up through the web service. Failure is recorded
// in the report but never fails the import; the edit already went in.
func (s *VerifyStep) Do(ctx context.Context, job *Job) error {
	report := job.Report

	if s.useTestServer || s.client == nil {
		s.logger.Debug("skipping verification on test server")
		return nil
	}
	if report.ReleaseMBID == "" {
		return nil
	}

	release, err := s.client.LookupRelease(ctx, report.ReleaseMBID)
	if err != nil {
		// One retry covers replication lag after a fresh edit.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(replicationGrace):
		}
		release, err = s.client.LookupRelease(ctx, report.ReleaseMBID)
	}
	if err != nil {
		report.AddStepError(s.Name(), err)
		return nil
	}

	report.ReleaseTitle = release.Title
	report.ReleaseArtist = release.Artist
	report.TrackCount = release.TrackCount
	s.logger.Info("release verified",
		"mbid", release.MBID,
		"title", release.Title,
		"artist", release.Artist,
		"tracks", release.TrackCount,
	)
	return nil
}
