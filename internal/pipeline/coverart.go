package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/harmonize-mb/harmonize/internal/browser"
	"github.com/harmonize-mb/harmonize/internal/config"
	"github.com/harmonize-mb/harmonize/internal/coverart"
	"github.com/harmonize-mb/harmonize/internal/model"
	"github.com/harmonize-mb/harmonize/internal/musicbrainz"
)

// Cover art selectors.
var (
	selCoverArtLink  = browser.LinkByText("Add cover art")
	selCoverArtCount = browser.XPath("//a[contains(@href, '/cover-art')]/bdi")
	selCoverFile     = browser.CSS("input[type='file']")
	selCoverFront    = browser.XPath("//li[label/span[normalize-space() = 'Front']]")
	selCoverEnter    = browser.ButtonByText("submit", "Enter edit")
	selCoverThanks   = browser.XPath("//p[contains(normalize-space(.), 'Thank you, your')]")
)

// CoverArtStep picks the largest cover image Harmony shows for the
// album, downloads it, and uploads it to the release as front cover.
// Releases that already have cover art are left alone.
//
// Design decision: Failures here are recorded and swallowed like the
// ISRC step's. Cover art can always be added later by hand; the release
// edit cannot be un-entered.
type CoverArtStep struct {
	// fetcher downloads the candidate images.
	fetcher *coverart.Fetcher

	// cacheDir is where the selected image is saved before upload.
	cacheDir string

	// editTimeout bounds the upload edit wait. Uploads move real bytes,
	// so this uses the edit timeout rather than the element one.
	editTimeout time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// CoverArtStepOption configures a CoverArtStep.
type CoverArtStepOption func(*CoverArtStep)

// WithCoverArtFetcher sets a custom fetcher, mainly for tests.
func WithCoverArtFetcher(f *coverart.Fetcher) CoverArtStepOption {
	return func(s *CoverArtStep) {
		s.fetcher = f
	}
}

// WithCoverArtLogger sets a custom logger for the cover art step.
func WithCoverArtLogger(logger *slog.Logger) CoverArtStepOption {
	return func(s *CoverArtStep) {
		s.logger = logger
	}
}

// NewCoverArtStep creates a cover art step from the session
// configuration.
func NewCoverArtStep(cfg *config.Config, opts ...CoverArtStepOption) *CoverArtStep {
	s := &CoverArtStep{
		fetcher: coverart.NewFetcher(
			coverart.WithUserAgent(cfg.UserAgent),
			coverart.WithConcurrency(config.DefaultCoverFetchConcurrency),
		),
		cacheDir:    config.CoverCacheDir(),
		editTimeout: cfg.EditTimeout,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CoverArtStep) Name() string {
	return "cover_art"
}

// Do selects, downloads, and uploads the cover image.
func (s *CoverArtStep) Do(ctx context.Context, job *Job) error {
	report := job.Report

	if job.Release == nil || report.ReleaseMBID == "" {
		s.logger.Debug("no release to attach cover art to", "album", report.AlbumURL)
		return nil
	}

	if done, err := s.hasExistingArt(job.Release); err != nil {
		report.AddStepError(s.Name(), err)
		return nil
	} else if done {
		report.CoverArt = &model.CoverArtInfo{SkippedExisting: true}
		s.logger.Info("release already has cover art, skipping upload",
			"mbid", report.ReleaseMBID)
		return nil
	}

	img, err := s.selectImage(ctx, job.Harmony)
	if err != nil {
		report.AddStepError(s.Name(), err)
		return nil
	}

	localPath, err := s.save(img)
	if err != nil {
		report.AddStepError(s.Name(), err)
		return nil
	}

	if err := s.upload(job.Release, localPath); err != nil {
		report.AddStepError(s.Name(), err)
		return nil
	}

	report.CoverArt = &model.CoverArtInfo{
		SourceURL: img.SourceURL,
		Width:     img.Width,
		Height:    img.Height,
		Bytes:     len(img.Data),
		LocalPath: localPath,
		Converted: img.Converted,
	}
	s.logger.Info("cover art uploaded",
		"mbid", report.ReleaseMBID,
		"source", img.SourceURL,
		"size", fmt.Sprintf("%dx%d", img.Width, img.Height),
	)
	return nil
}

// hasExistingArt reads the release sidebar's cover art count.
func (s *CoverArtStep) hasExistingArt(tab *browser.Tab) (bool, error) {
	nodes, err := tab.Nodes(selCoverArtCount)
	if err != nil {
		return false, err
	}
	if len(nodes) == 0 {
		return false, nil
	}

	text, err := tab.Text(selCoverArtCount)
	if err != nil {
		return false, err
	}
	count, ok := musicbrainz.CoverArtCount(text)
	return ok && count > 0, nil
}

// selectImage collects the cover candidates from the Harmony page and
// downloads the largest decodable one, transcoding formats the Cover
// Art Archive rejects.
func (s *CoverArtStep) selectImage(ctx context.Context, harmony *browser.Tab) (*coverart.Image, error) {
	html, err := harmony.OuterHTML()
	if err != nil {
		return nil, err
	}

	candidates, err := coverart.CandidateURLs(html)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.New("no cover images on the Harmony page")
	}
	s.logger.Debug("cover candidates found", "count", len(candidates))

	img, err := s.fetcher.FetchBest(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if err := coverart.EnsureUploadable(img); err != nil {
		return nil, err
	}
	return img, nil
}

// save writes the image to the cover cache so the browser has a file to
// upload and the user has a copy to inspect afterwards.
func (s *CoverArtStep) save(img *coverart.Image) (string, error) {
	if err := os.MkdirAll(s.cacheDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create cover cache: %w", err)
	}
	path := filepath.Join(s.cacheDir, coverart.FilenameFromURL(img.SourceURL, img.Format))
	if err := os.WriteFile(path, img.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save cover image: %w", err)
	}
	return path, nil
}

// upload drives the "Add cover art" page: attach the file, mark it as
// front cover, and enter the edit.
func (s *CoverArtStep) upload(release *browser.Tab, localPath string) error {
	tab, err := release.OpenInNewTab(selCoverArtLink)
	if err != nil {
		return fmt.Errorf("failed to open cover art page: %w", err)
	}
	defer func() { _ = tab.Close() }()

	if err := tab.SetFiles(selCoverFile, []string{localPath}); err != nil {
		return err
	}
	if err := tab.Click(selCoverFront); err != nil {
		return err
	}
	if err := tab.Click(selCoverEnter); err != nil {
		return err
	}
	if err := tab.WaitVisible(selCoverThanks, s.editTimeout); err != nil {
		return fmt.Errorf("upload not confirmed: %w", err)
	}
	return nil
}
