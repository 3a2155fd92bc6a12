package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/harmonize-mb/harmonize/internal/browser"
	"github.com/harmonize-mb/harmonize/internal/model"
)

// Runner processes a list of albums through per-album pipelines and
// collects the session report.
//
// Design decision: Albums run sequentially, not concurrently. The whole
// flow shares one browser window and one human; parallel imports would
// interleave their review pauses into nonsense. The concurrency in this
// tool lives inside the cover art step's downloads instead.
type Runner struct {
	// pipelineFactory creates a fresh pipeline per album. A factory
	// because step configuration varies by provider.
	pipelineFactory func(report *model.ImportReport) *Pipeline

	// harmony is the shared tab albums are submitted on.
	harmony *browser.Tab

	// closeTabs closes each album's tabs once it is done.
	closeTabs bool

	// callback, if set, runs after each album settles. Used by the CLI
	// to persist history as the run progresses rather than at the end.
	callback func(report *model.ImportReport)

	// logger is used for run-level logging.
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets a custom logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithCloseTabs closes each album's tabs after processing.
func WithCloseTabs(close bool) RunnerOption {
	return func(r *Runner) {
		r.closeTabs = close
	}
}

// WithAlbumCallback runs the callback after each album settles, before
// the next one starts.
func WithAlbumCallback(callback func(report *model.ImportReport)) RunnerOption {
	return func(r *Runner) {
		r.callback = callback
	}
}

// NewRunner creates a Runner.
//
// The pipelineFactory is called for each album to create a fresh
// pipeline instance, so per-album state never leaks between imports.
func NewRunner(harmony *browser.Tab, pipelineFactory func(report *model.ImportReport) *Pipeline, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipelineFactory: pipelineFactory,
		harmony:         harmony,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Run processes the given album reports in order and returns the
// session report. A user abort or context cancellation stops the run;
// the albums processed so far keep their results, and the remaining
// reports are marked skipped.
func (r *Runner) Run(ctx context.Context, reports []*model.ImportReport) (*model.SessionReport, error) {
	r.logger.Info("starting import run", "total_albums", len(reports))
	startTime := time.Now()

	session := model.NewSessionReport()
	var runErr error

	for i, report := range reports {
		if runErr != nil {
			report.Status = model.StatusSkipped
			session.Add(report)
			continue
		}

		select {
		case <-ctx.Done():
			report.Status = model.StatusSkipped
			session.Add(report)
			runErr = ctx.Err()
			continue
		default:
		}

		r.logger.Info("importing album",
			"album", report.AlbumURL,
			"provider", report.Provider,
			"index", i+1,
			"total", len(reports),
		)

		job := NewJob(report, r.harmony)
		err := r.pipelineFactory(report).Execute(ctx, job)

		switch {
		case err == nil:
			report.Finish(model.StatusImported)
		case errors.Is(err, browser.ErrAborted), errors.Is(err, context.Canceled):
			report.Fail(err)
			runErr = err
		default:
			// The album failed, the run goes on. The failure is in the
			// report; the next album deserves its chance.
			report.Fail(err)
		}

		if r.closeTabs {
			job.CloseTabs()
		}

		session.Add(report)
		if r.callback != nil {
			r.callback(report)
		}

		r.logger.Info("album settled",
			"album", report.AlbumURL,
			"status", report.Status,
			"duration", report.Duration(),
		)
	}

	session.DateFinished = time.Now()
	r.logger.Info("import run complete",
		"total_albums", len(reports),
		"imported", session.Imported(),
		"failed", session.Failed(),
		"elapsed", time.Since(startTime),
	)

	return session, runErr
}
