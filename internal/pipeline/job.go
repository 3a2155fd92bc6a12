package pipeline

import (
	"github.com/harmonize-mb/harmonize/internal/browser"
	"github.com/harmonize-mb/harmonize/internal/model"
)

// Job is the shared state of one album import. The submit step works on
// the Harmony tab; the release step opens the MusicBrainz tab that the
// later steps reuse.
type Job struct {
	// Report accumulates the outcome of this import.
	Report *model.ImportReport

	// Harmony is the tab showing the Harmony release page for this
	// album. Set before the pipeline runs.
	Harmony *browser.Tab

	// Release is the tab showing the MusicBrainz release, opened by the
	// release step. Nil until then, and nil for already-linked albums.
	Release *browser.Tab
}

// NewJob creates a job for the given report on the given Harmony tab.
func NewJob(report *model.ImportReport, harmony *browser.Tab) *Job {
	return &Job{Report: report, Harmony: harmony}
}

// CloseTabs closes the per-album tabs the pipeline opened. The Harmony
// tab is left alone when it is the session's root tab.
func (j *Job) CloseTabs() {
	if j.Release != nil {
		_ = j.Release.Close()
		j.Release = nil
	}
}
