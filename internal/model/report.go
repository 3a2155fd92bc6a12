package model

import (
	"time"

	"go.uploadedlobster.com/mbtypes"
)

// ImportReport is the main result structure for one album import.
// It accumulates state as the pipeline steps run and is what the report
// writers and the history database consume afterwards.
//
// Design decision: We use a single flat struct rather than per-step
// result types to simplify serialization and database storage, matching
// how the rest of the tool passes one report through the whole pipeline.
type ImportReport struct {
	// === Input ===

	// AlbumURL is the streaming-service URL being imported.
	AlbumURL string `json:"album_url"`

	// Provider is the detected streaming service (e.g. "spotify", "deezer").
	Provider string `json:"provider"`

	// DateStarted is when processing of this album began.
	DateStarted time.Time `json:"date_started"`

	// DateFinished is when processing of this album ended.
	DateFinished time.Time `json:"date_finished,omitzero"`

	// === Outcome ===

	// Status is the final outcome for this album.
	Status Status `json:"status"`

	// ReleaseMBID is the MusicBrainz release ID, either newly created or
	// the one Harmony reported as already linked.
	ReleaseMBID mbtypes.MBID `json:"release_mbid,omitempty"`

	// ReleaseTitle and ReleaseArtist are filled in by the verification
	// step from the MusicBrainz web service.
	ReleaseTitle  string `json:"release_title,omitempty"`
	ReleaseArtist string `json:"release_artist,omitempty"`

	// TrackCount is the number of tracks on the verified release.
	TrackCount int `json:"track_count,omitempty"`

	// === Step details ===

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// StepErrors records non-fatal step failures (e.g. ISRC submission
	// timed out) that did not abort the import.
	StepErrors []StepError `json:"step_errors,omitempty"`

	// LabelsFixed is the number of release-label entries the editor
	// error recovery matched automatically.
	LabelsFixed int `json:"labels_fixed,omitempty"`

	// LabelsRemoved is the number of release-label entries removed
	// because no matching label was found.
	LabelsRemoved int `json:"labels_removed,omitempty"`

	// ISRCsSubmitted is true if the MagicISRC submission succeeded.
	ISRCsSubmitted bool `json:"isrcs_submitted"`

	// TrackLinksSubmitted is the number of per-track external ID edits
	// entered.
	TrackLinksSubmitted int `json:"track_links_submitted"`

	// CoverArt describes the uploaded cover image, if any.
	CoverArt *CoverArtInfo `json:"cover_art,omitempty"`

	// === Failure information ===

	// Error holds the fatal pipeline error, if any.
	// Excluded from JSON; ErrorMessage carries the serializable form.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// Cancelled is true if the run was interrupted (context cancelled)
	// while this album was being processed.
	Cancelled bool `json:"cancelled,omitempty"`
}

// CoverArtInfo describes the cover image selected and uploaded for a
// release.
type CoverArtInfo struct {
	// SourceURL is where the image was downloaded from.
	SourceURL string `json:"source_url"`

	// Width and Height are the decoded pixel dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Bytes is the size of the encoded image that was uploaded.
	Bytes int `json:"bytes"`

	// LocalPath is where the image was saved before upload.
	LocalPath string `json:"local_path,omitempty"`

	// SkippedExisting is true if the release already had cover art and
	// the upload was skipped.
	SkippedExisting bool `json:"skipped_existing,omitempty"`

	// Converted is true if the image was transcoded (e.g. WebP to JPEG)
	// before upload.
	Converted bool `json:"converted,omitempty"`
}

// StepError records a non-fatal failure inside a named pipeline step.
type StepError struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// NewImportReport creates a report for the given album URL with the
// start time set to now and status pending.
func NewImportReport(albumURL, provider string) *ImportReport {
	return &ImportReport{
		AlbumURL:    albumURL,
		Provider:    provider,
		DateStarted: time.Now(),
		Status:      StatusPending,
	}
}

// Finish marks the report as finished now with the given status.
// If the status is already terminal (e.g. a step set already-linked),
// the existing status is kept.
func (r *ImportReport) Finish(status Status) {
	r.DateFinished = time.Now()
	if !r.Status.Terminal() {
		r.Status = status
	}
}

// Fail records a fatal error and marks the report failed.
func (r *ImportReport) Fail(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	r.Status = StatusFailed
	r.DateFinished = time.Now()
}

// AddStepError records a non-fatal failure for the named step.
func (r *ImportReport) AddStepError(step string, err error) {
	if err == nil {
		return
	}
	r.StepErrors = append(r.StepErrors, StepError{Step: step, Message: err.Error()})
}

// Duration returns how long processing took, or the elapsed time so far
// if the report is not finished yet.
func (r *ImportReport) Duration() time.Duration {
	if r.DateFinished.IsZero() {
		return time.Since(r.DateStarted)
	}
	return r.DateFinished.Sub(r.DateStarted)
}

// SessionReport aggregates the per-album reports of one CLI invocation.
type SessionReport struct {
	// DateStarted is when the session began.
	DateStarted time.Time `json:"date_started"`

	// DateFinished is when the session ended.
	DateFinished time.Time `json:"date_finished,omitzero"`

	// Albums holds one report per processed URL, in input order.
	Albums []*ImportReport `json:"albums"`
}

// NewSessionReport creates an empty session report started now.
func NewSessionReport() *SessionReport {
	return &SessionReport{DateStarted: time.Now()}
}

// Add appends an album report to the session.
func (s *SessionReport) Add(r *ImportReport) {
	s.Albums = append(s.Albums, r)
}

// Counts returns the number of albums per terminal status.
func (s *SessionReport) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, a := range s.Albums {
		counts[a.Status]++
	}
	return counts
}

// Imported returns how many albums were newly imported.
func (s *SessionReport) Imported() int { return s.Counts()[StatusImported] }

// Failed returns how many albums failed.
func (s *SessionReport) Failed() int { return s.Counts()[StatusFailed] }
