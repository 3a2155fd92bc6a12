package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/harmonize-mb/harmonize/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables per-album step detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with per-album step details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the session report in human-readable format.
func (w *SimpleWriter) Write(session *model.SessionReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, session)
	w.writeAlbums(&sb, session)
	w.writeSummary(&sb, session)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the session header.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, session *model.SessionReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        HARMONIZE IMPORT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Started:  %s\n", session.DateStarted.Format("2006-01-02 15:04:05 MST")))
	if !session.DateFinished.IsZero() {
		sb.WriteString(fmt.Sprintf("Finished: %s\n", session.DateFinished.Format("2006-01-02 15:04:05 MST")))
	}
	sb.WriteString(fmt.Sprintf("Albums:   %d\n\n", len(session.Albums)))
}

// writeAlbums writes one block per processed album.
func (w *SimpleWriter) writeAlbums(sb *strings.Builder, session *model.SessionReport) {
	for _, album := range session.Albums {
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("[%s] %s\n", statusIndicator(album.Status), album.AlbumURL))

		if album.ReleaseMBID != "" {
			sb.WriteString(fmt.Sprintf("    Release:  https://musicbrainz.org/release/%s\n", album.ReleaseMBID))
		}
		if album.ReleaseTitle != "" {
			sb.WriteString(fmt.Sprintf("    Verified: %s — %s (%d tracks)\n",
				album.ReleaseArtist, album.ReleaseTitle, album.TrackCount))
		}
		if album.CoverArt != nil {
			w.writeCoverArt(sb, album.CoverArt)
		}
		if album.ISRCsSubmitted {
			sb.WriteString("    ISRCs:    submitted\n")
		}
		if album.TrackLinksSubmitted > 0 {
			sb.WriteString(fmt.Sprintf("    Tracks:   %d external ID edits entered\n", album.TrackLinksSubmitted))
		}
		if album.LabelsFixed > 0 || album.LabelsRemoved > 0 {
			sb.WriteString(fmt.Sprintf("    Labels:   %d fixed, %d removed\n",
				album.LabelsFixed, album.LabelsRemoved))
		}
		if album.ErrorMessage != "" {
			sb.WriteString(fmt.Sprintf("    Error:    %s\n", album.ErrorMessage))
		}
		for _, stepErr := range album.StepErrors {
			sb.WriteString(fmt.Sprintf("    Warning:  %s: %s\n", stepErr.Step, stepErr.Message))
		}
		if w.verbose && len(album.PerformedSteps) > 0 {
			sb.WriteString(fmt.Sprintf("    Steps:    %s\n", strings.Join(album.PerformedSteps, " > ")))
			sb.WriteString(fmt.Sprintf("    Duration: %s\n", album.Duration().Round(100*time.Millisecond)))
		}
	}
	sb.WriteString("\n")
}

// writeCoverArt writes the cover art line for one album.
func (w *SimpleWriter) writeCoverArt(sb *strings.Builder, info *model.CoverArtInfo) {
	if info.SkippedExisting {
		sb.WriteString("    Cover:    release already had art, upload skipped\n")
		return
	}
	converted := ""
	if info.Converted {
		converted = ", converted to JPEG"
	}
	sb.WriteString(fmt.Sprintf("    Cover:    %dx%d uploaded%s\n", info.Width, info.Height, converted))
}

// writeSummary writes the per-status totals.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, session *model.SessionReport) {
	counts := session.Counts()

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  IMPORTED:       %d\n", counts[model.StatusImported]))
	sb.WriteString(fmt.Sprintf("  ALREADY LINKED: %d\n", counts[model.StatusAlreadyLinked]))
	sb.WriteString(fmt.Sprintf("  SKIPPED:        %d\n", counts[model.StatusSkipped]))
	sb.WriteString(fmt.Sprintf("  FAILED:         %d\n", counts[model.StatusFailed]))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// statusIndicator returns a short visual marker for an album status.
func statusIndicator(status model.Status) string {
	switch status {
	case model.StatusImported:
		return "+"
	case model.StatusAlreadyLinked:
		return "="
	case model.StatusSkipped:
		return "~"
	case model.StatusFailed:
		return "!"
	default:
		return "?"
	}
}
