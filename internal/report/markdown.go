package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/harmonize-mb/harmonize/internal/model"
)

// MarkdownWriter outputs session reports in Markdown format.
// This format is designed for documentation and sharing, e.g. pasting a
// run summary into a forum thread or tracker ticket.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the session report in Markdown format.
func (w *MarkdownWriter) Write(session *model.SessionReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, session)
	w.writeAlbums(md, session)
	w.writeSummary(md, session)

	return len(md.String()), md.Build()
}

// writeHeader writes the session header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, session *model.SessionReport) {
	md.H1("Harmonize Import Report")
	md.PlainText("")

	finished := "-"
	if !session.DateFinished.IsZero() {
		finished = session.DateFinished.Format("2006-01-02 15:04:05 MST")
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", session.DateStarted.Format("2006-01-02 15:04:05 MST")},
			{"Finished", finished},
			{"Albums", strconv.Itoa(len(session.Albums))},
		},
	})
	md.PlainText("")
}

// writeAlbums writes the per-album results table.
func (w *MarkdownWriter) writeAlbums(md *markdown.Markdown, session *model.SessionReport) {
	md.H2("Albums")
	md.PlainText("")

	if len(session.Albums) == 0 {
		md.PlainText("No albums were processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(session.Albums))
	for i, album := range session.Albums {
		release := "-"
		if album.ReleaseMBID != "" {
			release = "[" + string(album.ReleaseMBID) + "](https://musicbrainz.org/release/" + string(album.ReleaseMBID) + ")"
		}

		note := album.ErrorMessage
		if note == "" && album.ReleaseTitle != "" {
			note = album.ReleaseArtist + " — " + album.ReleaseTitle
		}
		if note == "" {
			note = "-"
		}

		rows[i] = []string{
			statusEmoji(album.Status) + " " + string(album.Status),
			"`" + album.AlbumURL + "`",
			release,
			truncateString(note, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Album", "Release", "Notes"},
		Rows:   rows,
	})
	md.PlainText("")

	// Step warnings get a details block per album so the table stays
	// scannable.
	for _, album := range session.Albums {
		if len(album.StepErrors) == 0 {
			continue
		}
		body := ""
		for _, stepErr := range album.StepErrors {
			body += "- " + stepErr.Step + ": " + stepErr.Message + "\n"
		}
		md.Details("Warnings for "+album.AlbumURL, body)
	}
	md.PlainText("")
}

// writeSummary writes the per-status totals with a distribution chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, session *model.SessionReport) {
	counts := session.Counts()

	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Imported", strconv.Itoa(counts[model.StatusImported])},
			{"🔗 Already linked", strconv.Itoa(counts[model.StatusAlreadyLinked])},
			{"⏭️ Skipped", strconv.Itoa(counts[model.StatusSkipped])},
			{"❌ Failed", strconv.Itoa(counts[model.StatusFailed])},
		},
	})
	md.PlainText("")

	if len(session.Albums) > 0 {
		w.writePieChart(md, counts)
	}

	switch {
	case counts[model.StatusFailed] > 0:
		md.Warningf("%d album(s) failed to import. Check the notes column for details.",
			counts[model.StatusFailed])
	case counts[model.StatusImported] > 0:
		md.Tipf("%d album(s) imported successfully.", counts[model.StatusImported])
	default:
		md.Note("Nothing new was imported in this run.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Status]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Import Outcomes"),
		piechart.WithShowData(true),
	)

	if n := counts[model.StatusImported]; n > 0 {
		chart.LabelAndIntValue("Imported", uint64(n))
	}
	if n := counts[model.StatusAlreadyLinked]; n > 0 {
		chart.LabelAndIntValue("Already linked", uint64(n))
	}
	if n := counts[model.StatusSkipped]; n > 0 {
		chart.LabelAndIntValue("Skipped", uint64(n))
	}
	if n := counts[model.StatusFailed]; n > 0 {
		chart.LabelAndIntValue("Failed", uint64(n))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// truncateString truncates a string to maxLen runes with ellipsis.
// Counting runes keeps multi-byte titles (e.g. Japanese album names)
// valid UTF-8 after the cut.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// statusEmoji returns the marker used in the albums table.
func statusEmoji(status model.Status) string {
	switch status {
	case model.StatusImported:
		return "✅"
	case model.StatusAlreadyLinked:
		return "🔗"
	case model.StatusSkipped:
		return "⏭️"
	case model.StatusFailed:
		return "❌"
	default:
		return "❔"
	}
}
