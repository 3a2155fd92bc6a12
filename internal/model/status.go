package model

// Status describes the final outcome of processing a single album URL.
type Status string

// Import statuses.
//
// Design decision: We use a string type rather than iota constants because
// statuses are persisted in the history database and serialized to JSON.
// String values stay stable across releases and are self-describing in
// both places.
const (
	// StatusPending is the initial status before any pipeline step runs.
	StatusPending Status = "pending"

	// StatusImported means the release was published to MusicBrainz.
	StatusImported Status = "imported"

	// StatusAlreadyLinked means Harmony reported the release as already
	// present in MusicBrainz, so the pipeline stopped without editing.
	StatusAlreadyLinked Status = "already-linked"

	// StatusSkipped means the URL was skipped, e.g. because the history
	// database already records a successful import for it.
	StatusSkipped Status = "skipped"

	// StatusFailed means a pipeline step failed and the album was not
	// fully imported. The report's Error field carries the cause.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is a final outcome.
// Pending is the only non-terminal status.
func (s Status) Terminal() bool {
	return s != StatusPending
}
