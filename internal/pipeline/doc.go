// Package pipeline orchestrates the import of one album as an ordered
// sequence of steps: submit the URL to Harmony, seed and enter the
// MusicBrainz release edit, submit ISRCs through MagicISRC, enter the
// per-track external ID edits, upload cover art, and verify the release
// through the web service. Steps share a Job carrying the report and
// the browser tabs the album is being processed in.
package pipeline
