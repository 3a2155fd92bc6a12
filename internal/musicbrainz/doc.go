// Package musicbrainz contains the MusicBrainz-side helpers of the
// import flow: label-name matching for the release editor's error
// recovery, URL and page-text parsing, and release verification via
// the MusicBrainz web service.
package musicbrainz
