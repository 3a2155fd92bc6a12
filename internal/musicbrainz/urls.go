package musicbrainz

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uploadedlobster.com/mbtypes"
)

// Page-text parsing errors.
var (
	// ErrNoReleaseMBID is returned when no release MBID can be found in
	// the given URL or text.
	ErrNoReleaseMBID = errors.New("no MusicBrainz release ID found")
)

// mbidPattern matches a canonical MBID (UUID form).
var mbidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// releaseURLPattern matches a release MBID inside a MusicBrainz release
// URL on either the production or the test server.
var releaseURLPattern = regexp.MustCompile(`musicbrainz\.org/release/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)

// coverArtCountPattern matches the sidebar link text "Cover art (N)".
var coverArtCountPattern = regexp.MustCompile(`Cover art \((\d+)\)`)

// ReleaseMBIDFromURL extracts the release MBID from a MusicBrainz
// release URL, e.g. after the editor lands on the release page.
func ReleaseMBIDFromURL(pageURL string) (mbtypes.MBID, error) {
	m := releaseURLPattern.FindStringSubmatch(strings.ToLower(pageURL))
	if m == nil {
		return "", fmt.Errorf("%w in %q", ErrNoReleaseMBID, pageURL)
	}
	return mbtypes.MBID(m[1]), nil
}

// ReleaseMBIDFromText extracts the first MBID appearing in free text,
// e.g. the "already linked" paragraph Harmony renders.
func ReleaseMBIDFromText(text string) (mbtypes.MBID, error) {
	m := mbidPattern.FindString(strings.ToLower(text))
	if m == "" {
		return "", ErrNoReleaseMBID
	}
	return mbtypes.MBID(m), nil
}

// CoverArtCount parses the existing cover art count from the release
// sidebar link text ("Cover art (3)"). Returns 0 with ok=false when the
// text carries no count.
func CoverArtCount(linkText string) (int, bool) {
	m := coverArtCountPattern.FindStringSubmatch(linkText)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// RewriteToTestServer is the JavaScript run in-page to point every
// MusicBrainz link at the test server. Harmony builds its import form
// against musicbrainz.org; rewriting the DOM is the only hook we have.
const RewriteToTestServer = `
(() => {
  const rewrite = (value) =>
    value.replace(/(^|\/\/)musicbrainz\.org/g, "$1test.musicbrainz.org");
  for (const a of document.querySelectorAll("a[href*='musicbrainz.org']")) {
    a.href = rewrite(a.href);
  }
  for (const f of document.querySelectorAll("form[action*='musicbrainz.org']")) {
    f.action = rewrite(f.action);
  }
  return true;
})()
`

// AlreadyLinkedMarker is the page text Harmony shows when the album is
// already connected to a MusicBrainz release.
const AlreadyLinkedMarker = "is already linked to this"

// MissingLabelMarker is the release editor error text for a release
// event whose label was seeded by name but not resolved to an entity.
const MissingLabelMarker = "You haven’t selected a label for"
