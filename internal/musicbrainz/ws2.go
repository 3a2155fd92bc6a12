package musicbrainz

import (
	"context"
	"fmt"

	"go.uploadedlobster.com/mbtypes"
	"go.uploadedlobster.com/musicbrainzws2"
)

// VerifiedRelease is the subset of release metadata the verification
// step records after a successful import.
type VerifiedRelease struct {
	MBID       mbtypes.MBID
	Title      string
	Artist     string
	TrackCount int
}

// Client wraps the MusicBrainz web service for post-import verification.
type Client struct {
	ws *musicbrainzws2.Client
}

// NewClient creates a MusicBrainz web service client identifying itself
// with the given application info. The library enforces the MusicBrainz
// rate limit internally.
func NewClient(name, version, contact string) *Client {
	return &Client{
		ws: musicbrainzws2.NewClient(musicbrainzws2.AppInfo{
			Name:    name,
			Version: version,
			URL:     contact,
		}),
	}
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.ws.Close()
}

// LookupRelease fetches a release by MBID and returns the fields the
// import report records. A lookup failure right after publishing is
// normal for a few seconds of replication lag, so callers retry once
// before recording an error.
func (c *Client) LookupRelease(ctx context.Context, mbid mbtypes.MBID) (*VerifiedRelease, error) {
	filter := musicbrainzws2.IncludesFilter{
		Includes: []string{"artists", "recordings"},
	}

	release, err := c.ws.LookupRelease(ctx, mbid, filter)
	if err != nil {
		return nil, fmt.Errorf("release lookup: %w", err)
	}

	trackCount := 0
	for _, medium := range release.Media {
		trackCount += medium.TrackCount
	}

	return &VerifiedRelease{
		MBID:       release.ID,
		Title:      release.Title,
		Artist:     release.ArtistCredit.String(),
		TrackCount: trackCount,
	}, nil
}
