// Package provider validates and normalizes streaming-service album URLs
// before they are handed to Harmony.
package provider

import (
	"errors"
	"net/url"
	"strings"
)

// Provider identifies a supported streaming service.
type Provider string

// Supported providers. The values match the lowercase names Harmony
// itself uses for its lookup providers.
const (
	Spotify    Provider = "spotify"
	Deezer     Provider = "deezer"
	AppleMusic Provider = "apple-music"
	Tidal      Provider = "tidal"
	Bandcamp   Provider = "bandcamp"
	Beatport   Provider = "beatport"
	ITunes     Provider = "itunes"
)

// URL validation errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances per call so callers can use errors.Is()
// for programmatic handling while still getting readable messages.
var (
	// ErrEmptyURL is returned when the input is empty or whitespace.
	ErrEmptyURL = errors.New("album URL is empty")

	// ErrInvalidURL is returned when the input cannot be parsed as a URL.
	ErrInvalidURL = errors.New("album URL is not a valid URL")

	// ErrUnsupportedHost is returned when the URL's host does not belong
	// to any supported streaming service.
	ErrUnsupportedHost = errors.New("album URL host is not a supported streaming service")
)

// hostProviders maps URL host suffixes to providers. Subdomains are
// matched by suffix, so open.spotify.com and www.deezer.com both resolve.
var hostProviders = map[string]Provider{
	"spotify.com":      Spotify,
	"deezer.com":       Deezer,
	"music.apple.com":  AppleMusic,
	"itunes.apple.com": ITunes,
	"tidal.com":        Tidal,
	"bandcamp.com":     Bandcamp,
	"beatport.com":     Beatport,
}

// trackingParams are query parameters stripped during normalization.
// They carry referral or analytics state and change the URL identity
// without changing the referenced album.
var trackingParams = map[string]bool{
	"si":           true, // Spotify share tokens
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_content":  true,
	"utm_term":     true,
	"ref":          true,
	"referrer":     true,
	"app":          true, // Tidal app hint
	"ls":           true, // Apple Music landing state
	"at":           true, // Apple affiliate token
	"ct":           true, // Apple campaign token
	"deep_link_id": true,
}

// Detect returns the provider for the given URL host, or an error if
// the host belongs to no supported service.
func Detect(raw string) (Provider, error) {
	u, err := parse(raw)
	if err != nil {
		return "", err
	}
	return detectHost(u.Hostname())
}

// Normalize canonicalizes an album URL: https scheme, lowercase host,
// tracking query parameters removed, fragment dropped. It returns the
// detected provider alongside the cleaned URL.
//
// This mirrors what Harmony does on its side, but doing it locally keeps
// the history database keyed on stable URLs so re-runs are detected.
func Normalize(raw string) (string, Provider, error) {
	u, err := parse(raw)
	if err != nil {
		return "", "", err
	}

	p, err := detectHost(u.Hostname())
	if err != nil {
		return "", "", err
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for param := range q {
		if trackingParams[strings.ToLower(param)] {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	// Trailing slashes are not significant for any supported provider.
	u.Path = strings.TrimRight(u.Path, "/")

	return u.String(), p, nil
}

// parse trims and parses the raw input, defaulting to https when no
// scheme is given.
func parse(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURL
	}
	if u.Hostname() == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// detectHost resolves a hostname to a provider by suffix match.
func detectHost(host string) (Provider, error) {
	host = strings.ToLower(host)
	for suffix, p := range hostProviders {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			// itunes.apple.com must win over apple.com subdomain logic;
			// exact entries are checked by the direct comparison above.
			if suffix == "music.apple.com" || suffix == "itunes.apple.com" {
				if host != suffix {
					continue
				}
			}
			return p, nil
		}
	}
	return "", ErrUnsupportedHost
}
